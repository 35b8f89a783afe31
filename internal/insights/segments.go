package insights

import (
	"math"
	"net/url"
	"strings"

	"searchlens/internal/aggregate"
	"searchlens/internal/records"
)

const (
	clusterLimit      = 15
	revenueShareLimit = 20
)

// Device recommendations
const (
	RecommendMobileUX       = "Mobile conversion rate is significantly lower - consider mobile UX improvements"
	RecommendMobileCheckout = "Mobile revenue per visit is low - optimize mobile checkout flow"
)

// DeviceMetrics totals joined rows for one device. Rates are percentages.
type DeviceMetrics struct {
	Device          records.Device `json:"device"`
	Visits          int64          `json:"visits"`
	Orders          int64          `json:"orders"`
	Revenue         float64        `json:"revenue"`
	Clicks          int64          `json:"clicks"`
	Impressions     int64          `json:"impressions"`
	CVR             float64        `json:"cvr"`
	RevenuePerVisit float64        `json:"revenuePerVisit"`
	CTR             float64        `json:"ctr"`
}

// Disparity compares mobile with desktop conversion.
type Disparity struct {
	MobileVsDesktop  float64  `json:"mobileVsDesktop"`
	MobileRevenueGap float64  `json:"mobileRevenueGap"`
	Recommendations  []string `json:"recommendations"`
}

// DeviceDisparity is the per-device breakdown plus the mobile gap.
type DeviceDisparity struct {
	DeviceData []DeviceMetrics `json:"deviceData"`
	Disparity  Disparity       `json:"disparity"`
}

// DeviceDisparityAnalysis totals joined rows per device in first-seen order
// and measures how far mobile conversion trails desktop.
func DeviceDisparityAnalysis(joined []records.JoinedRecord) DeviceDisparity {
	groups := aggregate.Fold(joined,
		func(r records.JoinedRecord) records.Device { return r.Device },
		func(r records.JoinedRecord) DeviceMetrics { return DeviceMetrics{Device: r.Device} },
		func(acc DeviceMetrics, r records.JoinedRecord) DeviceMetrics {
			acc.Visits += r.Visits
			acc.Orders += r.Orders
			acc.Revenue += r.Revenue
			acc.Clicks += r.Clicks
			acc.Impressions += r.Impressions
			return acc
		},
	)
	devices := aggregate.Collect(groups, func(_ records.Device, m DeviceMetrics) DeviceMetrics {
		m.CVR = records.Percent(float64(m.Orders), float64(m.Visits))
		m.RevenuePerVisit = records.Ratio(m.Revenue, float64(m.Visits))
		m.CTR = records.Percent(float64(m.Clicks), float64(m.Impressions))
		return m
	})

	desktop, hasDesktop := findDevice(devices, records.DeviceDesktop)
	mobile, hasMobile := findDevice(devices, records.DeviceMobile)

	recommendations := []string{}
	if hasDesktop && hasMobile {
		if mobile.CVR < desktop.CVR*0.8 {
			recommendations = append(recommendations, RecommendMobileUX)
		}
		if mobile.RevenuePerVisit < desktop.RevenuePerVisit*0.7 {
			recommendations = append(recommendations, RecommendMobileCheckout)
		}
	}

	return DeviceDisparity{
		DeviceData: devices,
		Disparity: Disparity{
			MobileVsDesktop:  mobile.CVR - desktop.CVR,
			MobileRevenueGap: (desktop.CVR - mobile.CVR) * float64(mobile.Visits) / 100,
			Recommendations:  recommendations,
		},
	}
}

func findDevice(devices []DeviceMetrics, d records.Device) (DeviceMetrics, bool) {
	for _, m := range devices {
		if m.Device == d {
			return m, true
		}
	}
	return DeviceMetrics{}, false
}

// PageCluster totals the pages sharing a first path segment.
type PageCluster struct {
	Cluster              string   `json:"cluster"`
	Pages                []string `json:"pages"`
	PageCount            int      `json:"pageCount"`
	Impressions          int64    `json:"impressions"`
	Clicks               int64    `json:"clicks"`
	Revenue              float64  `json:"revenue"`
	Visits               int64    `json:"visits"`
	Orders               int64    `json:"orders"`
	AvgRevenuePerPage    float64  `json:"avgRevenuePerPage"`
	CVR                  float64  `json:"cvr"`
	CTR                  float64  `json:"ctr"`
	RevenuePerImpression float64  `json:"revenuePerImpression"`
}

type clusterTotals struct {
	pages       *aggregate.OrderedSet[string]
	impressions int64
	clicks      int64
	revenue     float64
	visits      int64
	orders      int64
}

// ClusterOf returns "/<first segment>/" for a page nested at least two
// segments deep, or "/". Absolute URLs are reduced to their path first.
func ClusterOf(page string) string {
	path := page
	if u, err := url.Parse(page); err == nil && u.Host != "" {
		path = u.Path
	}
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) > 1 {
		return "/" + segments[0] + "/"
	}
	return "/"
}

// PageClusters groups joined rows by ClusterOf and returns the top 15
// clusters by impressions.
func PageClusters(joined []records.JoinedRecord) []PageCluster {
	groups := aggregate.Fold(joined,
		func(r records.JoinedRecord) string { return ClusterOf(r.Page) },
		func(records.JoinedRecord) clusterTotals {
			return clusterTotals{pages: &aggregate.OrderedSet[string]{}}
		},
		func(acc clusterTotals, r records.JoinedRecord) clusterTotals {
			acc.pages.Add(r.Page)
			acc.impressions += r.Impressions
			acc.clicks += r.Clicks
			acc.revenue += r.Revenue
			acc.visits += r.Visits
			acc.orders += r.Orders
			return acc
		},
	)
	out := aggregate.Collect(groups, func(cluster string, t clusterTotals) PageCluster {
		pageCount := t.pages.Len()
		return PageCluster{
			Cluster:              cluster,
			Pages:                t.pages.Items(),
			PageCount:            pageCount,
			Impressions:          t.impressions,
			Clicks:               t.clicks,
			Revenue:              t.revenue,
			Visits:               t.visits,
			Orders:               t.orders,
			AvgRevenuePerPage:    records.Ratio(t.revenue, float64(pageCount)),
			CVR:                  records.Percent(float64(t.orders), float64(t.visits)),
			CTR:                  records.Percent(float64(t.clicks), float64(t.impressions)),
			RevenuePerImpression: records.Ratio(t.revenue, float64(t.impressions)),
		}
	})
	return aggregate.Top(out, clusterLimit, func(c PageCluster) float64 { return float64(c.Impressions) })
}

// RevenueShare compares a page's share of revenue with its share of clicks.
type RevenueShare struct {
	Page            string  `json:"page"`
	Revenue         float64 `json:"revenue"`
	Clicks          int64   `json:"clicks"`
	Visits          int64   `json:"visits"`
	Orders          int64   `json:"orders"`
	Impressions     int64   `json:"impressions"`
	RevenueShare    float64 `json:"revenueShare"`
	ClickShare      float64 `json:"clickShare"`
	ShareGap        float64 `json:"shareGap"`
	RevenuePerClick float64 `json:"revenuePerClick"`
	CVR             float64 `json:"cvr"`
}

// RevenueShareAnalysis returns the 20 pages whose revenue share differs most
// from their click share. Shares are 0 when the site total is 0.
func RevenueShareAnalysis(joined []records.JoinedRecord) []RevenueShare {
	var totalRevenue float64
	var totalClicks int64
	for _, r := range joined {
		totalRevenue += r.Revenue
		totalClicks += r.Clicks
	}

	groups := aggregate.Fold(joined,
		func(r records.JoinedRecord) string { return r.Page },
		func(r records.JoinedRecord) RevenueShare { return RevenueShare{Page: r.Page} },
		func(acc RevenueShare, r records.JoinedRecord) RevenueShare {
			acc.Revenue += r.Revenue
			acc.Clicks += r.Clicks
			acc.Visits += r.Visits
			acc.Orders += r.Orders
			acc.Impressions += r.Impressions
			return acc
		},
	)
	out := aggregate.Collect(groups, func(_ string, s RevenueShare) RevenueShare {
		s.RevenueShare = records.Percent(s.Revenue, totalRevenue)
		s.ClickShare = records.Percent(float64(s.Clicks), float64(totalClicks))
		s.ShareGap = s.RevenueShare - s.ClickShare
		s.RevenuePerClick = records.Ratio(s.Revenue, float64(s.Clicks))
		s.CVR = records.Percent(float64(s.Orders), float64(s.Visits))
		return s
	})
	return aggregate.Top(out, revenueShareLimit, func(s RevenueShare) float64 { return math.Abs(s.ShareGap) })
}
