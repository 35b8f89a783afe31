package insights

import (
	"searchlens/internal/aggregate"
	"searchlens/internal/records"
)

// Result sizes
const (
	rpiLimit       = 50
	funnelLimit    = 25
	intentGapLimit = 30

	// intentGapMinClicks filters out query/page pairs without meaningful traffic.
	intentGapMinClicks = 10
)

// QueryRPI is revenue per impression for one query.
type QueryRPI struct {
	Query            string   `json:"query"`
	TotalRevenue     float64  `json:"totalRevenue"`
	TotalImpressions int64    `json:"totalImpressions"`
	TotalClicks      int64    `json:"totalClicks"`
	TotalVisits      int64    `json:"totalVisits"`
	Pages            []string `json:"pages"`
	RPI              float64  `json:"rpi"`
	RevenuePerClick  float64  `json:"revenuePerClick"`
	// CVR here is revenue per visit expressed as a percentage.
	CVR float64 `json:"cvr"`
}

type rpiTotals struct {
	revenue     float64
	impressions int64
	clicks      int64
	visits      int64
	pages       *aggregate.OrderedSet[string]
}

// RevenuePerImpression ranks queries by revenue per impression and returns
// the top 50.
func RevenuePerImpression(joined []records.JoinedRecord) []QueryRPI {
	groups := aggregate.Fold(joined, byQuery,
		func(records.JoinedRecord) rpiTotals {
			return rpiTotals{pages: &aggregate.OrderedSet[string]{}}
		},
		func(acc rpiTotals, r records.JoinedRecord) rpiTotals {
			acc.revenue += r.Revenue
			acc.impressions += r.Impressions
			acc.clicks += r.Clicks
			acc.visits += r.Visits
			acc.pages.Add(r.Page)
			return acc
		},
	)
	out := aggregate.Collect(groups, func(query string, t rpiTotals) QueryRPI {
		return QueryRPI{
			Query:            query,
			TotalRevenue:     t.revenue,
			TotalImpressions: t.impressions,
			TotalClicks:      t.clicks,
			TotalVisits:      t.visits,
			Pages:            t.pages.Items(),
			RPI:              records.Ratio(t.revenue, float64(t.impressions)),
			RevenuePerClick:  records.Ratio(t.revenue, float64(t.clicks)),
			CVR:              records.Percent(t.revenue, float64(t.visits)),
		}
	})
	return aggregate.Top(out, rpiLimit, func(q QueryRPI) float64 { return q.RPI })
}

// QueryFunnel follows a query from impression to revenue.
type QueryFunnel struct {
	Query           string  `json:"query"`
	Impressions     int64   `json:"impressions"`
	Clicks          int64   `json:"clicks"`
	Visits          int64   `json:"visits"`
	Orders          int64   `json:"orders"`
	Revenue         float64 `json:"revenue"`
	CTR             float64 `json:"ctr"`
	VisitRate       float64 `json:"visitRate"`
	CVR             float64 `json:"cvr"`
	RevenuePerVisit float64 `json:"revenuePerVisit"`
	RevenuePerClick float64 `json:"revenuePerClick"`
}

// QueryRevenueFunnel sums each query's funnel, keeps queries with revenue
// and returns the top 25 by revenue. Rates are percentages.
func QueryRevenueFunnel(joined []records.JoinedRecord) []QueryFunnel {
	groups := aggregate.Fold(joined, byQuery,
		func(r records.JoinedRecord) QueryFunnel { return QueryFunnel{Query: r.Query} },
		func(acc QueryFunnel, r records.JoinedRecord) QueryFunnel {
			acc.Impressions += r.Impressions
			acc.Clicks += r.Clicks
			acc.Visits += r.Visits
			acc.Orders += r.Orders
			acc.Revenue += r.Revenue
			return acc
		},
	)
	var out []QueryFunnel
	for _, f := range aggregate.Collect(groups, func(_ string, f QueryFunnel) QueryFunnel { return f }) {
		if f.Revenue <= 0 {
			continue
		}
		f.CTR = records.Percent(float64(f.Clicks), float64(f.Impressions))
		f.VisitRate = records.Percent(float64(f.Visits), float64(f.Clicks))
		f.CVR = records.Percent(float64(f.Orders), float64(f.Visits))
		f.RevenuePerVisit = records.Ratio(f.Revenue, float64(f.Visits))
		f.RevenuePerClick = records.Ratio(f.Revenue, float64(f.Clicks))
		out = append(out, f)
	}
	return aggregate.Top(nonNil(out), funnelLimit, func(f QueryFunnel) float64 { return f.Revenue })
}

// IntentGap shows how traffic from a query converts on one landing page.
type IntentGap struct {
	Query           string  `json:"query"`
	Page            string  `json:"page"`
	Clicks          int64   `json:"clicks"`
	Visits          int64   `json:"visits"`
	Orders          int64   `json:"orders"`
	Revenue         float64 `json:"revenue"`
	CVR             float64 `json:"cvr"`
	RevenuePerClick float64 `json:"revenuePerClick"`
}

type queryPage struct {
	query string
	page  string
}

// QueryIntentGap groups rows by query and page, keeps pairs with more than
// 10 clicks and returns the top 30 by clicks.
func QueryIntentGap(joined []records.JoinedRecord) []IntentGap {
	groups := aggregate.Fold(joined,
		func(r records.JoinedRecord) queryPage { return queryPage{query: r.Query, page: r.Page} },
		func(r records.JoinedRecord) IntentGap { return IntentGap{Query: r.Query, Page: r.Page} },
		func(acc IntentGap, r records.JoinedRecord) IntentGap {
			acc.Clicks += r.Clicks
			acc.Visits += r.Visits
			acc.Orders += r.Orders
			acc.Revenue += r.Revenue
			return acc
		},
	)
	var out []IntentGap
	for _, g := range aggregate.Collect(groups, func(_ queryPage, g IntentGap) IntentGap { return g }) {
		if g.Clicks <= intentGapMinClicks {
			continue
		}
		g.CVR = records.Percent(float64(g.Orders), float64(g.Visits))
		g.RevenuePerClick = records.Ratio(g.Revenue, float64(g.Clicks))
		out = append(out, g)
	}
	return aggregate.Top(nonNil(out), intentGapLimit, func(g IntentGap) float64 { return float64(g.Clicks) })
}

func byQuery(r records.JoinedRecord) string {
	return r.Query
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
