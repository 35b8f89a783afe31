package analytics

import (
	"searchlens/internal/aggregate"
	"searchlens/internal/records"
)

// PageInsight combines the analytics totals of a page with the search
// console totals for the same page.
type PageInsight struct {
	Page            string   `json:"page"`
	Visits          int64    `json:"visits"`
	Orders          int64    `json:"orders"`
	Revenue         float64  `json:"revenue"`
	Clicks          int64    `json:"clicks"`
	Impressions     int64    `json:"impressions"`
	Queries         []string `json:"queries"`
	ConversionRate  float64  `json:"conversionRate"`
	RevenuePerVisit float64  `json:"revenuePerVisit"`
	CTR             float64  `json:"ctr"`
}

type pageSearchTotals struct {
	clicks      int64
	impressions int64
	queries     *aggregate.OrderedSet[string]
}

// PageInsights returns one row per analytics page in first-seen order.
// Search totals are merged only for pages present in analytics; search-only
// pages are left out.
func PageInsights(set records.Set) []PageInsight {
	pages := aggregate.Fold(set.Analytics,
		func(r records.AnalyticsRecord) string { return r.Page },
		func(r records.AnalyticsRecord) PageInsight { return PageInsight{Page: r.Page} },
		func(acc PageInsight, r records.AnalyticsRecord) PageInsight {
			acc.Visits += r.Visits
			acc.Orders += r.Orders
			acc.Revenue += r.Revenue
			return acc
		},
	)

	matching := make([]records.SearchRecord, 0, len(set.Search))
	for _, s := range set.Search {
		if _, ok := pages.Get(s.Page); ok {
			matching = append(matching, s)
		}
	}
	search := aggregate.Fold(matching,
		func(r records.SearchRecord) string { return r.Page },
		func(records.SearchRecord) pageSearchTotals {
			return pageSearchTotals{queries: &aggregate.OrderedSet[string]{}}
		},
		func(acc pageSearchTotals, r records.SearchRecord) pageSearchTotals {
			acc.clicks += r.Clicks
			acc.impressions += r.Impressions
			acc.queries.Add(r.Query)
			return acc
		},
	)

	return aggregate.Collect(pages, func(page string, p PageInsight) PageInsight {
		p.Queries = []string{}
		if st, ok := search.Get(page); ok {
			p.Clicks = st.clicks
			p.Impressions = st.impressions
			p.Queries = st.queries.Items()
		}
		p.ConversionRate = records.Percent(float64(p.Orders), float64(p.Visits))
		p.RevenuePerVisit = records.Ratio(p.Revenue, float64(p.Visits))
		p.CTR = records.Percent(float64(p.Clicks), float64(p.Impressions))
		return p
	})
}

// QueryInsight aggregates the search console rows of one query.
type QueryInsight struct {
	Query       string    `json:"query"`
	Clicks      int64     `json:"clicks"`
	Impressions int64     `json:"impressions"`
	Positions   []float64 `json:"positions"`
	Pages       []string  `json:"pages"`
	AvgPosition float64   `json:"avgPosition"`
	CTR         float64   `json:"ctr"`
}

type queryTotals struct {
	clicks      int64
	impressions int64
	positions   []float64
	pages       *aggregate.OrderedSet[string]
}

// QueryInsights returns one row per distinct query in first-seen order.
// avgPosition is the plain mean of the observed positions.
func QueryInsights(set records.Set) []QueryInsight {
	groups := aggregate.Fold(set.Search,
		func(r records.SearchRecord) string { return r.Query },
		func(records.SearchRecord) queryTotals {
			return queryTotals{pages: &aggregate.OrderedSet[string]{}}
		},
		func(acc queryTotals, r records.SearchRecord) queryTotals {
			acc.clicks += r.Clicks
			acc.impressions += r.Impressions
			acc.positions = append(acc.positions, r.Position)
			acc.pages.Add(r.Page)
			return acc
		},
	)

	return aggregate.Collect(groups, func(query string, q queryTotals) QueryInsight {
		return QueryInsight{
			Query:       query,
			Clicks:      q.clicks,
			Impressions: q.impressions,
			Positions:   q.positions,
			Pages:       q.pages.Items(),
			AvgPosition: records.Mean(q.positions),
			CTR:         records.Percent(float64(q.clicks), float64(q.impressions)),
		}
	})
}
