package aggregate

import "searchlens/internal/records"

// DefaultTopLimit is the topN size used when callers do not pass one.
const DefaultTopLimit = 10

// PageTotals are summed analytics figures for one page. Clicks and
// impressions are not present in the analytics export and stay zero.
type PageTotals struct {
	Page        string  `json:"page"`
	Visits      int64   `json:"visits"`
	Orders      int64   `json:"orders"`
	Revenue     float64 `json:"revenue"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
}

// QueryTotals are summed clicks and impressions for one query, with ctr and
// position averaged over its rows.
type QueryTotals struct {
	Query       string  `json:"query"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
	Count       int     `json:"count"`
}

// TopPages groups analytics rows by page and returns the n pages with the
// most visits.
func TopPages(rows []records.AnalyticsRecord, n int) []PageTotals {
	groups := Fold(rows,
		func(r records.AnalyticsRecord) string { return r.Page },
		func(r records.AnalyticsRecord) PageTotals { return PageTotals{Page: r.Page} },
		func(acc PageTotals, r records.AnalyticsRecord) PageTotals {
			acc.Visits += r.Visits
			acc.Orders += r.Orders
			acc.Revenue += r.Revenue
			return acc
		},
	)
	pages := Collect(groups, func(_ string, p PageTotals) PageTotals { return p })
	return Top(pages, n, func(p PageTotals) float64 { return float64(p.Visits) })
}

// TopQueries groups search rows by query and returns the n queries with the
// most clicks.
func TopQueries(rows []records.SearchRecord, n int) []QueryTotals {
	groups := Fold(rows,
		func(r records.SearchRecord) string { return r.Query },
		func(r records.SearchRecord) QueryTotals { return QueryTotals{Query: r.Query} },
		func(acc QueryTotals, r records.SearchRecord) QueryTotals {
			acc.Clicks += r.Clicks
			acc.Impressions += r.Impressions
			acc.CTR += r.CTR
			acc.Position += r.Position
			acc.Count++
			return acc
		},
	)
	queries := Collect(groups, func(_ string, q QueryTotals) QueryTotals {
		q.CTR = records.Ratio(q.CTR, float64(q.Count))
		q.Position = records.Ratio(q.Position, float64(q.Count))
		return q
	})
	return Top(queries, n, func(q QueryTotals) float64 { return float64(q.Clicks) })
}
