// Package analytics computes the dashboard views over normalized analytics
// and search console records. Every function is a pure read of its input.
package analytics

import (
	"time"

	"searchlens/internal/aggregate"
	"searchlens/internal/records"
	"searchlens/internal/timeframe"
)

// DateRange is the earliest and latest day found across both datasets.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the span of the range in days, rounded up.
func (r DateRange) Days() int {
	return timeframe.CeilDays(r.Start, r.End)
}

// Freshness describes how current the loaded data is.
type Freshness struct {
	LastUpdated     *time.Time `json:"lastUpdated"`
	DaysSinceUpdate int        `json:"daysSinceUpdate"`
	TotalDataPoints int        `json:"totalDataPoints"`
	DataSpan        int        `json:"dataSpan"`
}

// Summary holds the dashboard totals. Averages are plain means of per-row
// values, not ratios of totals.
type Summary struct {
	TotalVisits        int64      `json:"totalVisits"`
	TotalOrders        int64      `json:"totalOrders"`
	TotalRevenue       float64    `json:"totalRevenue"`
	AvgConversionRate  float64    `json:"avgConversionRate"`
	AvgRevenuePerVisit float64    `json:"avgRevenuePerVisit"`
	TotalClicks        int64      `json:"totalClicks"`
	TotalImpressions   int64      `json:"totalImpressions"`
	AvgCTR             float64    `json:"avgCTR"`
	AvgPosition        float64    `json:"avgPosition"`
	TotalPages         int        `json:"totalPages"`
	TotalQueries       int        `json:"totalQueries"`
	DateRange          *DateRange `json:"dateRange"`
	Freshness          Freshness  `json:"dataFreshness"`
}

// AnalyticsTotals are the analytics half of a summary.
type AnalyticsTotals struct {
	TotalVisits        int64
	TotalOrders        int64
	TotalRevenue       float64
	AvgConversionRate  float64
	AvgRevenuePerVisit float64
}

// SumAnalytics totals analytics rows and averages their per-row rates.
func SumAnalytics(rows []records.AnalyticsRecord) AnalyticsTotals {
	var t AnalyticsTotals
	var convSum, rpvSum float64
	for _, r := range rows {
		t.TotalVisits += r.Visits
		t.TotalOrders += r.Orders
		t.TotalRevenue += r.Revenue
		convSum += r.ConversionRate()
		rpvSum += r.RevenuePerVisit()
	}
	t.AvgConversionRate = records.Ratio(convSum, float64(len(rows)))
	t.AvgRevenuePerVisit = records.Ratio(rpvSum, float64(len(rows)))
	return t
}

// Summarize computes the dashboard summary as of now.
func Summarize(set records.Set, now time.Time) Summary {
	at := SumAnalytics(set.Analytics)
	s := Summary{
		TotalVisits:        at.TotalVisits,
		TotalOrders:        at.TotalOrders,
		TotalRevenue:       at.TotalRevenue,
		AvgConversionRate:  at.AvgConversionRate,
		AvgRevenuePerVisit: at.AvgRevenuePerVisit,
	}

	var ctrSum, posSum float64
	for _, r := range set.Search {
		s.TotalClicks += r.Clicks
		s.TotalImpressions += r.Impressions
		ctrSum += r.CTR
		posSum += r.Position
	}
	s.AvgCTR = records.Ratio(ctrSum, float64(len(set.Search)))
	s.AvgPosition = records.Ratio(posSum, float64(len(set.Search)))

	var pages, queries aggregate.OrderedSet[string]
	for _, r := range set.Analytics {
		pages.Add(r.Page)
	}
	for _, r := range set.Search {
		queries.Add(r.Query)
	}
	s.TotalPages = pages.Len()
	s.TotalQueries = queries.Len()

	if dr, ok := DateRangeOf(set); ok {
		s.DateRange = &dr
	}
	s.Freshness = FreshnessOf(set, now)
	return s
}

// DateRangeOf returns the earliest and latest parseable dates across both
// datasets. It reports false when no date can be parsed.
func DateRangeOf(set records.Set) (DateRange, bool) {
	var dr DateRange
	found := false
	visit := func(date string) {
		day, ok := timeframe.ParseDay(date)
		if !ok {
			return
		}
		if !found || day.Before(dr.Start) {
			dr.Start = day
		}
		if !found || day.After(dr.End) {
			dr.End = day
		}
		found = true
	}
	for _, r := range set.Analytics {
		visit(r.Date)
	}
	for _, r := range set.Search {
		visit(r.Date)
	}
	return dr, found
}

// FreshnessOf reports the latest data day, whole days elapsed since then
// (rounded up), the number of loaded rows and the span of the data.
func FreshnessOf(set records.Set, now time.Time) Freshness {
	f := Freshness{TotalDataPoints: set.Len()}
	dr, ok := DateRangeOf(set)
	if !ok {
		return f
	}
	end := dr.End
	f.LastUpdated = &end
	f.DaysSinceUpdate = timeframe.CeilDays(dr.End, now)
	f.DataSpan = dr.Days()
	return f
}
