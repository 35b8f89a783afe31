package analytics_test

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchlens/internal/aggregate"
	"searchlens/internal/analytics"
	"searchlens/internal/records"
	"searchlens/internal/timeframe"
)

func scenarioSet() records.Set {
	return records.Set{
		Analytics: []records.AnalyticsRecord{
			{Date: "2024-01-01", Page: "/a", Visits: 100, Orders: 5, Revenue: 50, Device: records.DeviceDesktop, Channel: records.ChannelDirect},
		},
		Search: []records.SearchRecord{
			{Date: "2024-01-01", Page: "/a", Query: "shoes", Clicks: 10, Impressions: 200, CTR: 0.05, Position: 3},
		},
	}
}

func tenDaySet() records.Set {
	var set records.Set
	for d := 1; d <= 10; d++ {
		date := fmt.Sprintf("2024-01-%02d", d)
		visits := int64(10)
		if d > 5 {
			visits = 20
		}
		set.Analytics = append(set.Analytics, records.AnalyticsRecord{
			Date: date, Page: "/p", Visits: visits, Orders: 1, Revenue: float64(visits),
			Device: records.DeviceMobile, Channel: records.ChannelOrganicSearch,
		})
		set.Search = append(set.Search, records.SearchRecord{
			Date: date, Page: "/p", Query: "q", Clicks: 1, Impressions: 10, CTR: 0.1, Position: 4,
		})
	}
	return set
}

func TestPageAndQueryInsightScenario(t *testing.T) {
	set := scenarioSet()

	pages := analytics.PageInsights(set)
	require.Len(t, pages, 1)
	assert.Equal(t, "/a", pages[0].Page)
	assert.InDelta(t, 5.0, pages[0].ConversionRate, 1e-9)
	assert.InDelta(t, 5.0, pages[0].CTR, 1e-9)
	assert.InDelta(t, 0.5, pages[0].RevenuePerVisit, 1e-9)
	assert.Equal(t, []string{"shoes"}, pages[0].Queries)

	queries := analytics.QueryInsights(set)
	require.Len(t, queries, 1)
	assert.Equal(t, "shoes", queries[0].Query)
	assert.InDelta(t, 3.0, queries[0].AvgPosition, 1e-9)
	assert.InDelta(t, 5.0, queries[0].CTR, 1e-9)
	assert.Equal(t, []string{"/a"}, queries[0].Pages)
}

func TestPageInsightsOnlyMergeAnalyticsPages(t *testing.T) {
	set := records.Set{
		Analytics: []records.AnalyticsRecord{
			{Date: "2024-01-01", Page: "/analytics-only", Visits: 4, Orders: 1, Revenue: 8},
			{Date: "2024-01-01", Page: "/both", Visits: 10},
		},
		Search: []records.SearchRecord{
			{Date: "2024-01-01", Page: "/both", Query: "x", Clicks: 2, Impressions: 20},
			{Date: "2024-01-02", Page: "/both", Query: "y", Clicks: 1, Impressions: 30},
			{Date: "2024-01-01", Page: "/search-only", Query: "z", Clicks: 9, Impressions: 90},
		},
	}

	pages := analytics.PageInsights(set)

	require.Len(t, pages, 2)
	assert.Equal(t, "/analytics-only", pages[0].Page)
	assert.Zero(t, pages[0].Clicks)
	assert.Zero(t, pages[0].CTR)
	assert.Equal(t, []string{}, pages[0].Queries)
	assert.InDelta(t, 25.0, pages[0].ConversionRate, 1e-9)

	assert.Equal(t, "/both", pages[1].Page)
	assert.Equal(t, int64(3), pages[1].Clicks)
	assert.Equal(t, int64(50), pages[1].Impressions)
	assert.Equal(t, []string{"x", "y"}, pages[1].Queries)
	assert.InDelta(t, 6.0, pages[1].CTR, 1e-9)
}

func TestQueryInsightsUsePlainMeanOfPositions(t *testing.T) {
	set := records.Set{Search: []records.SearchRecord{
		{Query: "q", Page: "/a", Clicks: 100, Impressions: 1000, Position: 1},
		{Query: "q", Page: "/b", Clicks: 0, Impressions: 10, Position: 9},
		{Query: "q", Page: "/a", Clicks: 0, Impressions: 0, Position: 2},
	}}

	queries := analytics.QueryInsights(set)

	require.Len(t, queries, 1)
	assert.Equal(t, []float64{1, 9, 2}, queries[0].Positions)
	assert.InDelta(t, 4.0, queries[0].AvgPosition, 1e-9)
	assert.Equal(t, []string{"/a", "/b"}, queries[0].Pages)
}

func TestSummarizeUsesRowMeans(t *testing.T) {
	set := records.Set{
		Analytics: []records.AnalyticsRecord{
			{Date: "2024-01-01", Page: "/a", Visits: 100, Orders: 10, Revenue: 100},
			{Date: "2024-01-02", Page: "/b", Visits: 10, Orders: 0, Revenue: 0},
			{Date: "2024-01-03", Page: "/a", Visits: 0, Orders: 0, Revenue: 0},
		},
		Search: []records.SearchRecord{
			{Date: "2024-01-01", Page: "/a", Query: "x", Clicks: 10, Impressions: 100, CTR: 0.1, Position: 2},
			{Date: "2024-01-05", Page: "/a", Query: "y", Clicks: 0, Impressions: 900, CTR: 0.3, Position: 6},
		},
	}
	now := time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)

	s := analytics.Summarize(set, now)

	assert.Equal(t, int64(110), s.TotalVisits)
	assert.Equal(t, int64(10), s.TotalOrders)
	assert.InDelta(t, 100.0, s.TotalRevenue, 1e-9)
	// (10 + 0 + 0) / 3, not 10/110
	assert.InDelta(t, 10.0/3, s.AvgConversionRate, 1e-9)
	assert.InDelta(t, 1.0/3, s.AvgRevenuePerVisit, 1e-9)
	assert.Equal(t, int64(10), s.TotalClicks)
	assert.Equal(t, int64(1000), s.TotalImpressions)
	assert.InDelta(t, 0.2, s.AvgCTR, 1e-9)
	assert.InDelta(t, 4.0, s.AvgPosition, 1e-9)
	assert.Equal(t, 2, s.TotalPages)
	assert.Equal(t, 2, s.TotalQueries)

	require.NotNil(t, s.DateRange)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), s.DateRange.Start)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), s.DateRange.End)

	assert.Equal(t, 3, s.Freshness.DaysSinceUpdate)
	assert.Equal(t, 5, s.Freshness.TotalDataPoints)
	assert.Equal(t, 4, s.Freshness.DataSpan)
}

func TestSummarizeEmpty(t *testing.T) {
	s := analytics.Summarize(records.Set{}, time.Now())

	assert.Zero(t, s.TotalVisits)
	assert.Zero(t, s.AvgConversionRate)
	assert.Zero(t, s.AvgCTR)
	assert.Zero(t, s.AvgPosition)
	assert.Nil(t, s.DateRange)
	assert.Nil(t, s.Freshness.LastUpdated)
	for _, v := range []float64{s.AvgConversionRate, s.AvgRevenuePerVisit, s.AvgCTR, s.AvgPosition} {
		assert.False(t, math.IsNaN(v))
	}
}

func TestCalculateTrends(t *testing.T) {
	trends := analytics.CalculateTrends(tenDaySet())

	assert.Equal(t, "5 days", trends.Visits.Timeframe)
	// first half Jan 1-5 = 50 visits, second half Jan 6-10 = 100 visits
	assert.InDelta(t, 100.0, trends.Visits.Change, 1e-9)
	assert.InDelta(t, 100.0, trends.Revenue.Change, 1e-9)
	assert.InDelta(t, 0.0, trends.Orders.Change, 1e-9)
	// 10% -> 5% per-row conversion
	assert.InDelta(t, -50.0, trends.ConversionRate.Change, 1e-9)
}

func TestCalculateTrendsWithoutPreviousData(t *testing.T) {
	set := records.Set{Analytics: []records.AnalyticsRecord{{Date: "2024-01-01", Visits: 10}}}

	trends := analytics.CalculateTrends(set)

	assert.Zero(t, trends.Visits.Change)
	assert.Equal(t, "0 days", trends.Visits.Timeframe)
	assert.Equal(t, "0 days", analytics.CalculateTrends(records.Set{}).Revenue.Timeframe)
}

func TestPercentageChange(t *testing.T) {
	assert.Zero(t, analytics.PercentageChange(10, 0))
	assert.InDelta(t, 50.0, analytics.PercentageChange(15, 10), 1e-9)
	assert.InDelta(t, -100.0, analytics.PercentageChange(0, 10), 1e-9)
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2024, 1, 12, 6, 0, 0, 0, time.UTC)

	d := analytics.BuildDashboard(tenDaySet(), now)

	assert.Equal(t, int64(150), d.TotalVisits)
	assert.Equal(t, 3, d.Freshness.DaysSinceUpdate)
	assert.Equal(t, 9, d.Freshness.DataSpan)
	assert.Equal(t, 20, d.Freshness.TotalDataPoints)
	assert.Equal(t, "5 days", d.Trends.Orders.Timeframe)
}

func TestBuildTimeSeriesAndBreakdown(t *testing.T) {
	set := tenDaySet()
	set.Analytics = append(set.Analytics, records.AnalyticsRecord{
		Date: "2024-01-01", Page: "/d", Visits: 500, Device: records.DeviceDesktop, Channel: records.ChannelEmail,
	})

	series := analytics.BuildTimeSeries(set, timeframe.BucketSizeDay)
	require.Len(t, series.Visits, 10)
	assert.Equal(t, aggregate.DateValue{Date: "2024-01-01", Value: 510}, series.Visits[0])
	assert.Len(t, series.Clicks, 10)
	assert.Len(t, series.Impressions, 10)
	assert.Len(t, series.Revenue, 10)

	weekly := analytics.BuildTimeSeries(set, timeframe.BucketSizeMonth)
	require.Len(t, weekly.Clicks, 1)
	assert.Equal(t, 10.0, weekly.Clicks[0].Value)

	breakdown := analytics.BuildBreakdown(set)
	assert.Equal(t, []aggregate.NameValue{
		{Name: "Desktop", Value: 500},
		{Name: "Mobile", Value: 150},
	}, breakdown.Device)
	assert.Equal(t, "Email", breakdown.Channel[0].Name)
}

func TestFilter(t *testing.T) {
	r, err := timeframe.ParseRange("2024-01-03", "2024-01-04")
	require.NoError(t, err)

	filtered := analytics.Filter(tenDaySet(), r)

	assert.Len(t, filtered.Analytics, 2)
	assert.Len(t, filtered.Search, 2)

	all := analytics.Filter(tenDaySet(), timeframe.Range{})
	assert.Len(t, all.Analytics, 10)
}
