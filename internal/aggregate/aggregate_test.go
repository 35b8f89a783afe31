package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchlens/internal/aggregate"
	"searchlens/internal/records"
	"searchlens/internal/timeframe"
)

func analyticsRow(date, page string, visits int64, device records.Device) records.AnalyticsRecord {
	return records.AnalyticsRecord{Date: date, Page: page, Visits: visits, Device: device, Channel: records.ChannelDirect}
}

func TestSumByDate(t *testing.T) {
	rows := []records.AnalyticsRecord{
		analyticsRow("2024-01-03", "/a", 5, records.DeviceDesktop),
		analyticsRow("2024-01-01", "/a", 1, records.DeviceDesktop),
		analyticsRow("2024-01-03", "/b", 2, records.DeviceMobile),
		analyticsRow("2024-01-02", "/a", 4, records.DeviceDesktop),
		analyticsRow("2023-12-31", "/c", 7, records.DeviceTablet),
	}

	got := aggregate.SumByDate(rows, aggregate.AnalyticsDate, aggregate.Visits)

	assert.Equal(t, []aggregate.DateValue{
		{Date: "2023-12-31", Value: 7},
		{Date: "2024-01-01", Value: 1},
		{Date: "2024-01-02", Value: 4},
		{Date: "2024-01-03", Value: 7},
	}, got)
}

func TestSumByDateSortsByCalendarNotString(t *testing.T) {
	rows := []records.SearchRecord{
		{Date: "2024-01-10", Clicks: 1},
		{Date: "2024-01-09", Clicks: 2},
		{Date: "12/31/2023", Clicks: 3},
		{Date: "unknown", Clicks: 4},
	}

	got := aggregate.SumByDate(rows, aggregate.SearchDate, aggregate.Clicks)

	require.Len(t, got, 4)
	assert.Equal(t, "12/31/2023", got[0].Date)
	assert.Equal(t, "2024-01-09", got[1].Date)
	assert.Equal(t, "2024-01-10", got[2].Date)
	assert.Equal(t, "unknown", got[3].Date)
}

func TestSumByDateProperties(t *testing.T) {
	var rows []records.AnalyticsRecord
	for i := 0; i < 60; i++ {
		day := []string{"2024-02-01", "2024-01-15", "2024-03-09", "2024-01-01"}[i%4]
		rows = append(rows, analyticsRow(day, "/p", int64(i), records.DeviceDesktop))
	}

	got := aggregate.SumByDate(rows, aggregate.AnalyticsDate, aggregate.Visits)

	seen := map[string]bool{}
	for i, dv := range got {
		assert.False(t, seen[dv.Date], "duplicate date %s", dv.Date)
		seen[dv.Date] = true
		if i > 0 {
			assert.Equal(t, -1, aggregate.CompareDates(got[i-1].Date, dv.Date))
		}
	}
	assert.Len(t, seen, 4)
}

func TestSumByDateEmpty(t *testing.T) {
	got := aggregate.SumByDate(nil, aggregate.AnalyticsDate, aggregate.Visits)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSumByDimension(t *testing.T) {
	rows := []records.AnalyticsRecord{
		analyticsRow("2024-01-01", "/a", 10, records.DeviceMobile),
		analyticsRow("2024-01-01", "/a", 30, records.DeviceDesktop),
		analyticsRow("2024-01-01", "/a", 10, records.DeviceTablet),
		analyticsRow("2024-01-02", "/a", 0, records.DeviceMobile),
	}

	got := aggregate.SumByDimension(rows, aggregate.DeviceOf, aggregate.Visits)

	assert.Equal(t, []aggregate.NameValue{
		{Name: "Desktop", Value: 30},
		{Name: "Mobile", Value: 10},
		{Name: "Tablet", Value: 10},
	}, got, "ties keep first-occurrence order")
}

func TestTopPages(t *testing.T) {
	rows := []records.AnalyticsRecord{
		{Page: "/a", Visits: 10, Orders: 1, Revenue: 5},
		{Page: "/b", Visits: 50, Orders: 2, Revenue: 20},
		{Page: "/a", Visits: 45, Orders: 3, Revenue: 15},
		{Page: "/c", Visits: 1},
	}

	got := aggregate.TopPages(rows, 2)

	assert.Equal(t, []aggregate.PageTotals{
		{Page: "/a", Visits: 55, Orders: 4, Revenue: 20},
		{Page: "/b", Visits: 50, Orders: 2, Revenue: 20},
	}, got)

	assert.Len(t, aggregate.TopPages(rows, 10), 3)
}

func TestTopQueriesAveragesCTRAndPosition(t *testing.T) {
	rows := []records.SearchRecord{
		{Query: "shoes", Clicks: 10, Impressions: 100, CTR: 0.1, Position: 2},
		{Query: "boots", Clicks: 3, Impressions: 50, CTR: 0.06, Position: 8},
		{Query: "shoes", Clicks: 20, Impressions: 400, CTR: 0.05, Position: 4},
	}

	got := aggregate.TopQueries(rows, 10)

	require.Len(t, got, 2)
	assert.Equal(t, "shoes", got[0].Query)
	assert.Equal(t, int64(30), got[0].Clicks)
	assert.Equal(t, int64(500), got[0].Impressions)
	assert.InDelta(t, 0.075, got[0].CTR, 1e-9)
	assert.InDelta(t, 3.0, got[0].Position, 1e-9)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "boots", got[1].Query)
}

func TestRebucket(t *testing.T) {
	series := []aggregate.DateValue{
		{Date: "2024-07-15", Value: 1},
		{Date: "2024-07-17", Value: 2},
		{Date: "2024-07-22", Value: 4},
		{Date: "bogus", Value: 100},
	}

	weekly := aggregate.Rebucket(series, timeframe.BucketSizeWeek)
	assert.Equal(t, []aggregate.DateValue{
		{Date: "2024-07-15", Value: 3},
		{Date: "2024-07-22", Value: 4},
	}, weekly)

	monthly := aggregate.Rebucket(series, timeframe.BucketSizeMonth)
	assert.Equal(t, []aggregate.DateValue{{Date: "2024-07-01", Value: 7}}, monthly)

	assert.Equal(t, series, aggregate.Rebucket(series, timeframe.BucketSizeDay))
}

func TestFoldKeepsFirstOccurrenceOrder(t *testing.T) {
	words := []string{"b", "a", "b", "c", "a"}

	g := aggregate.Fold(words,
		func(s string) string { return s },
		func(string) int { return 0 },
		func(n int, _ string) int { return n + 1 },
	)

	assert.Equal(t, []string{"b", "a", "c"}, g.Keys)
	n, ok := g.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, g.Len())
}

func TestOrderedSet(t *testing.T) {
	var s aggregate.OrderedSet[string]
	assert.Equal(t, []string{}, s.Items())

	s.Add("x")
	s.Add("y")
	s.Add("x")
	assert.Equal(t, []string{"x", "y"}, s.Items())
	assert.Equal(t, 2, s.Len())
}
