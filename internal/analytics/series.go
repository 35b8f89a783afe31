package analytics

import (
	"searchlens/internal/aggregate"
	"searchlens/internal/records"
	"searchlens/internal/timeframe"
)

// TimeSeries holds the four date-aggregated chart series.
type TimeSeries struct {
	Visits      []aggregate.DateValue `json:"visits"`
	Revenue     []aggregate.DateValue `json:"revenue"`
	Clicks      []aggregate.DateValue `json:"clicks"`
	Impressions []aggregate.DateValue `json:"impressions"`
}

// BuildTimeSeries sums visits and revenue from analytics and clicks and
// impressions from search console per date, optionally re-bucketed.
func BuildTimeSeries(set records.Set, bucket timeframe.BucketSize) TimeSeries {
	return TimeSeries{
		Visits:      aggregate.Rebucket(aggregate.SumByDate(set.Analytics, aggregate.AnalyticsDate, aggregate.Visits), bucket),
		Revenue:     aggregate.Rebucket(aggregate.SumByDate(set.Analytics, aggregate.AnalyticsDate, aggregate.Revenue), bucket),
		Clicks:      aggregate.Rebucket(aggregate.SumByDate(set.Search, aggregate.SearchDate, aggregate.Clicks), bucket),
		Impressions: aggregate.Rebucket(aggregate.SumByDate(set.Search, aggregate.SearchDate, aggregate.Impressions), bucket),
	}
}

// Breakdown holds visits by device and by channel.
type Breakdown struct {
	Device  []aggregate.NameValue `json:"device"`
	Channel []aggregate.NameValue `json:"channel"`
}

// BuildBreakdown sums analytics visits per device and per channel.
func BuildBreakdown(set records.Set) Breakdown {
	return Breakdown{
		Device:  aggregate.SumByDimension(set.Analytics, aggregate.DeviceOf, aggregate.Visits),
		Channel: aggregate.SumByDimension(set.Analytics, aggregate.ChannelOf, aggregate.Visits),
	}
}

// Filter keeps the rows of both datasets whose date falls within r.
func Filter(set records.Set, r timeframe.Range) records.Set {
	if r.IsZero() {
		return set
	}
	out := records.Set{
		Analytics: make([]records.AnalyticsRecord, 0, len(set.Analytics)),
		Search:    make([]records.SearchRecord, 0, len(set.Search)),
	}
	for _, a := range set.Analytics {
		if r.ContainsDate(a.Date) {
			out.Analytics = append(out.Analytics, a)
		}
	}
	for _, s := range set.Search {
		if r.ContainsDate(s.Date) {
			out.Search = append(out.Search, s)
		}
	}
	return out
}
