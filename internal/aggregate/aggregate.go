package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"searchlens/internal/records"
	"searchlens/internal/timeframe"
)

// DateValue is a summed value for one date.
type DateValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// NameValue is a summed value for one dimension value.
type NameValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// SumByDate sums value per exact date string and returns one entry per
// distinct date, ascending by calendar day. Dates that cannot be parsed sort
// after all parseable ones, by string.
func SumByDate[T any](items []T, date func(T) string, value func(T) float64) []DateValue {
	groups := Fold(items, date,
		func(T) float64 { return 0 },
		func(acc float64, item T) float64 { return acc + value(item) },
	)
	out := Collect(groups, func(d string, v float64) DateValue {
		return DateValue{Date: d, Value: v}
	})
	slices.SortFunc(out, func(a, b DateValue) int {
		return CompareDates(a.Date, b.Date)
	})
	return out
}

// SumByDimension sums value per dimension value and sorts descending by the
// sum. Ties keep first-occurrence order.
func SumByDimension[T any](items []T, dimension func(T) string, value func(T) float64) []NameValue {
	groups := Fold(items, dimension,
		func(T) float64 { return 0 },
		func(acc float64, item T) float64 { return acc + value(item) },
	)
	out := Collect(groups, func(name string, v float64) NameValue {
		return NameValue{Name: name, Value: v}
	})
	slices.SortStableFunc(out, func(a, b NameValue) int {
		return cmp.Compare(b.Value, a.Value)
	})
	return out
}

// CompareDates orders two export dates by calendar day.
func CompareDates(a, b string) int {
	ta, okA := timeframe.ParseDay(a)
	tb, okB := timeframe.ParseDay(b)
	switch {
	case okA && okB:
		if c := ta.Compare(tb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Rebucket merges a daily series into coarser buckets labelled by the
// bucket start day. Unparseable dates are dropped.
func Rebucket(series []DateValue, size timeframe.BucketSize) []DateValue {
	if size == timeframe.BucketSizeDay || size == "" {
		return series
	}
	type point struct {
		day   time.Time
		value float64
	}
	var points []point
	for _, dv := range series {
		if day, ok := timeframe.ParseDay(dv.Date); ok {
			points = append(points, point{day: timeframe.TruncateToBucket(day, size), value: dv.Value})
		}
	}
	return SumByDate(points,
		func(p point) string { return p.day.Format(timeframe.DayLayout) },
		func(p point) float64 { return p.value },
	)
}

// Visits returns the visits of an analytics row.
func Visits(r records.AnalyticsRecord) float64 { return float64(r.Visits) }

// Orders returns the orders of an analytics row.
func Orders(r records.AnalyticsRecord) float64 { return float64(r.Orders) }

// Revenue returns the revenue of an analytics row.
func Revenue(r records.AnalyticsRecord) float64 { return r.Revenue }

// Clicks returns the clicks of a search row.
func Clicks(r records.SearchRecord) float64 { return float64(r.Clicks) }

// Impressions returns the impressions of a search row.
func Impressions(r records.SearchRecord) float64 { return float64(r.Impressions) }

// AnalyticsDate returns the raw date of an analytics row.
func AnalyticsDate(r records.AnalyticsRecord) string { return r.Date }

// SearchDate returns the raw date of a search row.
func SearchDate(r records.SearchRecord) string { return r.Date }

// DeviceOf returns the device category of an analytics row.
func DeviceOf(r records.AnalyticsRecord) string { return string(r.Device) }

// ChannelOf returns the channel of an analytics row.
func ChannelOf(r records.AnalyticsRecord) string { return string(r.Channel) }
