package analytics

import (
	"fmt"
	"math"
	"time"

	"searchlens/internal/records"
	"searchlens/internal/timeframe"
)

// Trend is the change of a metric between the first and second half of the
// loaded date range.
type Trend struct {
	Change    float64 `json:"change"`
	Timeframe string  `json:"timeframe"`
}

// Trends holds half-over-half changes for the key analytics metrics
type Trends struct {
	Visits         Trend `json:"visits"`
	Orders         Trend `json:"orders"`
	Revenue        Trend `json:"revenue"`
	ConversionRate Trend `json:"conversionRate"`
}

// PercentageChange returns (current-previous)/previous*100, or 0 when there
// is no previous value to compare against.
func PercentageChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// SplitAtMidpoint divides analytics rows into those on or before the middle
// of the date range and those after it. Rows with unparseable dates are in
// neither half.
func SplitAtMidpoint(rows []records.AnalyticsRecord, dr DateRange) (first, second []records.AnalyticsRecord) {
	totalDays := dr.Days()
	midpoint := dr.Start.Add(time.Duration(float64(totalDays) / 2 * float64(timeframe.Day)))
	for _, r := range rows {
		day, ok := r.Day()
		if !ok {
			continue
		}
		if day.After(midpoint) {
			second = append(second, r)
		} else {
			first = append(first, r)
		}
	}
	return first, second
}

// CalculateTrends compares the second half of the loaded range against the
// first half.
func CalculateTrends(set records.Set) Trends {
	dr, ok := DateRangeOf(set)
	if !ok {
		label := timeframeLabel(0)
		return Trends{
			Visits:         Trend{Timeframe: label},
			Orders:         Trend{Timeframe: label},
			Revenue:        Trend{Timeframe: label},
			ConversionRate: Trend{Timeframe: label},
		}
	}

	first, second := SplitAtMidpoint(set.Analytics, dr)
	prev := SumAnalytics(first)
	curr := SumAnalytics(second)
	label := timeframeLabel(dr.Days())

	return Trends{
		Visits: Trend{
			Change:    PercentageChange(float64(curr.TotalVisits), float64(prev.TotalVisits)),
			Timeframe: label,
		},
		Orders: Trend{
			Change:    PercentageChange(float64(curr.TotalOrders), float64(prev.TotalOrders)),
			Timeframe: label,
		},
		Revenue: Trend{
			Change:    PercentageChange(curr.TotalRevenue, prev.TotalRevenue),
			Timeframe: label,
		},
		ConversionRate: Trend{
			Change:    PercentageChange(curr.AvgConversionRate, prev.AvgConversionRate),
			Timeframe: label,
		},
	}
}

func timeframeLabel(totalDays int) string {
	return fmt.Sprintf("%d days", int(math.Ceil(float64(totalDays)/2)))
}

// Dashboard is the summary plus trends shown on the overview page.
type Dashboard struct {
	Summary
	Trends Trends `json:"trends"`
}

// BuildDashboard computes the summary and trends as of now.
func BuildDashboard(set records.Set, now time.Time) Dashboard {
	return Dashboard{
		Summary: Summarize(set, now),
		Trends:  CalculateTrends(set),
	}
}
