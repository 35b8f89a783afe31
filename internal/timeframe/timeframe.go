package timeframe

import (
	"math"
	"strings"
	"time"
)

// DayLayout is the canonical calendar day format of the exports.
const DayLayout = "2006-01-02"

// Day is the length of a calendar day.
const Day = 24 * time.Hour

// BucketSize is the granularity used when re-bucketing daily series.
type BucketSize string

const (
	BucketSizeDay   BucketSize = "day"
	BucketSizeWeek  BucketSize = "week"
	BucketSizeMonth BucketSize = "month"
	BucketSizeYear  BucketSize = "year"
)

// ParseBucketSize validates a bucket name, defaulting to day when empty.
func ParseBucketSize(s string) (BucketSize, bool) {
	switch BucketSize(strings.ToLower(strings.TrimSpace(s))) {
	case "", BucketSizeDay:
		return BucketSizeDay, true
	case BucketSizeWeek:
		return BucketSizeWeek, true
	case BucketSizeMonth:
		return BucketSizeMonth, true
	case BucketSizeYear:
		return BucketSizeYear, true
	default:
		return "", false
	}
}

type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider uses the system clock.
type DefaultTimeProvider struct{}

// Now returns the current time in loc.
func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// FixedTimeProvider always returns the same instant; used by tests and the CLI.
type FixedTimeProvider struct {
	At time.Time
}

// Now returns the fixed instant in loc.
func (p FixedTimeProvider) Now(loc *time.Location) time.Time {
	return p.At.In(loc)
}

// dayLayouts are tried in order. Dates without a zone are read as UTC
// midnight.
var dayLayouts = []string{
	DayLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"20060102",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDay parses an export date. It reports false for empty or
// unrecognised values.
func ParseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// CeilDays returns the duration from a to b in days, rounded up.
func CeilDays(a, b time.Time) int {
	return int(math.Ceil(b.Sub(a).Hours() / 24))
}

// TruncateToBucket truncates a time to the start of its bucket in UTC.
// Weeks start on Monday.
func TruncateToBucket(t time.Time, bucketSize BucketSize) time.Time {
	utc := t.UTC()
	year, month, day := utc.Year(), utc.Month(), utc.Day()

	switch bucketSize {
	case BucketSizeYear:
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	case BucketSizeMonth:
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	case BucketSizeWeek:
		weekday := int(utc.Weekday())
		if weekday == 0 { // Sunday
			weekday = 7
		}
		daysToSubtract := weekday - 1
		return time.Date(year, month, day-daysToSubtract, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}
}
