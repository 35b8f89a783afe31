package timeframe

import (
	"fmt"
	"time"
)

// Range is an inclusive calendar-day window. A zero bound is open.
type Range struct {
	From time.Time
	To   time.Time
}

// ParseRange builds a Range from optional from/to day strings.
func ParseRange(from, to string) (Range, error) {
	var r Range
	if from != "" {
		t, ok := ParseDay(from)
		if !ok {
			return Range{}, fmt.Errorf("invalid from date %q", from)
		}
		r.From = TruncateToBucket(t, BucketSizeDay)
	}
	if to != "" {
		t, ok := ParseDay(to)
		if !ok {
			return Range{}, fmt.Errorf("invalid to date %q", to)
		}
		r.To = TruncateToBucket(t, BucketSizeDay)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return Range{}, fmt.Errorf("to date %s is before from date %s",
			r.To.Format(DayLayout), r.From.Format(DayLayout))
	}
	return r, nil
}

// IsZero reports whether the range has no bounds.
func (r Range) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether the day of t falls within the range.
func (r Range) Contains(t time.Time) bool {
	day := TruncateToBucket(t, BucketSizeDay)
	if !r.From.IsZero() && day.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && day.After(r.To) {
		return false
	}
	return true
}

// ContainsDate parses s and checks it against the range. Unparseable dates
// only match an unbounded range.
func (r Range) ContainsDate(s string) bool {
	if r.IsZero() {
		return true
	}
	t, ok := ParseDay(s)
	if !ok {
		return false
	}
	return r.Contains(t)
}

// Key is a stable string form used for cache keys.
func (r Range) Key() string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "*"
		}
		return t.Format(DayLayout)
	}
	return format(r.From) + ".." + format(r.To)
}
