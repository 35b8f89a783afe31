// Package records defines the normalized analytics and search console rows
// the rest of the engine computes over.
package records

import (
	"time"

	"searchlens/internal/timeframe"
)

// Device is the device category reported by web analytics.
type Device string

// Known devices
const (
	DeviceDesktop Device = "Desktop"
	DeviceMobile  Device = "Mobile"
	DeviceTablet  Device = "Tablet"
	DeviceUnknown Device = "Unknown"
)

// Channel is the acquisition channel reported by web analytics.
type Channel string

// Known channels
const (
	ChannelOrganicSearch Channel = "Organic Search"
	ChannelPaidSearch    Channel = "Paid Search"
	ChannelDirect        Channel = "Direct"
	ChannelReferral      Channel = "Referral"
	ChannelEmail         Channel = "Email"
	ChannelSocial        Channel = "Social"
	ChannelUnknown       Channel = "Unknown"
)

// AnalyticsRecord is one web analytics row for a page on a day.
type AnalyticsRecord struct {
	Date    string  `json:"date"`
	Page    string  `json:"page"`
	Visits  int64   `json:"visits"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
	Device  Device  `json:"device"`
	Channel Channel `json:"channel"`
}

// ConversionRate returns orders per visit as a percentage.
func (r AnalyticsRecord) ConversionRate() float64 {
	return Percent(float64(r.Orders), float64(r.Visits))
}

// RevenuePerVisit returns revenue divided by visits.
func (r AnalyticsRecord) RevenuePerVisit() float64 {
	return Ratio(r.Revenue, float64(r.Visits))
}

// Day parses the record date.
func (r AnalyticsRecord) Day() (time.Time, bool) {
	return timeframe.ParseDay(r.Date)
}

// SearchRecord is one search console row for a query landing on a page on a day.
type SearchRecord struct {
	Date        string  `json:"date"`
	Page        string  `json:"page"`
	Query       string  `json:"query"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

// Day parses the record date.
func (r SearchRecord) Day() (time.Time, bool) {
	return timeframe.ParseDay(r.Date)
}

// JoinedRecord is a search console row extended with the analytics figures of
// a row sharing its page and date, or zeros when none exists.
type JoinedRecord struct {
	SearchRecord
	Visits  int64   `json:"visits"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
	Device  Device  `json:"device"`
	Channel Channel `json:"channel"`
}

// Search returns the search console part of the joined record.
func (r JoinedRecord) Search() SearchRecord {
	return r.SearchRecord
}

// RevenuePerClick returns revenue divided by clicks.
func (r JoinedRecord) RevenuePerClick() float64 {
	return Ratio(r.Revenue, float64(r.Clicks))
}

// Set holds both normalized datasets.
type Set struct {
	Analytics []AnalyticsRecord `json:"analytics"`
	Search    []SearchRecord    `json:"search"`
}

// Len returns the total number of records in the set.
func (s Set) Len() int {
	return len(s.Analytics) + len(s.Search)
}

// Ratio divides a by b and returns 0 when b is 0.
func Ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Percent returns a/b*100, or 0 when b is 0.
func Percent(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b * 100
}

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
