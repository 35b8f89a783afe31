// Package join combines search console rows with the analytics rows that
// share their page and date.
package join

import "searchlens/internal/records"

// Key identifies the analytics rows a search row can match.
type Key struct {
	Page string
	Date string
}

// Index maps a page and date to every analytics row with that key.
type Index map[Key][]records.AnalyticsRecord

// NewIndex indexes analytics rows by page and date. Rows sharing a key, for
// example one per device, are all kept in input order.
func NewIndex(analytics []records.AnalyticsRecord) Index {
	idx := make(Index, len(analytics))
	for _, a := range analytics {
		k := Key{Page: a.Page, Date: a.Date}
		idx[k] = append(idx[k], a)
	}
	return idx
}

// Matches returns the analytics rows for page and date.
func (idx Index) Matches(page, date string) []records.AnalyticsRecord {
	return idx[Key{Page: page, Date: date}]
}

// Join emits, for every search row, one joined record per matching analytics
// row, or a single zero-filled record with Unknown device and channel when
// nothing matches. Analytics rows without a search row are not emitted.
func Join(analytics []records.AnalyticsRecord, search []records.SearchRecord) []records.JoinedRecord {
	return NewIndex(analytics).Join(search)
}

// Join runs the join against a prebuilt index.
func (idx Index) Join(search []records.SearchRecord) []records.JoinedRecord {
	out := make([]records.JoinedRecord, 0, len(search))
	for _, s := range search {
		matches := idx.Matches(s.Page, s.Date)
		if len(matches) == 0 {
			out = append(out, Unmatched(s))
			continue
		}
		for _, a := range matches {
			out = append(out, Matched(s, a))
		}
	}
	return out
}

// Matched builds the joined record for a search row and one analytics match.
func Matched(s records.SearchRecord, a records.AnalyticsRecord) records.JoinedRecord {
	device := a.Device
	if device == "" {
		device = records.DeviceUnknown
	}
	channel := a.Channel
	if channel == "" {
		channel = records.ChannelUnknown
	}
	return records.JoinedRecord{
		SearchRecord: s,
		Visits:       a.Visits,
		Orders:       a.Orders,
		Revenue:      a.Revenue,
		Device:       device,
		Channel:      channel,
	}
}

// Unmatched builds the zero-filled joined record for a search row.
func Unmatched(s records.SearchRecord) records.JoinedRecord {
	return records.JoinedRecord{
		SearchRecord: s,
		Device:       records.DeviceUnknown,
		Channel:      records.ChannelUnknown,
	}
}

// IsUnmatched reports whether r carries no analytics data.
func IsUnmatched(r records.JoinedRecord) bool {
	return r.Visits == 0 && r.Device == records.DeviceUnknown
}

// SearchRows strips the analytics fields from joined records.
func SearchRows(joined []records.JoinedRecord) []records.SearchRecord {
	out := make([]records.SearchRecord, 0, len(joined))
	for _, r := range joined {
		out = append(out, r.Search())
	}
	return out
}

// Stats describes the shape of a join result.
type Stats struct {
	SearchRows int `json:"searchRows"`
	JoinedRows int `json:"joinedRows"`
	Matched    int `json:"matched"`
	Unmatched  int `json:"unmatched"`
	FanOut     int `json:"fanOut"`
}

// Describe counts how search rows were joined against idx.
func (idx Index) Describe(search []records.SearchRecord) Stats {
	st := Stats{SearchRows: len(search)}
	for _, s := range search {
		n := len(idx.Matches(s.Page, s.Date))
		switch {
		case n == 0:
			st.Unmatched++
			st.JoinedRows++
		default:
			st.Matched++
			st.JoinedRows += n
			if n > 1 {
				st.FanOut++
			}
		}
	}
	return st
}
