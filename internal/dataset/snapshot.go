package dataset

import (
	"time"

	"searchlens/internal/join"
	"searchlens/internal/records"
)

// Snapshot is one immutable, fully joined load of both datasets. Nothing
// mutates a snapshot after it is published.
type Snapshot struct {
	ID        string                  `json:"id"`
	LoadedAt  time.Time               `json:"loadedAt"`
	Records   records.Set             `json:"-"`
	Joined    []records.JoinedRecord  `json:"-"`
	JoinStats join.Stats              `json:"joinStats"`
	Metadata  map[Kind]Metadata       `json:"metadata"`
	Reports   map[Kind]records.Report `json:"reports"`
}

// BuildSnapshot normalizes both payloads and joins them.
func BuildSnapshot(id string, loadedAt time.Time, analytics, search Payload) *Snapshot {
	analyticsRecords, analyticsReport := records.NormalizeAnalyticsRows(analytics.Rows)
	searchRecords, searchReport := records.NormalizeSearchRows(search.Rows)

	idx := join.NewIndex(analyticsRecords)
	return &Snapshot{
		ID:       id,
		LoadedAt: loadedAt,
		Records: records.Set{
			Analytics: analyticsRecords,
			Search:    searchRecords,
		},
		Joined:    idx.Join(searchRecords),
		JoinStats: idx.Describe(searchRecords),
		Metadata: map[Kind]Metadata{
			KindAnalytics: analytics.Metadata,
			KindSearch:    search.Metadata,
		},
		Reports: map[Kind]records.Report{
			KindAnalytics: analyticsReport,
			KindSearch:    searchReport,
		},
	}
}

