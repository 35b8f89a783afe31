package insights

import (
	"slices"
	"time"

	"searchlens/internal/aggregate"
	"searchlens/internal/records"
)

const rankRiskLimit = 15

// RankRisk is a page/query pair whose position got worse between its oldest
// and most recent observation.
type RankRisk struct {
	Page                string  `json:"page"`
	Query               string  `json:"query"`
	PreviousPosition    float64 `json:"previousPosition"`
	CurrentPosition     float64 `json:"currentPosition"`
	PositionDelta       float64 `json:"positionDelta"`
	RevenuePerClick     float64 `json:"revenuePerClick"`
	CurrentRevenue      float64 `json:"currentRevenue"`
	RevenueRisk         float64 `json:"revenueRisk"`
	WeeklyRevenueImpact float64 `json:"weeklyRevenueImpact"`
}

type pageQuery struct {
	page  string
	query string
}

type observation struct {
	day      time.Time
	dated    bool
	position float64
	revenue  float64
	clicks   int64
}

// RankLossRisk compares the most recent and the oldest observation of every
// page/query pair seen at least twice. Only pairs that lost rank are kept;
// the top 15 by revenue at risk are returned.
func RankLossRisk(joined []records.JoinedRecord) []RankRisk {
	groups := aggregate.Fold(joined,
		func(r records.JoinedRecord) pageQuery { return pageQuery{page: r.Page, query: r.Query} },
		func(records.JoinedRecord) []observation { return nil },
		func(acc []observation, r records.JoinedRecord) []observation {
			day, ok := r.Day()
			return append(acc, observation{day: day, dated: ok, position: r.Position, revenue: r.Revenue, clicks: r.Clicks})
		},
	)

	out := []RankRisk{}
	for _, key := range groups.Keys {
		obs := groups.Values[key]
		if len(obs) < 2 {
			continue
		}
		slices.SortStableFunc(obs, newestFirst)
		recent, previous := obs[0], obs[len(obs)-1]

		delta := recent.position - previous.position
		if delta <= 0 {
			continue
		}
		rpc := records.Ratio(recent.revenue, float64(recent.clicks))
		risk := delta * rpc
		out = append(out, RankRisk{
			Page:                key.page,
			Query:               key.query,
			PreviousPosition:    previous.position,
			CurrentPosition:     recent.position,
			PositionDelta:       delta,
			RevenuePerClick:     rpc,
			CurrentRevenue:      recent.revenue,
			RevenueRisk:         risk,
			WeeklyRevenueImpact: risk * 7,
		})
	}
	return aggregate.Top(out, rankRiskLimit, func(r RankRisk) float64 { return r.RevenueRisk })
}

// newestFirst orders dated observations newest first; undated ones go last.
func newestFirst(a, b observation) int {
	switch {
	case a.dated && b.dated:
		return b.day.Compare(a.day)
	case a.dated:
		return -1
	case b.dated:
		return 1
	default:
		return 0
	}
}
