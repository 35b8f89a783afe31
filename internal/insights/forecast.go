package insights

import (
	"searchlens/internal/aggregate"
	"searchlens/internal/records"
)

const (
	ctrOpportunityLimit       = 20
	ctrOpportunityMaxPosition = 10
	upliftLimit               = 20
)

// ForecastPolicy decides which rows an uplift forecast applies to and what
// click-through rate they could reach.
type ForecastPolicy interface {
	// Eligible reports whether a row at position could move up.
	Eligible(position float64) bool
	// TargetPosition is the position the forecast assumes is reached.
	TargetPosition() float64
	// ProjectedCTR is the CTR assumed at the target position given the
	// site-wide average.
	ProjectedCTR(siteCTR float64) float64
}

// DefaultForecastPolicy assumes rows below position 3 can reach position 3,
// where CTR is twice the site average.
type DefaultForecastPolicy struct{}

// Eligible is true for rows below the target position.
func (DefaultForecastPolicy) Eligible(position float64) bool {
	return position > 3
}

// TargetPosition returns 3.
func (DefaultForecastPolicy) TargetPosition() float64 {
	return 3
}

// ProjectedCTR doubles the site CTR.
func (DefaultForecastPolicy) ProjectedCTR(siteCTR float64) float64 {
	return siteCTR * 2
}

// CTROpportunity is a first-page row whose CTR is below the site average.
type CTROpportunity struct {
	Page               string  `json:"page"`
	Query              string  `json:"query"`
	CurrentCTR         float64 `json:"currentCTR"`
	SiteAvgCTR         float64 `json:"siteAvgCTR"`
	Position           float64 `json:"position"`
	Impressions        int64   `json:"impressions"`
	Clicks             int64   `json:"clicks"`
	Revenue            float64 `json:"revenue"`
	PotentialClicks    float64 `json:"potentialClicks"`
	PotentialRevenue   float64 `json:"potentialRevenue"`
	Opportunity        float64 `json:"opportunity"`
	RevenueOpportunity float64 `json:"revenueOpportunity"`
}

// CTROpportunities finds rows in the top 10 positions whose CTR is below the
// site average and ranks them by the revenue the missing clicks could bring.
func CTROpportunities(joined []records.JoinedRecord) []CTROpportunity {
	siteCTR := SiteAverageCTR(joined)
	out := []CTROpportunity{}
	for _, r := range joined {
		if r.Position > ctrOpportunityMaxPosition || r.CTR >= siteCTR {
			continue
		}
		// revenue per click with at least one click in the denominator
		rpc := r.Revenue / float64(max(r.Clicks, 1))
		potential := float64(r.Impressions) * siteCTR
		opportunity := potential - float64(r.Clicks)
		out = append(out, CTROpportunity{
			Page:               r.Page,
			Query:              r.Query,
			CurrentCTR:         r.CTR,
			SiteAvgCTR:         siteCTR,
			Position:           r.Position,
			Impressions:        r.Impressions,
			Clicks:             r.Clicks,
			Revenue:            r.Revenue,
			PotentialClicks:    potential,
			PotentialRevenue:   potential * rpc,
			Opportunity:        opportunity,
			RevenueOpportunity: opportunity * rpc,
		})
	}
	return aggregate.Top(out, ctrOpportunityLimit, func(o CTROpportunity) float64 { return o.RevenueOpportunity })
}

// UpliftForecast projects the revenue of a row if it reached the target
// position.
type UpliftForecast struct {
	Page               string  `json:"page"`
	Query              string  `json:"query"`
	CurrentPosition    float64 `json:"currentPosition"`
	CurrentClicks      int64   `json:"currentClicks"`
	CurrentRevenue     float64 `json:"currentRevenue"`
	ProjectedPosition  float64 `json:"projectedPosition"`
	ProjectedClicks    float64 `json:"projectedClicks"`
	ProjectedRevenue   float64 `json:"projectedRevenue"`
	RevenueUplift      float64 `json:"revenueUplift"`
	PercentageIncrease float64 `json:"percentageIncrease"`
}

// RevenueUpliftForecast applies the engine's forecast policy to every
// eligible row and returns the top 20 positive uplifts.
func (e *Engine) RevenueUpliftForecast(joined []records.JoinedRecord) []UpliftForecast {
	return ForecastUplift(joined, e.policy)
}

// ForecastUplift projects revenue for eligible rows under policy. Rows
// without clicks use the site revenue per click.
func ForecastUplift(joined []records.JoinedRecord, policy ForecastPolicy) []UpliftForecast {
	siteCTR := SiteAverageCTR(joined)
	siteRPC := SiteRevenuePerClick(joined)
	projectedCTR := policy.ProjectedCTR(siteCTR)

	out := []UpliftForecast{}
	for _, r := range joined {
		if !policy.Eligible(r.Position) {
			continue
		}
		rpc := siteRPC
		if r.Clicks > 0 {
			rpc = r.RevenuePerClick()
		}
		projectedClicks := float64(r.Impressions) * projectedCTR
		projectedRevenue := projectedClicks * rpc
		uplift := projectedRevenue - r.Revenue
		if uplift <= 0 {
			continue
		}
		out = append(out, UpliftForecast{
			Page:               r.Page,
			Query:              r.Query,
			CurrentPosition:    r.Position,
			CurrentClicks:      r.Clicks,
			CurrentRevenue:     r.Revenue,
			ProjectedPosition:  policy.TargetPosition(),
			ProjectedClicks:    projectedClicks,
			ProjectedRevenue:   projectedRevenue,
			RevenueUplift:      uplift,
			PercentageIncrease: records.Percent(uplift, r.Revenue),
		})
	}
	return aggregate.Top(out, upliftLimit, func(u UpliftForecast) float64 { return u.RevenueUplift })
}
