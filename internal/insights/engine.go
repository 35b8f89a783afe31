// Package insights derives the advanced revenue and search insights from
// joined analytics and search console records.
package insights

import (
	"errors"
	"fmt"
	"slices"

	"searchlens/internal/records"
)

// ErrUnknownInsight is returned when an insight name is not registered.
var ErrUnknownInsight = errors.New("unknown insight")

// Insight names accepted by Engine.Compute.
const (
	NameRPI              = "rpi"
	NameCTROpportunities = "ctr-opportunities"
	NameRankRisk         = "rank-risk"
	NameFunnel           = "funnel"
	NameDevices          = "devices"
	NameBrand            = "brand"
	NameClusters         = "clusters"
	NameRevenueShare     = "revenue-share"
	NameIntentGap        = "intent-gap"
	NameUplift           = "uplift"
)

// Names lists every insight in presentation order.
var Names = []string{
	NameRPI,
	NameCTROpportunities,
	NameRankRisk,
	NameFunnel,
	NameDevices,
	NameBrand,
	NameClusters,
	NameRevenueShare,
	NameIntentGap,
	NameUplift,
}

// Engine computes insights with a brand keyword list and a forecast policy.
// It holds no data and is safe for concurrent use.
type Engine struct {
	brand  BrandClassifier
	policy ForecastPolicy
}

// Option configures an Engine.
type Option func(*Engine)

// WithForecastPolicy replaces the default uplift forecast policy.
func WithForecastPolicy(p ForecastPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// NewEngine creates an engine classifying brand queries by brandKeywords.
func NewEngine(brandKeywords []string, opts ...Option) *Engine {
	e := &Engine{
		brand:  NewBrandClassifier(brandKeywords),
		policy: DefaultForecastPolicy{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BrandKeywords returns the keywords the engine classifies with.
func (e *Engine) BrandKeywords() []string {
	return e.brand.Keywords()
}

// Report holds every insight.
type Report struct {
	RevenuePerImpression []QueryRPI       `json:"rpi"`
	CTROpportunities     []CTROpportunity `json:"ctrOpportunities"`
	RankRisk             []RankRisk       `json:"rankRisk"`
	Funnel               []QueryFunnel    `json:"funnel"`
	Devices              DeviceDisparity  `json:"devices"`
	Brand                BrandSplit       `json:"brand"`
	Clusters             []PageCluster    `json:"clusters"`
	RevenueShare         []RevenueShare   `json:"revenueShare"`
	IntentGap            []IntentGap      `json:"intentGap"`
	Uplift               []UpliftForecast `json:"uplift"`
}

// All computes every insight over joined.
func (e *Engine) All(joined []records.JoinedRecord) Report {
	return Report{
		RevenuePerImpression: RevenuePerImpression(joined),
		CTROpportunities:     CTROpportunities(joined),
		RankRisk:             RankLossRisk(joined),
		Funnel:               QueryRevenueFunnel(joined),
		Devices:              DeviceDisparityAnalysis(joined),
		Brand:                e.BrandVsNonBrand(joined),
		Clusters:             PageClusters(joined),
		RevenueShare:         RevenueShareAnalysis(joined),
		IntentGap:            QueryIntentGap(joined),
		Uplift:               e.RevenueUpliftForecast(joined),
	}
}

// Compute runs one insight by name.
func (e *Engine) Compute(name string, joined []records.JoinedRecord) (any, error) {
	switch name {
	case NameRPI:
		return RevenuePerImpression(joined), nil
	case NameCTROpportunities:
		return CTROpportunities(joined), nil
	case NameRankRisk:
		return RankLossRisk(joined), nil
	case NameFunnel:
		return QueryRevenueFunnel(joined), nil
	case NameDevices:
		return DeviceDisparityAnalysis(joined), nil
	case NameBrand:
		return e.BrandVsNonBrand(joined), nil
	case NameClusters:
		return PageClusters(joined), nil
	case NameRevenueShare:
		return RevenueShareAnalysis(joined), nil
	case NameIntentGap:
		return QueryIntentGap(joined), nil
	case NameUplift:
		return e.RevenueUpliftForecast(joined), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInsight, name)
	}
}

// IsKnown reports whether name is a registered insight.
func IsKnown(name string) bool {
	return slices.Contains(Names, name)
}

// SiteAverageCTR is total clicks over total impressions across joined rows.
func SiteAverageCTR(joined []records.JoinedRecord) float64 {
	var clicks, impressions int64
	for _, r := range joined {
		clicks += r.Clicks
		impressions += r.Impressions
	}
	return records.Ratio(float64(clicks), float64(impressions))
}

// SiteRevenuePerClick is total revenue over total clicks across joined rows.
func SiteRevenuePerClick(joined []records.JoinedRecord) float64 {
	var revenue float64
	var clicks int64
	for _, r := range joined {
		revenue += r.Revenue
		clicks += r.Clicks
	}
	return records.Ratio(revenue, float64(clicks))
}
