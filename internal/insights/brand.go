package insights

import (
	"strings"

	"golang.org/x/text/cases"

	"searchlens/internal/aggregate"
	"searchlens/internal/records"
)

const brandTopQueries = 10

// BrandClassifier tells brand queries from generic ones by case-insensitive
// substring match against a keyword list.
type BrandClassifier struct {
	keywords []string
	folded   []string
}

// NewBrandClassifier builds a classifier. Blank keywords are ignored since
// they would match every query.
func NewBrandClassifier(keywords []string) BrandClassifier {
	c := BrandClassifier{keywords: []string{}, folded: []string{}}
	fold := cases.Fold()
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		c.keywords = append(c.keywords, k)
		c.folded = append(c.folded, fold.String(k))
	}
	return c
}

// Keywords returns the configured keywords.
func (c BrandClassifier) Keywords() []string {
	return append([]string{}, c.keywords...)
}

// IsBrand reports whether query contains any brand keyword.
func (c BrandClassifier) IsBrand(query string) bool {
	if len(c.folded) == 0 {
		return false
	}
	// a Caser keeps state, so each call gets its own
	q := cases.Fold().String(query)
	for _, k := range c.folded {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

// BrandQuery is one search row inside a brand bucket.
type BrandQuery struct {
	Query       string  `json:"query"`
	Revenue     float64 `json:"revenue"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	RPI         float64 `json:"rpi"`
}

// BrandBucket totals the rows on one side of the brand split.
type BrandBucket struct {
	// Queries counts rows, not distinct queries.
	Queries     int          `json:"queries"`
	Impressions int64        `json:"impressions"`
	Clicks      int64        `json:"clicks"`
	Visits      int64        `json:"visits"`
	Orders      int64        `json:"orders"`
	Revenue     float64      `json:"revenue"`
	AvgPosition float64      `json:"avgPosition"`
	RPI         float64      `json:"rpi"`
	CTR         float64      `json:"ctr"`
	CVR         float64      `json:"cvr"`
	TopQueries  []BrandQuery `json:"topQueries"`
}

// BrandSplit separates brand from non-brand search traffic.
type BrandSplit struct {
	Brand    BrandBucket `json:"brand"`
	NonBrand BrandBucket `json:"nonBrand"`
}

// BrandVsNonBrand splits joined rows with the engine's brand keywords.
func (e *Engine) BrandVsNonBrand(joined []records.JoinedRecord) BrandSplit {
	return SplitBrand(joined, e.brand)
}

// SplitBrand classifies every row with c and totals each side.
func SplitBrand(joined []records.JoinedRecord, c BrandClassifier) BrandSplit {
	var brand, nonBrand []records.JoinedRecord
	for _, r := range joined {
		if c.IsBrand(r.Query) {
			brand = append(brand, r)
		} else {
			nonBrand = append(nonBrand, r)
		}
	}
	return BrandSplit{
		Brand:    brandBucket(brand),
		NonBrand: brandBucket(nonBrand),
	}
}

func brandBucket(rows []records.JoinedRecord) BrandBucket {
	b := BrandBucket{Queries: len(rows)}
	positions := make([]float64, 0, len(rows))
	queries := make([]BrandQuery, 0, len(rows))
	for _, r := range rows {
		b.Impressions += r.Impressions
		b.Clicks += r.Clicks
		b.Visits += r.Visits
		b.Orders += r.Orders
		b.Revenue += r.Revenue
		positions = append(positions, r.Position)
		queries = append(queries, BrandQuery{
			Query:       r.Query,
			Revenue:     r.Revenue,
			Clicks:      r.Clicks,
			Impressions: r.Impressions,
			RPI:         records.Ratio(r.Revenue, float64(r.Impressions)),
		})
	}
	b.AvgPosition = records.Mean(positions)
	b.RPI = records.Ratio(b.Revenue, float64(b.Impressions))
	b.CTR = records.Percent(float64(b.Clicks), float64(b.Impressions))
	b.CVR = records.Percent(float64(b.Orders), float64(b.Visits))
	b.TopQueries = aggregate.Top(queries, brandTopQueries, func(q BrandQuery) float64 { return q.RPI })
	return b
}
