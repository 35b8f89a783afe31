// Package seeder writes realistic sample analytics and Search Console
// exports for local development and demos.
package seeder

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"searchlens/internal/records"
	"searchlens/internal/timeframe"
)

const (
	AnalyticsFileName = "analytics_data.csv"
	SearchFileName    = "search_console_data.csv"

	DefaultDays = 30
)

var (
	analyticsHeader = []string{
		records.FieldDate, records.FieldPage, records.FieldVisits, records.FieldOrders,
		records.FieldRevenue, records.FieldDevice, records.FieldChannel,
	}
	searchHeader = []string{
		records.FieldDate, records.FieldPage, records.FieldQuery, records.FieldClicks,
		records.FieldImpressions, records.FieldCTR, records.FieldPosition,
	}
)

type pageProfile struct {
	path       string
	visits     int
	conversion float64
	orderValue float64
	queries    []queryProfile
}

type queryProfile struct {
	query       string
	impressions int
	position    float64
	// drift is added to the position over the whole period; positive values
	// lose ranking.
	drift float64
}

var catalog = []pageProfile{
	{"/", 400, 0.010, 45, []queryProfile{
		{"acme store", 900, 1.2, 0},
		{"acme", 1500, 1.0, 0},
	}},
	{"/products/running-shoes", 250, 0.035, 89, []queryProfile{
		{"running shoes", 4000, 6.5, 3},
		{"best running shoes", 2500, 9.0, 0},
		{"acme running shoes", 300, 1.5, 0},
	}},
	{"/products/trail-boots", 120, 0.028, 129, []queryProfile{
		{"trail boots", 1800, 12.0, -2},
		{"waterproof hiking boots", 2200, 16.0, 0},
	}},
	{"/blog/how-to-choose-running-shoes", 180, 0.004, 60, []queryProfile{
		{"how to choose running shoes", 3500, 4.0, 0},
		{"running shoe size guide", 1200, 8.0, 4},
	}},
	{"/blog/marathon-training-plan", 90, 0.002, 40, []queryProfile{
		{"marathon training plan", 5000, 18.0, 0},
		{"16 week marathon plan", 800, 11.0, 0},
	}},
	{"/sale", 60, 0.060, 55, []queryProfile{
		{"shoe sale", 700, 7.0, 2},
	}},
}

var devices = []struct {
	device records.Device
	share  float64
	// conversion multiplier
	cvr float64
}{
	{records.DeviceDesktop, 0.45, 1.3},
	{records.DeviceMobile, 0.48, 0.7},
	{records.DeviceTablet, 0.07, 1.0},
}

var channels = []struct {
	channel records.Channel
	share   float64
}{
	{records.ChannelOrganicSearch, 0.45},
	{records.ChannelDirect, 0.20},
	{records.ChannelPaidSearch, 0.12},
	{records.ChannelReferral, 0.10},
	{records.ChannelSocial, 0.08},
	{records.ChannelEmail, 0.05},
}

// Seeder generates sample CSV exports.
type Seeder struct {
	Logger *slog.Logger
	Days   int
	End    time.Time
	Seed   uint64

	rng *rand.Rand
}

// NewSeeder creates a seeder for days of data ending today.
func NewSeeder(logger *slog.Logger, days int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if days <= 0 {
		days = DefaultDays
	}
	return &Seeder{
		Logger: logger,
		Days:   days,
		End:    time.Now().UTC(),
		Seed:   uint64(time.Now().UnixNano()),
	}
}

// Run writes both exports to dir, creating it when needed.
func (s *Seeder) Run(ctx context.Context, dir string) error {
	start := time.Now()
	s.rng = rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))
	s.Logger.Info("Seeding sample data...", slog.String("dir", dir), slog.Int("days", s.Days))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	analyticsRows, err := s.writeCSV(ctx, filepath.Join(dir, AnalyticsFileName), analyticsHeader, s.analyticsRows)
	if err != nil {
		return err
	}
	searchRows, err := s.writeCSV(ctx, filepath.Join(dir, SearchFileName), searchHeader, s.searchRows)
	if err != nil {
		return err
	}

	s.Logger.Info("Seeding completed",
		slog.Int("analyticsRows", analyticsRows),
		slog.Int("searchRows", searchRows),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) writeCSV(ctx context.Context, path string, header []string, rows func(day time.Time, progress float64) [][]string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	written := 0
	first := timeframe.TruncateToBucket(s.End, timeframe.BucketSizeDay).AddDate(0, 0, -(s.Days - 1))
	for i := range s.Days {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		progress := 0.0
		if s.Days > 1 {
			progress = float64(i) / float64(s.Days-1)
		}
		batch := rows(first.AddDate(0, 0, i), progress)
		if err := w.WriteAll(batch); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written += len(batch)
	}
	return written, f.Close()
}

func (s *Seeder) analyticsRows(day time.Time, _ float64) [][]string {
	date := day.Format(timeframe.DayLayout)
	weekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday

	var out [][]string
	for _, p := range catalog {
		base := float64(p.visits) * s.jitter(0.25)
		if weekend {
			base *= 0.8
		}
		for _, d := range devices {
			deviceVisits := base * d.share
			for _, c := range channels {
				visits := int64(math.Round(deviceVisits * c.share))
				if visits == 0 {
					continue
				}
				orders := s.binomial(visits, p.conversion*d.cvr)
				revenue := 0.0
				for range orders {
					revenue += p.orderValue * s.jitter(0.3)
				}
				out = append(out, []string{
					date, p.path,
					strconv.FormatInt(visits, 10),
					strconv.FormatInt(orders, 10),
					strconv.FormatFloat(revenue, 'f', 2, 64),
					string(d.device), string(c.channel),
				})
			}
		}
	}
	return out
}

func (s *Seeder) searchRows(day time.Time, progress float64) [][]string {
	date := day.Format(timeframe.DayLayout)

	var out [][]string
	for _, p := range catalog {
		for _, q := range p.queries {
			impressions := int64(math.Round(float64(q.impressions) * s.jitter(0.3)))
			if impressions == 0 {
				continue
			}
			position := math.Max(1, q.position+q.drift*progress+s.rng.NormFloat64()*0.6)
			clicks := s.binomial(impressions, expectedCTR(position))
			ctr := float64(clicks) / float64(impressions)
			out = append(out, []string{
				date, p.path, q.query,
				strconv.FormatInt(clicks, 10),
				strconv.FormatInt(impressions, 10),
				strconv.FormatFloat(ctr, 'f', 4, 64),
				strconv.FormatFloat(position, 'f', 1, 64),
			})
		}
	}
	return out
}

// expectedCTR approximates organic click-through by ranking position.
func expectedCTR(position float64) float64 {
	return 0.3 / math.Pow(position, 1.1)
}

// jitter returns a multiplier in [1-spread, 1+spread).
func (s *Seeder) jitter(spread float64) float64 {
	return 1 - spread + s.rng.Float64()*2*spread
}

// binomial draws from B(n, p) with a normal approximation for large n.
func (s *Seeder) binomial(n int64, p float64) int64 {
	if n <= 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return n
	}
	if n > 50 {
		mean := float64(n) * p
		sd := math.Sqrt(mean * (1 - p))
		v := int64(math.Round(mean + s.rng.NormFloat64()*sd))
		return max(0, min(n, v))
	}
	var k int64
	for range n {
		if s.rng.Float64() < p {
			k++
		}
	}
	return k
}
