// Package assistant answers plain-language questions about the loaded data
// with the matching dashboard figures and short phrased insights.
package assistant

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"searchlens/internal/aggregate"
	"searchlens/internal/analytics"
	"searchlens/internal/dashboard"
)

// ErrEmptyQuestion is returned for blank questions.
var ErrEmptyQuestion = errors.New("question is empty")

// Views is the subset of a dashboard reader the assistant reads. One answer
// reads every figure from the same Views.
type Views interface {
	Dashboard(q dashboard.Query) (analytics.Dashboard, error)
	TimeSeries(q dashboard.Query) (analytics.TimeSeries, error)
	Breakdown(q dashboard.Query) (analytics.Breakdown, error)
	Pages(q dashboard.Query) ([]analytics.PageInsight, error)
	Queries(q dashboard.Query) ([]analytics.QueryInsight, error)
	TopPages(q dashboard.Query) ([]aggregate.PageTotals, error)
	TopQueries(q dashboard.Query) ([]aggregate.QueryTotals, error)
}

// Answer is the reply to one question.
type Answer struct {
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Data     any      `json:"data"`
	Insights []string `json:"insights"`
}

type RevenueAnswer struct {
	TotalRevenue       float64                `json:"totalRevenue"`
	AvgRevenuePerVisit float64                `json:"avgRevenuePerVisit"`
	TopRevenuePages    []aggregate.PageTotals `json:"topRevenuePages"`
	TopRevenueChannels []aggregate.NameValue  `json:"topRevenueChannels"`
}

type TrafficAnswer struct {
	TotalVisits      int64                 `json:"totalVisits"`
	TotalClicks      int64                 `json:"totalClicks"`
	TotalImpressions int64                 `json:"totalImpressions"`
	AvgCTR           float64               `json:"avgCTR"`
	TimeSeriesData   []aggregate.DateValue `json:"timeSeriesData"`
	DeviceBreakdown  []aggregate.NameValue `json:"deviceBreakdown"`
}

type ConversionAnswer struct {
	TotalOrders        int64                   `json:"totalOrders"`
	AvgConversionRate  float64                 `json:"avgConversionRate"`
	TopConvertingPages []analytics.PageInsight `json:"topConvertingPages"`
}

type SearchAnswer struct {
	TotalQueries int                     `json:"totalQueries"`
	AvgPosition  float64                 `json:"avgPosition"`
	TopQueries   []aggregate.QueryTotals `json:"topQueries"`
}

// Assistant routes questions to views and phrases the result.
type Assistant struct {
	logger  *slog.Logger
	router  *Router
	printer *message.Printer
}

// New creates an assistant using the embedded intents.
func New(logger *slog.Logger) (*Assistant, error) {
	router, err := DefaultRouter()
	if err != nil {
		return nil, err
	}
	return &Assistant{
		logger:  logger,
		router:  router,
		printer: message.NewPrinter(language.English),
	}, nil
}

// Ask answers question over the data of views selected by q.
func (a *Assistant) Ask(question string, views Views, q dashboard.Query) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}

	kind := a.router.Route(question)
	a.logger.Debug("Routing question", slog.String("question", question), slog.String("type", kind))

	var (
		answer Answer
		err    error
	)
	switch kind {
	case TypeRevenue:
		answer, err = a.revenue(views, q)
	case TypeTraffic:
		answer, err = a.traffic(views, q)
	case TypeConversion:
		answer, err = a.conversion(views, q)
	case TypeSearch:
		answer, err = a.search(views, q)
	case TypePages:
		answer, err = a.pages(views, q)
	default:
		answer, err = a.dashboard(views, q)
	}
	if err != nil {
		return Answer{}, fmt.Errorf("failed to answer %s question: %w", kind, err)
	}
	answer.Question = question
	if answer.Insights == nil {
		answer.Insights = []string{}
	}
	return answer, nil
}

func (a *Assistant) money(v float64) string {
	return a.printer.Sprintf("$%.2f", v)
}

func (a *Assistant) revenue(views Views, q dashboard.Query) (Answer, error) {
	d, err := views.Dashboard(q)
	if err != nil {
		return Answer{}, err
	}
	q.Limit = 5
	top, err := views.TopPages(q)
	if err != nil {
		return Answer{}, err
	}
	breakdown, err := views.Breakdown(q)
	if err != nil {
		return Answer{}, err
	}

	data := RevenueAnswer{
		TotalRevenue:       d.TotalRevenue,
		AvgRevenuePerVisit: d.AvgRevenuePerVisit,
		TopRevenuePages:    head(top, 3),
		TopRevenueChannels: head(breakdown.Channel, 3),
	}
	lines := []string{
		"Total revenue: " + a.money(d.TotalRevenue),
		"Average revenue per visit: " + a.money(d.AvgRevenuePerVisit),
	}
	if len(top) > 0 {
		lines = append(lines, fmt.Sprintf("Top revenue page: %s (%s)", top[0].Page, a.money(top[0].Revenue)))
	}
	return Answer{Type: TypeRevenue, Data: data, Insights: lines}, nil
}

func (a *Assistant) traffic(views Views, q dashboard.Query) (Answer, error) {
	d, err := views.Dashboard(q)
	if err != nil {
		return Answer{}, err
	}
	series, err := views.TimeSeries(q)
	if err != nil {
		return Answer{}, err
	}
	breakdown, err := views.Breakdown(q)
	if err != nil {
		return Answer{}, err
	}

	data := TrafficAnswer{
		TotalVisits:      d.TotalVisits,
		TotalClicks:      d.TotalClicks,
		TotalImpressions: d.TotalImpressions,
		AvgCTR:           d.AvgCTR,
		TimeSeriesData:   series.Visits,
		DeviceBreakdown:  breakdown.Device,
	}
	lines := []string{
		a.printer.Sprintf("Total visits: %d", d.TotalVisits),
		a.printer.Sprintf("Total search clicks: %d", d.TotalClicks),
		a.printer.Sprintf("Average CTR: %.2f%%", d.AvgCTR*100),
	}
	if len(breakdown.Device) > 0 {
		top := breakdown.Device[0]
		lines = append(lines, a.printer.Sprintf("Top device: %s (%.0f visits)", top.Name, top.Value))
	}
	return Answer{Type: TypeTraffic, Data: data, Insights: lines}, nil
}

func (a *Assistant) conversion(views Views, q dashboard.Query) (Answer, error) {
	d, err := views.Dashboard(q)
	if err != nil {
		return Answer{}, err
	}
	pages, err := views.Pages(q)
	if err != nil {
		return Answer{}, err
	}

	ranked := slices.Clone(pages)
	slices.SortStableFunc(ranked, func(x, y analytics.PageInsight) int {
		switch {
		case x.ConversionRate > y.ConversionRate:
			return -1
		case x.ConversionRate < y.ConversionRate:
			return 1
		}
		return 0
	})
	ranked = head(ranked, 5)

	data := ConversionAnswer{
		TotalOrders:        d.TotalOrders,
		AvgConversionRate:  d.AvgConversionRate,
		TopConvertingPages: ranked,
	}
	lines := []string{
		a.printer.Sprintf("Total orders: %d", d.TotalOrders),
		a.printer.Sprintf("Average conversion rate: %.2f%%", d.AvgConversionRate),
	}
	if len(ranked) > 0 {
		lines = append(lines, a.printer.Sprintf("Best converting page: %s (%.2f%%)", ranked[0].Page, ranked[0].ConversionRate))
	}
	return Answer{Type: TypeConversion, Data: data, Insights: lines}, nil
}

func (a *Assistant) search(views Views, q dashboard.Query) (Answer, error) {
	d, err := views.Dashboard(q)
	if err != nil {
		return Answer{}, err
	}
	queries, err := views.Queries(q)
	if err != nil {
		return Answer{}, err
	}
	q.Limit = 5
	top, err := views.TopQueries(q)
	if err != nil {
		return Answer{}, err
	}

	data := SearchAnswer{
		TotalQueries: d.TotalQueries,
		AvgPosition:  d.AvgPosition,
		TopQueries:   top,
	}
	lines := []string{
		a.printer.Sprintf("Total unique queries: %d", d.TotalQueries),
		a.printer.Sprintf("Average search position: %.1f", d.AvgPosition),
	}
	if len(top) > 0 {
		lines = append(lines, a.printer.Sprintf("Top query: %q (%d clicks)", top[0].Query, top[0].Clicks))
	}
	if best, ok := bestCTR(queries); ok {
		lines = append(lines, a.printer.Sprintf("Best performing query: %q (%.2f%% CTR)", best.Query, best.CTR))
	}
	return Answer{Type: TypeSearch, Data: data, Insights: lines}, nil
}

func (a *Assistant) pages(views Views, q dashboard.Query) (Answer, error) {
	pages, err := views.Pages(q)
	if err != nil {
		return Answer{}, err
	}
	lines := []string{a.printer.Sprintf("Pages with traffic: %d", len(pages))}
	if len(pages) > 0 {
		top := slices.MaxFunc(pages, func(x, y analytics.PageInsight) int {
			switch {
			case x.Revenue > y.Revenue:
				return 1
			case x.Revenue < y.Revenue:
				return -1
			}
			return 0
		})
		lines = append(lines, fmt.Sprintf("Highest revenue page: %s (%s)", top.Page, a.money(top.Revenue)))
	}
	return Answer{Type: TypePages, Data: pages, Insights: lines}, nil
}

func (a *Assistant) dashboard(views Views, q dashboard.Query) (Answer, error) {
	d, err := views.Dashboard(q)
	if err != nil {
		return Answer{}, err
	}
	lines := []string{
		a.printer.Sprintf("Total visits: %d", d.TotalVisits),
		"Total revenue: " + a.money(d.TotalRevenue),
		a.printer.Sprintf("Total search clicks: %d", d.TotalClicks),
	}
	return Answer{Type: TypeDashboard, Data: d, Insights: lines}, nil
}

// bestCTR returns the first query with the highest CTR.
func bestCTR(queries []analytics.QueryInsight) (analytics.QueryInsight, bool) {
	if len(queries) == 0 {
		return analytics.QueryInsight{}, false
	}
	best := queries[0]
	for _, q := range queries[1:] {
		if q.CTR > best.CTR {
			best = q
		}
	}
	return best, true
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	if items == nil {
		return []T{}
	}
	return items
}
