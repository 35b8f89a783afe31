package http

import (
	"searchlens/internal/dashboard"
)

// view adapts a dashboard view to an action.
func view[T any](compute func(q dashboard.Query) (T, error)) Action {
	return func(ctx *Context) error {
		q, err := parseQuery(ctx)
		if err != nil {
			return err
		}
		result, err := compute(q)
		if err != nil {
			return err
		}
		return ctx.JSON(result)
	}
}

// DashboardIndexAction returns the summary, freshness and trends.
func DashboardIndexAction(ctx *Context) error {
	return view(ctx.Service.Dashboard)(ctx)
}

// OverviewIndexAction returns the overview bundle computed in parallel.
func OverviewIndexAction(ctx *Context) error {
	q, err := parseQuery(ctx)
	if err != nil {
		return err
	}
	overview, err := ctx.Service.Overview(ctx.UserContext(), q)
	if err != nil {
		return err
	}
	return ctx.JSON(overview)
}

// TimeSeriesIndexAction returns visits, revenue, clicks and impressions by
// date. The bucket parameter re-buckets to week, month or year.
func TimeSeriesIndexAction(ctx *Context) error {
	return view(ctx.Service.TimeSeries)(ctx)
}

// BreakdownIndexAction returns visits by device and channel.
func BreakdownIndexAction(ctx *Context) error {
	return view(ctx.Service.Breakdown)(ctx)
}

func PagesIndexAction(ctx *Context) error {
	return view(ctx.Service.Pages)(ctx)
}

func QueriesIndexAction(ctx *Context) error {
	return view(ctx.Service.Queries)(ctx)
}

// TopPagesIndexAction returns the pages with the most visits.
func TopPagesIndexAction(ctx *Context) error {
	return view(ctx.Service.TopPages)(ctx)
}

// TopQueriesIndexAction returns the queries with the most clicks.
func TopQueriesIndexAction(ctx *Context) error {
	return view(ctx.Service.TopQueries)(ctx)
}
