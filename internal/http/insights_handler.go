package http

// InsightsIndexAction returns every advanced insight.
func InsightsIndexAction(ctx *Context) error {
	return view(ctx.Service.Insights)(ctx)
}

// InsightShowAction returns one insight by name.
func InsightShowAction(ctx *Context) error {
	q, err := parseQuery(ctx)
	if err != nil {
		return err
	}
	result, err := ctx.Service.Insight(ctx.Params("name"), q)
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}
