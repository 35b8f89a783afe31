package http

import (
	"strconv"

	"searchlens/internal/dashboard"
	"searchlens/internal/timeframe"
)

const maxLimit = 1000

// parseQuery reads the from, to, bucket and limit query parameters.
func parseQuery(ctx *Context) (dashboard.Query, error) {
	var q dashboard.Query

	r, err := timeframe.ParseRange(ctx.Query("from"), ctx.Query("to"))
	if err != nil {
		return q, badRequest(err.Error())
	}
	q.Range = r

	bucket, ok := timeframe.ParseBucketSize(ctx.Query("bucket"))
	if !ok {
		return q, badRequest("invalid bucket " + strconv.Quote(ctx.Query("bucket")))
	}
	q.Bucket = bucket

	if raw := ctx.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return q, badRequest("limit must be between 1 and " + strconv.Itoa(maxLimit))
		}
		q.Limit = limit
	}
	return q, nil
}
