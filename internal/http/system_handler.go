package http

import (
	"log/slog"
	"strconv"

	"searchlens/internal/loads"
)

// ReloadCreateAction reloads both datasets now and returns the new snapshot.
func ReloadCreateAction(ctx *Context) error {
	snap, err := ctx.Reloader.Reload(ctx.UserContext(), loads.TriggerManual)
	if err != nil {
		return err
	}
	ctx.Logger.Info("Manual reload requested", slog.String("snapshot_id", snap.ID))
	return ctx.JSON(snap)
}

// LoadsIndexAction returns the most recent load attempts.
func LoadsIndexAction(ctx *Context) error {
	limit := 20
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			return badRequest("limit must be between 1 and " + strconv.Itoa(maxLimit))
		}
		limit = n
	}
	records, err := loads.RecentLoads(ctx.DB(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(records)
}
