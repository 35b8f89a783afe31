package http

import (
	"log/slog"
	"time"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	DBStatus   string    `json:"dbStatus"`
	SnapshotID string    `json:"snapshotId,omitempty"`
	DataStatus string    `json:"dataStatus"`
}

// HealthIndexAction handles the health check endpoint
func HealthIndexAction(ctx *Context) error {
	dbStatus := "ok"

	// Check database connectivity
	if err := ctx.DBManager.Ping(); err != nil {
		dbStatus = "error"
		ctx.Logger.Error("Database ping failed", slog.Any("error", err))
	}

	health := HealthStatus{
		Status:     "ok",
		Timestamp:  time.Now().UTC(),
		DBStatus:   dbStatus,
		DataStatus: "ok",
	}

	if snap, err := ctx.Service.Snapshot(); err != nil {
		health.DataStatus = "not_loaded"
	} else {
		health.SnapshotID = snap.ID
	}

	if dbStatus != "ok" || health.DataStatus != "ok" {
		health.Status = "degraded"
	}

	return ctx.JSON(health)
}
