// Package http holds the JSON API handlers.
package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"searchlens/internal/assistant"
	"searchlens/internal/config"
	"searchlens/internal/dashboard"
	"searchlens/internal/database"
	"searchlens/internal/loads"
)

// Deps are the services handlers use.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.DBManager
	Service   *dashboard.Service
	Assistant *assistant.Assistant
	Reloader  *loads.Reloader
}

// Context is the request context passed to actions.
type Context struct {
	*fiber.Ctx
	*Deps
}

// Action handles one request.
type Action func(ctx *Context) error

// Handle adapts an action to a fiber handler.
func (d *Deps) Handle(action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return action(&Context{Ctx: c, Deps: d})
	}
}

// DB returns the database connection.
func (ctx *Context) DB() *gorm.DB {
	return ctx.DBManager.GetConnection()
}
