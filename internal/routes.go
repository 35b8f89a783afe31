package internal

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"searchlens/internal/dataset"
	"searchlens/internal/http"
	"searchlens/internal/http/middleware"
	"searchlens/internal/observability"
)

// apiCORSConfig lets browser dashboards on other origins read the API.
var apiCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "GET,POST,PUT,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization",
}

// NewServer creates the fiber app with every route mounted.
func NewServer(deps *http.Deps, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               deps.Config.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          http.ErrorHandler(deps.Logger),
	})
	app.Use(recover.New())
	if metrics != nil {
		app.Use(metrics.Middleware())
	}
	MountAppRoutes(app, deps, metrics)
	return app
}

// MountAppRoutes mounts all application routes
func MountAppRoutes(app *fiber.App, deps *http.Deps, metrics *observability.Metrics) {
	h := deps.Handle
	admin := middleware.AdminAPIKeyAuth(deps.Config.AdminAPIKey, deps.Logger)

	if metrics != nil {
		app.Get("/metrics", metrics.Handler())
	}

	api := app.Group("/api", cors.New(apiCORSConfig))

	// Health check endpoint
	api.Get("/health", h(http.HealthIndexAction))

	// === DATASETS ===
	api.Get("/ga", h(http.DatasetIndexAction(dataset.KindAnalytics)))
	api.Get("/gsc", h(http.DatasetIndexAction(dataset.KindSearch)))
	api.Get("/files", h(http.FilesIndexAction))

	// === VIEWS ===
	api.Get("/dashboard", h(http.DashboardIndexAction))
	api.Get("/overview", h(http.OverviewIndexAction))
	api.Get("/timeseries", h(http.TimeSeriesIndexAction))
	api.Get("/breakdown", h(http.BreakdownIndexAction))
	api.Get("/pages", h(http.PagesIndexAction))
	api.Get("/queries", h(http.QueriesIndexAction))
	api.Get("/top/pages", h(http.TopPagesIndexAction))
	api.Get("/top/queries", h(http.TopQueriesIndexAction))
	api.Get("/insights", h(http.InsightsIndexAction))
	api.Get("/insights/:name", h(http.InsightShowAction))
	api.Post("/ask", h(http.AskCreateAction))

	// === OPERATIONS ===
	api.Get("/loads", h(http.LoadsIndexAction))
	api.Post("/reload", admin, h(http.ReloadCreateAction))
	api.Get("/settings/brand-keywords", h(http.BrandKeywordsShowAction))
	api.Put("/settings/brand-keywords", admin, h(http.BrandKeywordsUpdateAction))

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "route not found: "+c.Method()+" "+c.Path())
	})
}
