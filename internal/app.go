// Package internal contains core application functionality
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"

	"searchlens/internal/assistant"
	"searchlens/internal/config"
	"searchlens/internal/dashboard"
	"searchlens/internal/database"
	"searchlens/internal/dataset"
	"searchlens/internal/http"
	"searchlens/internal/insights"
	"searchlens/internal/jobs"
	"searchlens/internal/loads"
	"searchlens/internal/logging"
	"searchlens/internal/observability"
	"searchlens/internal/settings"
)

// Application wires the services, the HTTP server and the background jobs.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.DBManager
	Store     *dataset.Store
	Service   *dashboard.Service
	Assistant *assistant.Assistant
	Reloader  *loads.Reloader
	Scheduler *jobs.Scheduler
	Metrics   *observability.Metrics
	Server    *fiber.App

	logCloser io.Closer
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger, logCloser, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return NewAppWithLogger(cfg, logger, logCloser)
}

// NewAppWithLogger creates the application using logger. logCloser may be
// nil.
func NewAppWithLogger(cfg *config.Config, logger *slog.Logger, logCloser io.Closer) (*Application, error) {
	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return NewAppWithDBManager(cfg, logger, logCloser, dbManager)
}

// NewAppWithDBManager creates the application on an initialized database.
func NewAppWithDBManager(cfg *config.Config, logger *slog.Logger, logCloser io.Closer, dbManager *database.DBManager) (*Application, error) {
	source, err := dataset.NewSource(context.Background(), logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create data source: %w", err)
	}
	store := dataset.NewStore(logger, source, nil)
	metrics := observability.NewMetrics()
	reloader := loads.NewReloader(logger, store, dbManager.GetConnection(), metrics)

	service := dashboard.NewService(logger, store, insights.NewEngine(cfg.BrandKeywords()), dashboard.Options{
		CacheSize: cfg.InsightCacheSize,
		CacheTTL:  cfg.InsightCacheTTL(),
		Workers:   cfg.WorkerCount,
		Metrics:   metrics,
	})

	ask, err := assistant.New(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant: %w", err)
	}

	scheduler, err := jobs.NewScheduler(dbManager, reloader, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	deps := &http.Deps{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Service:   service,
		Assistant: ask,
		Reloader:  reloader,
	}

	return &Application{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Store:     store,
		Service:   service,
		Assistant: ask,
		Reloader:  reloader,
		Scheduler: scheduler,
		Metrics:   metrics,
		Server:    NewServer(deps, metrics),
		logCloser: logCloser,
	}, nil
}

// ApplyBrandKeywords seeds the default settings and hands the stored brand
// keywords to the dashboard service.
func (a *Application) ApplyBrandKeywords() error {
	db := a.DBManager.GetConnection()
	if err := settings.SetupDefaultSettings(a.Logger, db, a.Config.BrandKeywords()); err != nil {
		return err
	}
	keywords, err := settings.GetBrandKeywords(db, a.Config.BrandKeywords())
	if err != nil {
		return err
	}
	a.Service.SetBrandKeywords(keywords)
	return nil
}

// Prepare applies the brand keywords and runs the startup load. A failed
// load is logged and the server starts without data; the next reload
// retries.
func (a *Application) Prepare(ctx context.Context) error {
	if err := a.ApplyBrandKeywords(); err != nil {
		return err
	}
	if _, err := a.Reloader.Reload(ctx, loads.TriggerStartup); err != nil {
		a.Logger.Warn("Starting without data", slog.Any("error", err))
	}
	return nil
}

// StartAsync prepares the data, starts the background jobs and serves HTTP
// in the background.
func (a *Application) StartAsync() error {
	if err := a.Prepare(context.Background()); err != nil {
		return err
	}
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start jobs: %w", err)
	}

	ln, err := net.Listen("tcp", ":"+a.Config.AppPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", a.Config.AppPort, err)
	}
	go func() {
		if err := a.Server.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			a.Logger.Error("Server stopped", slog.Any("error", err))
		}
	}()

	a.Logger.Info("Server started",
		slog.String("port", a.Config.AppPort),
		slog.String("environment", a.Config.Environment),
		slog.String("source", a.Store.Source().Describe()))
	return nil
}

// Shutdown stops the server and jobs and closes the database.
func (a *Application) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Server.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	a.Scheduler.Stop()
	if err := a.DBManager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("log close: %w", err))
		}
	}
	return errors.Join(errs...)
}
