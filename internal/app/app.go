package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"revlens/internal/config"
	apierrors "revlens/internal/errors"
	"revlens/internal/infrastructure"
	custommw "revlens/internal/middleware"
	"revlens/internal/services"
	handlers "revlens/internal/transport/http"
)

// AppName is the user-facing application name.
const AppName = "RevLens - Customer Revenue Analytics"

// Application is the main application container.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	Store     *services.DatasetStore
	Dashboard *services.DashboardService
	Health    *services.HealthService

	errorHandler *apierrors.ErrorHandler
}

// NewApplication creates a new application instance with dependency
// injection: config, logger and OTel first, then services, then the
// router.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", services.Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	app.initializeServices()
	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        app.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return app, nil
}

func (a *Application) initializeServices() {
	a.Store = services.NewDatasetStore(a.Config.Dashboard.CacheCapacity, a.Logger)
	a.Dashboard = services.NewDashboardService(a.Store, a.Config.Dashboard, a.Logger)
	a.Health = services.NewHealthService(a.Store)
	a.errorHandler = apierrors.NewErrorHandler(a.Logger, false)
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(chimiddleware.RealIP)

	otelMiddleware, err := custommw.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return err
	}
	r.Use(otelMiddleware.Handler)

	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))

	if a.Config.Security.RateLimit.Enabled {
		r.Use(custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	datasetHandler := handlers.NewDatasetHandler(a.Dashboard, a.Logger, a.errorHandler)
	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.MaxUploadBytes(a.Config.Dashboard.MaxUploadBytes))

		r.Get("/healthz", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)
		r.Mount("/datasets", datasetHandler.Routes())
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Method(http.MethodGet, "/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
	return nil
}

// Run starts the HTTP server and blocks until an interrupt signal,
// then shuts down gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		a.Logger.Info("HTTP server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	}

	return a.Stop(ctx)
}

// Stop shuts the server and telemetry down gracefully.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.Logger.InfoContext(shutdownCtx, "shutting down")

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.WarnContext(shutdownCtx, "telemetry shutdown failed",
			slog.String("error", err.Error()))
	}
	return infrastructure.CloseLogFile()
}
