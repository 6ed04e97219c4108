// Package app wires the demand extraction server together: configuration,
// logging, telemetry, the WebSocket hub, the services and the chi router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"demandcli/internal/config"
	apierrors "demandcli/internal/errors"
	"demandcli/internal/infrastructure"
	customMiddleware "demandcli/internal/middleware"
	"demandcli/internal/services"
	handlers "demandcli/internal/transport/http"
	ws "demandcli/internal/websocket"
	"demandcli/internal/workbook"
	"demandcli/pkg/contracts"
)

const AppName = "Demand Pulse"

// BuildTime is set at compile time via -ldflags
var BuildTime = ""

// Application is the composed server: configuration, router and the
// long-lived services behind it.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Hub           *ws.Hub
	Extraction    *services.ExtractionService
	Health        *services.HealthService
	OTelProviders *infrastructure.OTelProviders
	Logger        *slog.Logger
}

// NewApplication builds the application from the given config file path.
// An empty path uses defaults plus DP_* environment variables.
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", cfg.Server.Port))

	providers, err := infrastructure.InitializeOTel(nil, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	metrics, err := infrastructure.NewExtractionMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("creating extraction metrics: %w", err)
	}

	hub := ws.NewHub(logger)

	var sheetsLoader *workbook.SheetsLoader
	if cfg.Sheets.APIKey != "" {
		sheetsLoader, err = workbook.NewSheetsLoader(context.Background(), cfg.Sheets.APIKey, logger)
		if err != nil {
			return nil, fmt.Errorf("creating sheets loader: %w", err)
		}
	} else {
		logger.Info("google sheets loading disabled, no API key configured")
	}

	app := &Application{
		Config:        cfg,
		Hub:           hub,
		Extraction:    services.NewExtractionService(cfg.Extraction, sheetsLoader, hub, metrics, logger),
		Health:        services.NewHealthService(contracts.Version, BuildTime, hub, logger),
		OTelProviders: providers,
		Logger:        logger,
	}

	app.setupRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that won't interfere with the WebSocket upgrade
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// WebSocket route stays outside the full middleware group: wrapping the
	// ResponseWriter breaks hijacking
	r.Handle("/ws", handlers.NewWSHandler(a.Hub, a.Config.WebSocket, a.Logger))

	// Prometheus metrics, also outside the group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Compress(5))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		extractionHandler := handlers.NewExtractionHandler(
			a.Extraction, errorHandler, a.Config.Upload.MaxSizeBytes, a.Logger)

		r.Route("/api", func(r chi.Router) {
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)
			r.Mount("/extraction", extractionHandler.Routes())
		})
	})

	a.Router = r
}

// Start launches the hub and the HTTP server. It returns once the server
// is listening; cancel is invoked when the server fails.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Hub.Start()

	go func() {
		a.Logger.InfoContext(ctx, "server listening",
			slog.String("address", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully stops the server, the hub and the telemetry providers
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.Hub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
