package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"github.com/DerekChan65535/pygrays-api/internal/config"
	apierrors "github.com/DerekChan65535/pygrays-api/internal/errors"
	"github.com/DerekChan65535/pygrays-api/internal/infrastructure"
	customMiddleware "github.com/DerekChan65535/pygrays-api/internal/middleware"
	"github.com/DerekChan65535/pygrays-api/internal/services"
	handlers "github.com/DerekChan65535/pygrays-api/internal/transport/http"
	"github.com/DerekChan65535/pygrays-api/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Router        *chi.Mux
	Server        *http.Server
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
}

// ServiceContainer holds all business services
type ServiceContainer struct {
	Aging          *services.AgingReportService
	Inventory      *services.InventoryService
	BankStatement  *services.BankStatementService
	PaymentExtract *services.PaymentExtractService
	Health         *services.HealthService
}

// NewApplication creates a new application instance with all
// dependencies wired: configuration, logging, telemetry, the report
// services, the router, and the HTTP server.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
	)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	logger.Info("application initialized",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
	)

	return app, nil
}

// initializeServices builds the service container shared by every
// transport. Business metrics are created once and handed to each
// report service.
func (a *Application) initializeServices() error {
	var metrics *infrastructure.BusinessMetrics
	if a.OTelProviders != nil && a.OTelProviders.Meter != nil {
		m, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
		if err != nil {
			return fmt.Errorf("failed to create business metrics: %w", err)
		}
		metrics = m
	}
	a.Metrics = metrics

	a.Services = &ServiceContainer{
		Aging:          services.NewAgingReportService(a.Config, a.Logger, metrics),
		Inventory:      services.NewInventoryService(a.Config, a.Logger, metrics),
		BankStatement:  services.NewBankStatementService(a.Config, a.Logger, metrics),
		PaymentExtract: services.NewPaymentExtractService(a.Config, a.Logger, metrics),
		Health:         services.NewHealthService(a.Config, a.Logger),
	}

	a.Logger.Info("services initialized",
		slog.Int("report_services", 4),
		slog.Bool("metrics_enabled", metrics != nil),
	)

	return nil
}

// setupRouter configures the chi router with middleware and routes.
// Request identity middleware runs first so every later stage logs the
// same trace ID. The Prometheus scrape endpoint is mounted outside the
// main middleware group so scrapes bypass CORS and rate limiting.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		otelMiddleware := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		r.Use(otelMiddleware.Handler)

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			rateLimiter := customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			)
			r.Use(rateLimiter.Handler)
		}

		a.setupAPIRoutes(r, errorHandler)
	})

	if a.OTelProviders != nil && a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes mounts every handler under the /api prefix. Report
// uploads additionally pass content type and body size screening
// before any multipart parsing happens.
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	metricsHandler := handlers.NewMetricsHandler()
	reportHandler := handlers.NewReportHandler(
		a.Config,
		a.Services.Aging,
		a.Services.Inventory,
		a.Services.BankStatement,
		a.Services.PaymentExtract,
		a.Logger,
		errorHandler,
	)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		r.Mount("/metrics", metricsHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.ContentTypeValidator("multipart/form-data"))
			r.Use(customMiddleware.RequestSizeLimit(a.Config.Processing.MaxUploadBytes, a.Logger))

			r.Post("/aging-reports/process", reportHandler.ProcessAgingReport)
			r.Post("/inventory/uploadfiles", reportHandler.ProcessInventory)
			r.Post("/bank-statement/process", reportHandler.ProcessBankStatement)
			r.Post("/payment-extract/process", reportHandler.ProcessPaymentExtract)
		})
	})
}

// getCORSConfig builds the CORS policy from configuration.
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer builds the HTTP server with timeouts from configuration.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run starts the HTTP server and blocks until an interrupt, SIGTERM,
// or a server error, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("HTTP server listening",
			slog.String("address", a.Server.Addr),
		)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Stop()
	})

	return g.Wait()
}

// Stop drains in-flight requests within the configured shutdown
// timeout, then flushes telemetry and closes the log file.
func (a *Application) Stop() error {
	a.Logger.Info("shutting down",
		slog.Duration("timeout", a.Config.Server.ShutdownTimeout),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("graceful shutdown failed, forcing close",
			slog.String("error", err.Error()),
		)
		if closeErr := a.Server.Close(); closeErr != nil {
			return fmt.Errorf("server close: %w", closeErr)
		}
		return fmt.Errorf("server shutdown: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("telemetry shutdown failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}

	a.Logger.Info("application stopped")
	return nil
}
