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

	"stockpulse/internal/config"
	"stockpulse/internal/dataprocessing"
	apierrors "stockpulse/internal/errors"
	"stockpulse/internal/exporter"
	"stockpulse/internal/infrastructure"
	"stockpulse/internal/jobs"
	customMiddleware "stockpulse/internal/middleware"
	"stockpulse/internal/services"
	handlers "stockpulse/internal/transport/http"
	"stockpulse/internal/validation"
	ws "stockpulse/internal/websocket"
	"stockpulse/pkg/contracts"
	"stockpulse/pkg/contracts/domain"
)

// AppName is logged at startup
const AppName = "StockPulse"

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Router         *chi.Mux
	Server         *http.Server
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.BusinessMetrics
	WebSocketHub   *ws.Hub
	DatasetService *services.DatasetService
	HealthService  *services.HealthService
	ReloadJob      *jobs.ReloadJob

	errorHandler *apierrors.ErrorHandler
}

// NewApplication loads configuration and builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component from an explicit configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Telemetry.Environment == "development"),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	loc, err := a.Config.Location()
	if err != nil {
		return fmt.Errorf("failed to resolve timezone: %w", err)
	}

	wsMetrics, err := ws.NewOTelMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to initialize WebSocket metrics: %w", err)
	}

	// The hub asks the dataset service for the installed dataset, and the
	// service publishes through the hub, so the hub is created first with a
	// late-bound lookup.
	var datasets *services.DatasetService
	hub := ws.NewHub(a.Logger,
		ws.WithHubMetrics(wsMetrics),
		ws.WithTiming(ws.Timing{
			PongWait:   a.Config.WebSocket.PongWait,
			PingPeriod: a.Config.WebSocket.PingPeriod,
		}),
		ws.WithDatasetInfo(func() *domain.DatasetInfo {
			info, err := datasets.Info()
			if err != nil {
				return nil
			}
			return info
		}),
	)
	a.WebSocketHub = hub

	engine := dataprocessing.NewEngine(
		dataprocessing.WithLocation(loc),
		dataprocessing.WithParetoLimit(a.Config.Ingest.ParetoLimit),
		dataprocessing.WithTopStockLimit(a.Config.Ingest.TopStockLimit),
		dataprocessing.WithLogger(a.Logger),
	)
	datasets = services.NewDatasetService(
		dataprocessing.NewNormalizer(loc),
		engine,
		exporter.New(a.Logger),
		a.Logger,
		services.WithPublisher(hub),
		services.WithMetrics(a.Metrics),
		services.WithQueryValidator(validation.NewQueryValidator()),
	)
	a.DatasetService = datasets

	a.HealthService = services.NewHealthService(datasets, hub, a.Logger)

	if a.Config.Reload.Enabled() {
		a.ReloadJob = jobs.NewReloadJob(a.Config.Reload, loc, datasets, a.Logger)
	}
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	// Middleware that does not wrap the ResponseWriter, safe for /ws
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Handle("/ws", ws.NewHandler(a.WebSocketHub, ws.HandlerConfig{
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
	}, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(a.apiMiddleware()...)
		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// apiMiddleware is the chain in front of every /api route, after the
// RequestID and RealIP applied at the root:
// OTel → Logger → Recovery → SecurityHeaders → CORS → RateLimit
func (a *Application) apiMiddleware() []func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler,
		customMiddleware.StructuredLogger(a.Logger),
		apierrors.RecoveryMiddleware(a.errorHandler),
		customMiddleware.SecurityHeaders,
	}

	if a.Config.Security.EnableCORS {
		chain = append(chain, customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		chain = append(chain, customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}
	return chain
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	datasetHandler := handlers.NewDatasetHandler(
		a.DatasetService,
		validation.NewUploadValidator(a.Config.Ingest.MaxUploadBytes),
		a.Logger,
		a.errorHandler,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)

		r.Mount("/dataset", datasetHandler.DatasetRoutes())
		r.Mount("/export", datasetHandler.ExportRoutes())

		// JSON-only responses compress well
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Compress(5, "application/json"))
			r.Mount("/filters", datasetHandler.FilterRoutes())
			r.Mount("/views", datasetHandler.ViewRoutes())
		})
	})
}

// createServer creates the HTTP server
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

// Start starts the hub, the reload job and the HTTP server. A listener
// failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	if a.ReloadJob != nil {
		if err := a.ReloadJob.Start(ctx); err != nil {
			return fmt.Errorf("failed to start reload job: %w", err)
		}
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.ReloadJob != nil {
		a.ReloadJob.Stop(shutdownCtx)
	}
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
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
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	// ctx may already be cancelled; shutdown gets its own deadline
	return a.Stop(context.Background())
}
