package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	httpAdapter "github.com/devcorner/tvdash/internal/adapters/primary/http"
	mw "github.com/devcorner/tvdash/internal/adapters/primary/http/middleware"
	"github.com/devcorner/tvdash/internal/adapters/primary/websocket"
	"github.com/devcorner/tvdash/internal/adapters/secondary/jira"
	"github.com/devcorner/tvdash/internal/config"
	"github.com/devcorner/tvdash/internal/core/ports"
	"github.com/devcorner/tvdash/internal/core/services"
	"github.com/devcorner/tvdash/internal/infrastructure/logging"
	"github.com/devcorner/tvdash/internal/jobs"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Jira Client (Secondary Adapter)
	jiraClient := jira.NewClient(
		cfg.Jira.BaseURL,
		cfg.Jira.Email,
		cfg.Jira.APIToken,
		cfg.Jira.HTTPTimeout,
		logger,
	)
	if cfg.Jira.BaseURL == "" {
		logger.Warn("jira credentials not configured, dashboards will serve errors until they are set")
	}

	// 4. Initialize Real-time Hub
	hub := websocket.NewHub(logger)
	go hub.Run()

	// 5. Initialize Rate Limiter
	var rateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	// Error Handler
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Dashboards (Core)
	maxResults := cfg.Jira.MaxResults
	dashboards := []ports.Dashboard{
		services.NewPartitionedDashboard("nova", cfg.Dashboards.NovaProject,
			cfg.Dashboards.NovaTTL, maxResults, jiraClient, hub, logger),
		services.NewOperationalDashboard("operational", cfg.Dashboards.OperationalProject,
			cfg.Dashboards.SharedTTL, maxResults, jiraClient, hub, logger),
		services.NewTeamDashboard("dev1",
			services.ProjectListJQL(cfg.Dashboards.Dev1Project),
			services.ProjectOpenJQL(cfg.Dashboards.Dev1Project),
			nil, cfg.Dashboards.SharedTTL, maxResults, jiraClient, hub, logger),
		services.NewTeamDashboard("julie",
			services.CurrentUserListJQL(),
			services.CurrentUserOpenJQL(),
			nil, cfg.Dashboards.SharedTTL, maxResults, jiraClient, hub, logger),
	}

	// The team board needs account IDs to build its JQL.
	if len(cfg.Dashboards.TeamAccountIDs) > 0 {
		dashboards = append(dashboards, services.NewTeamDashboard("trevor",
			services.TeamListJQL(cfg.Dashboards.TeamProjects, cfg.Dashboards.TeamAccountIDs),
			services.TeamOpenJQL(cfg.Dashboards.TeamProjects, cfg.Dashboards.TeamAccountIDs),
			cfg.Dashboards.TeamAccountIDs,
			cfg.Dashboards.SharedTTL, maxResults, jiraClient, hub, logger))
	} else {
		logger.Warn("team dashboard disabled, TEAM_ACCOUNT_IDS is not set")
	}

	registry := services.NewRegistry(dashboards...)

	// Background polling
	poller := jobs.NewPoller(registry, cfg.Dashboards.PollInterval, logger)
	if err := poller.Start(context.Background()); err != nil {
		logger.Error("failed to start dashboard polling", "error", err)
		os.Exit(1)
	}

	// Handlers (Primary Adapters)
	dashboardHandler := httpAdapter.NewDashboardHandler(registry, errorHandler, logger)
	jiraHandler := httpAdapter.NewJiraHandler(jiraClient, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(jiraClient, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", mw.RequestIDHeader},
		MaxAge:         300,
	}))

	if rateLimiter != nil {
		r.Use(rateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/dashboards", dashboardHandler.RegisterRoutes)
		r.Route("/jira", jiraHandler.RegisterRoutes)
		r.Get("/ws", wsHandler.ServeHTTP)
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	poller.Stop()

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

// corsOrigins returns the browser origins allowed to call the API. TV
// screens run the frontend from a different host than the backend.
func corsOrigins(cfg *config.Config) []string {
	if cfg.IsDevelopment() {
		return []string{"*"}
	}
	origins := make([]string, 0, len(cfg.WebSocket.AllowedOrigins))
	for _, origin := range cfg.WebSocket.AllowedOrigins {
		origins = append(origins, "https://"+origin)
	}
	return origins
}
