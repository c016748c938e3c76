package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"sahm/internal/api"
	"sahm/internal/assign"
	"sahm/internal/cache"
	"sahm/internal/config"
	"sahm/internal/dispatch"
	"sahm/internal/fleet"
	"sahm/internal/logging"
	"sahm/internal/rules"
	"sahm/internal/triage"
)

func main() {
	// Load configuration from .env and the environment
	settings, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Init(logging.ParseLevel(settings.LogLevel), settings.LogFormat)
	logger := logging.New("server")
	logger.Info("starting SAHM dispatch server")

	// Set up a context that will be canceled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create components
	components, err := setupComponents(ctx, settings)
	if err != nil {
		logger.Error("failed to set up components", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", settings.Port),
		Handler:      components.handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: settings.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "port", settings.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("shutting down server")

	// Create a deadline for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server gracefully stopped")
}

// Components holds all the application components
type Components struct {
	handler *api.IncidentHandler
	redis   *redis.Client
}

// Close releases external connections
func (c *Components) Close() {
	if c.redis != nil {
		c.redis.Close()
	}
}

// setupComponents initializes all application components. Corrupt rule
// tables are fatal; an unreachable redis only disables the cache.
func setupComponents(ctx context.Context, settings *config.Settings) (*Components, error) {
	logger := logging.New("server")

	tables, err := loadRules(settings.RulesFile)
	if err != nil {
		return nil, err
	}

	// Create engines over the shared rule tables
	generator := fleet.NewGenerator(tables)
	engine := dispatch.NewRuleEngine(tables)
	classifier := triage.NewScoringClassifier(tables)
	matcher := assign.NewEngine(tables, generator)

	// Connect to redis if configured
	components := &Components{}
	var incidentCache cache.IncidentCache
	if settings.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: settings.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, incident cache disabled", "addr", settings.RedisAddr, "error", err)
			client.Close()
		} else {
			logger.Info("connected to redis", "addr", settings.RedisAddr)
			components.redis = client
			incidentCache = cache.NewIncidentCache(client, settings.CacheTTL)
		}
	}

	// Create coordinator
	coordinator := api.NewIncidentCoordinator(
		classifier,
		engine,
		matcher,
		incidentCache,
		&api.DefaultSummaryGenerator{},
		api.CoordinatorConfig{
			MaxConcurrentIncidents: settings.MaxConcurrentIncidents,
			DefaultTimeout:         settings.RequestTimeout,
		},
	)
	// Create API handler
	components.handler = api.NewIncidentHandler(coordinator, generator, settings.RequestTimeout)

	return components, nil
}

func loadRules(path string) (*rules.Tables, error) {
	tables, err := rules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load rules %q: %w", path, err)
	}
	return tables, nil
}
