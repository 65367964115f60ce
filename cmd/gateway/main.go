package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aidarkhanov/nanoid"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/qaaqit/qbot-gateway/internal/config"
	"github.com/qaaqit/qbot-gateway/internal/conversation"
	"github.com/qaaqit/qbot-gateway/internal/gateway"
	"github.com/qaaqit/qbot-gateway/internal/orchestrate"
	"github.com/qaaqit/qbot-gateway/internal/provider"
	"github.com/qaaqit/qbot-gateway/internal/telemetry"
	"github.com/qaaqit/qbot-gateway/internal/tier"
	"github.com/qaaqit/qbot-gateway/internal/types"
)

var version = "dev"

const requestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	cfg := loader.Config()

	// Connect to PostgreSQL. The gateway starts without it; premium
	// lookups then fail closed to the rate-limited tier.
	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		logger.Warn("failed to create database pool (premium lookups disabled)", "error", err)
		dbPool = nil
	} else if err := dbPool.Ping(context.Background()); err != nil {
		logger.Warn("database not reachable (premium lookups disabled)", "error", err)
		dbPool.Close()
		dbPool = nil
	} else {
		logger.Info("database connected")
		defer dbPool.Close()
	}

	// Connect to Redis
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable (thread reuse, premium cache and quota disabled)", "error", err)
			rdb = nil
		} else {
			logger.Info("redis connected")
		}
	}

	// Build provider registry
	registry := provider.BuildFromConfig(loader.Providers())
	loader.OnReload(func() {
		registry.Swap(provider.BuildFromConfig(loader.Providers()))
		logger.Info("provider registry reloaded")
	})

	var oracle tier.PremiumOracle
	if dbPool != nil {
		oracle = tier.NewSubscriptionStore(dbPool, rdb)
	}
	resolver := tier.NewResolver(oracle, cfg.Tier.Allowlist)

	health := provider.NewHealthTracker(
		cfg.Orchestrator.CircuitBreaker.FailureThreshold,
		cfg.Orchestrator.CircuitBreaker.RecoveryProbeInterval,
	)

	metrics := telemetry.NewMetrics()

	orchestrator := orchestrate.New(orchestrate.Options{
		Registry:      registry,
		Health:        health,
		Conversations: conversation.NewStore(rdb),
		Resolver:      resolver,
		Strategy:      orchestrate.PriorityStrategy{Default: types.ProviderID(cfg.Orchestrator.DefaultProvider)},
		Limits: func() tier.Limits {
			minWords, maxWords := loader.Config().Tier.Limits()
			return tier.Limits{MinWords: minWords, MaxWords: maxWords}
		},
		AttemptTimeout: cfg.Orchestrator.AttemptTimeout,
		Metrics:        metrics,
	})

	handler := gateway.NewHandler(orchestrator, registry, resolver, tier.NewQuotaTracker(rdb), func() *config.Config {
		return loader.Config()
	})

	// Router setup
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)

	r.Get("/qbot/v1/health", healthHandler)
	r.Post("/v1/respond", handler.Respond)
	r.Get("/v1/providers", handler.ListProviders)

	// Metrics on a separate port
	go func() {
		metricsAddr := fmt.Sprintf(":%d", cfg.Telemetry.MetricsPort)
		logger.Info("metrics listening", "addr", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, promhttp.Handler()); err != nil {
			logger.Error("metrics server error", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": version,
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			id, _ := nanoid.Generate(requestIDAlphabet, 21)
			reqID = "req_" + id
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}
