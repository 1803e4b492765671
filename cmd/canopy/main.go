package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"github.com/verdantlabs/canopy/pkg/api"
	"github.com/verdantlabs/canopy/pkg/auth"
	"github.com/verdantlabs/canopy/pkg/config"
	"github.com/verdantlabs/canopy/pkg/greenhouse"
	"github.com/verdantlabs/canopy/pkg/observability"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "Run database migrations and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger = logger.WithField("service", "canopy")

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if err := greenhouse.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("database migrations applied")

	if *migrateOnly {
		return
	}

	svc := greenhouse.NewServiceWithCache(db, cfg.Policy.ACLCacheSize, cfg.Policy.ACLCacheTTL)
	tokens := auth.NewTokenManager(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	// Periodic cleanup of expired tokens
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Auth.TokenCleanupSchedule, func() {
		n, err := tokens.CleanupExpiredTokens(context.Background())
		if err != nil {
			logger.WithError(err).Error("token cleanup failed")
			return
		}
		if n > 0 {
			metrics.TokensCleanedUp.Add(float64(n))
			logger.WithField("removed", n).Info("expired tokens removed")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule token cleanup: %v", err)
	}
	_, err = scheduler.AddFunc("@every 30s", func() {
		collectStats(db, svc, tokens, metrics, logger)
	})
	if err != nil {
		log.Fatalf("Failed to schedule stats collection: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	opts := []api.Option{api.WithTokenTTL(cfg.Auth.TokenTTL)}
	if cfg.Observability.MetricsEnabled {
		opts = append(opts, api.WithMetrics(metrics))
	}
	server := api.NewServer(svc, tokens, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux(db, registry),
	}
	go func() {
		logger.WithField("addr", healthSrv.Addr).Info("health server listening")
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("health server failed")
		}
	}()

	apiSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	go func() {
		logger.WithField("addr", apiSrv.Addr).Info("API server listening")
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("API server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("API server shutdown failed")
	}
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("health server shutdown failed")
	}
}

// collectStats refreshes the pool and business gauges
func collectStats(db *sql.DB, svc *greenhouse.Service, tokens *auth.TokenManager, metrics *observability.Metrics, logger *observability.Logger) {
	ctx := context.Background()

	pool := db.Stats()
	metrics.DBConnectionsActive.Set(float64(pool.InUse))
	metrics.DBConnectionsIdle.Set(float64(pool.Idle))

	stats, err := svc.Stats(ctx)
	if err != nil {
		logger.WithError(err).Warn("stats collection failed")
		return
	}
	metrics.GreenhousesTotal.Set(float64(stats.Greenhouses))
	metrics.ActiveUsersTotal.Set(float64(stats.ActiveUsers))

	active, err := tokens.CountActiveTokens(ctx)
	if err != nil {
		logger.WithError(err).Warn("token count failed")
		return
	}
	metrics.APITokensActive.Set(float64(active))
}

// healthMux exposes liveness and metrics on the internal port
func healthMux(db *sql.DB, registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", observability.MetricsHandler(registry))
	return mux
}
