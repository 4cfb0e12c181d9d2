package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/FR-TheFury/medic-ai-sub000/internal/api"
	"github.com/FR-TheFury/medic-ai-sub000/internal/config"
	"github.com/FR-TheFury/medic-ai-sub000/internal/core"
	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/repository"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/apiclient"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/notify"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/querycache"
	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
	"github.com/go-redis/redis/v8"
)

func main() {
	cfg := config.MustLoad()

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notices := notify.NewCenter(50)

	// Session store
	var sessionStore repository.SessionStore
	switch cfg.Session.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", "addr", cfg.Session.RedisAddr, "error", err)
		}
		sessionStore = repository.NewRedisSessionStore(rdb, cfg.Session.RedisKey)
	default:
		sessionStore = repository.NewFileSessionStore(cfg.Session.FilePath)
	}

	session, err := core.NewSession(ctx, sessionStore, notices, log, core.SessionOptions{MockFallback: cfg.Auth.MockFallback})
	if err != nil {
		log.Fatal("Failed to restore session", "error", err)
	}

	client := apiclient.New(apiclient.Options{
		BaseURL:      cfg.API.BaseURL,
		Timeout:      config.Seconds(cfg.API.Timeout),
		ProbeTimeout: config.Seconds(cfg.API.ProbeTimeout),
	}, session, notices, log)
	session.SetBackend(client.Auth)

	cache, err := querycache.New(querycache.Config{
		MaxSizeMB:    cfg.Cache.MaxSizeMB,
		CounterSize:  cfg.Cache.CounterSize,
		DefaultTTL:   config.Seconds(cfg.Cache.CatalogTTL),
		FetchTimeout: config.Seconds(cfg.API.Timeout),
		TTLs:         core.CacheTTLs(config.Seconds(cfg.Cache.CatalogTTL), config.Seconds(cfg.Cache.RecordsTTL)),
	}, log)
	if err != nil {
		log.Fatal("Failed to create query cache", "error", err)
	}
	defer cache.Close()

	monitor := core.NewMonitor(client, core.MonitorOptions{
		Interval: config.Seconds(cfg.API.ProbeInterval),
		Burst:    cfg.API.ProbeBurst,
	}, log)
	go monitor.Run(ctx)

	// Snapshots and prediction runs
	var (
		snapshots repository.SnapshotStore = repository.NewMemorySnapshotStore()
		recorder  repository.PredictionRecorder
	)
	if cfg.Snapshot.PostgresURL != "" {
		postgresRepo, err := repository.NewPostgresRepository(cfg.Snapshot.PostgresURL)
		if err != nil {
			log.Fatal("Failed to connect to Postgres", "error", err)
		}
		defer postgresRepo.Close()
		if err := postgresRepo.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare schema", "error", err)
		}
		snapshots = postgresRepo
		if cfg.Predictions.RecordRuns {
			recorder = repository.NewPostgresPredictionRecorder(postgresRepo.DB)
		}
	}

	var geo repository.GeoLocator
	if cfg.Geo.OverpassURL != "" {
		geo = repository.NewOverpassRepository(cfg.Geo.OverpassURL, config.Seconds(cfg.Geo.Timeout))
	}

	catalog := core.NewCatalog(client, cache, notices, geo, log)
	handler := api.NewHandler(api.Services{
		Session:     session,
		Monitor:     monitor,
		Notices:     notices,
		Dashboard:   core.NewDashboardService(catalog, monitor, snapshots, log),
		Catalog:     catalog,
		Predictions: core.NewPredictionService(client.Predictions, recorder, notices, log),
	}, log)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  config.Seconds(cfg.Server.ReadTimeout),
		WriteTimeout: config.Seconds(cfg.Server.WriteTimeout),
	}

	go func() {
		log.Info("Starting server", "addr", cfg.Server.Addr, "api", cfg.API.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Seconds(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	log.Info("Server stopped")
}
