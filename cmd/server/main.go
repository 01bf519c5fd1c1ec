package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"leaksift/internal/config"
	"leaksift/internal/core"
	"leaksift/internal/logging"
	"leaksift/internal/lookup"
	"leaksift/internal/store/memory"
	"leaksift/internal/store/postgres"
	"leaksift/internal/store/redisx"
	"leaksift/internal/store/sqlite"
	"leaksift/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	responses, records, selections, cleanup, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	client := lookup.New(lookup.Config{
		URL:     cfg.Lookup.URL,
		Token:   cfg.Lookup.Token,
		Lang:    cfg.Lookup.Lang,
		Timeout: cfg.Lookup.Timeout,
	})

	service := core.NewService(responses, records, selections, client, cfg.Search.PageSize)
	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// openStores wires the configured storage driver and cache backend, returning
// the three stores and a cleanup function for deferred close.
func openStores(ctx context.Context, cfg *config.Config) (core.ResponseStore, core.RecordStore, core.SelectionStore, func(), error) {
	var (
		responses  core.ResponseStore
		records    core.RecordStore
		selections core.SelectionStore
		cleanup    = func() {}
	)

	switch driver := cfg.Storage.EffectiveDriver(); driver {
	case config.DriverPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		poolConfig.MaxConns = int32(cfg.Storage.MaxConns)
		poolConfig.MinConns = int32(cfg.Storage.MinConns)

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, nil, err
		}

		stores := postgres.New(pool)
		if err := stores.Init(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, nil, err
		}
		responses, records, selections = stores.Responses, stores.Records, stores.Selections
		cleanup = pool.Close
		slog.Info("connected to postgres store")

	case config.DriverSQLite:
		stores, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		responses, records, selections = stores.Responses, stores.Records, stores.Selections
		cleanup = func() { stores.Close() }
		slog.Info("opened sqlite store", "path", cfg.Storage.SQLitePath)

	default: // config.DriverMemory
		responses = memory.NewResponseStore()
		records = memory.NewRecordStore()
		selections = memory.NewSelectionStore()
		slog.Warn("using in-memory store; nothing survives a restart")
	}

	if cfg.Cache.Backend == config.CacheBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, nil, nil, err
		}
		responses = redisx.NewResponseStore(client, cfg.Cache.TTL)

		storeCleanup := cleanup
		cleanup = func() {
			client.Close()
			storeCleanup()
		}
		slog.Info("response cache on redis", "addr", cfg.Cache.RedisAddr)
	}

	return responses, records, selections, cleanup, nil
}
