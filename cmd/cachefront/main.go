package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cachefront/cachefront/pkg/cache"
	"github.com/cachefront/cachefront/pkg/config"
	"github.com/cachefront/cachefront/pkg/gateway"
	"github.com/cachefront/cachefront/pkg/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
	})

	// Missing core settings do not prevent boot: the gateway answers
	// every request with 500 until they are provided. Anything else
	// invalid is fatal.
	if missing := cfg.MissingSettings(); len(missing) > 0 {
		logger.Warn().
			Strs("missing", missing).
			Msg("Configuration incomplete, all requests will be answered with 500")
	} else if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to set up cache store")
	}
	defer closeStore()

	gw, err := gateway.New(cfg, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create gateway")
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newHandler(gw),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info().
		Str("addr", cfg.ListenAddr).
		Str("environment", cfg.Environment).
		Str("cache_backend", cfg.CacheBackend).
		Str("version", gateway.Version).
		Msg("Server started")

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("Server failed")
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	} else {
		logger.Info().Msg("Server stopped")
	}
}

// newHandler mounts the gateway at the root and the Prometheus endpoint
// beside it. The metrics endpoint is operational surface, not API, so
// it stays outside the gateway's CORS and caching rules.
func newHandler(gw http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", gw)
	return mux
}

// newStore builds the cache store selected by CACHE_BACKEND. The redis
// backend is pinged once at boot so a bad address fails fast instead of
// surfacing as per-request store errors.
func newStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (cache.Store, func(), error) {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis URL: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", opt.Addr, err)
		}
		logger.Info().Str("addr", opt.Addr).Msg("Connected to Redis")
		return cache.NewRedisStore(client), func() { client.Close() }, nil

	case config.BackendMemory:
		logger.Info().Msg("Using in-memory cache store")
		return cache.NewMemoryStore(), func() {}, nil

	case config.BackendSQLite:
		store, err := cache.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite cache store")
		return store, func() { store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q: use redis, memory, or sqlite", cfg.CacheBackend)
	}
}
