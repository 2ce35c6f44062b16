package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cachefront/cachefront/pkg/cache"
	"github.com/cachefront/cachefront/pkg/config"
	"github.com/cachefront/cachefront/pkg/gateway"
)

func TestNewStoreMemory(t *testing.T) {
	cfg := config.Default()
	cfg.CacheBackend = config.BackendMemory

	store, cleanup, err := newStore(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newStore failed: %v", err)
	}
	defer cleanup()

	if _, ok := store.(*cache.MemoryStore); !ok {
		t.Errorf("store = %T, want *cache.MemoryStore", store)
	}
}

func TestNewStoreSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.CacheBackend = config.BackendSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "cache.db")

	store, cleanup, err := newStore(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newStore failed: %v", err)
	}
	defer cleanup()

	if _, ok := store.(*cache.SQLiteStore); !ok {
		t.Errorf("store = %T, want *cache.SQLiteStore", store)
	}
}

func TestNewStoreErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		errorMsg string
	}{
		{
			name: "unknown backend",
			mutate: func(c *config.Config) {
				c.CacheBackend = "memcached"
			},
			errorMsg: "unknown cache backend",
		},
		{
			name: "malformed redis URL",
			mutate: func(c *config.Config) {
				c.CacheBackend = config.BackendRedis
				c.RedisURL = "://not-a-url"
			},
			errorMsg: "redis URL",
		},
		{
			name: "unreachable redis",
			mutate: func(c *config.Config) {
				c.CacheBackend = config.BackendRedis
				c.RedisURL = "redis://127.0.0.1:1/0"
			},
			errorMsg: "connecting to redis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			_, _, err := newStore(ctx, cfg, zerolog.Nop())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.errorMsg)
			}
		})
	}
}

func TestNewHandler(t *testing.T) {
	cfg := config.Default()
	cfg.UpstreamURL = "http://backend.internal"
	cfg.UpstreamKey = "service-key"
	cfg.PurgeSecret = "purge-secret"

	gw, err := gateway.New(cfg, cache.NewMemoryStore())
	if err != nil {
		t.Fatalf("gateway.New failed: %v", err)
	}

	handler := newHandler(gw)

	t.Run("metrics endpoint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req.Header.Set("Origin", "https://rogue.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "go_goroutines") {
			t.Error("expected Prometheus exposition output")
		}
		// The metrics endpoint sits outside the gateway's CORS surface.
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("gateway mounted at root", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "cachefront") {
			t.Errorf("body = %q, want service status payload", rec.Body.String())
		}
	})

	t.Run("gateway counters exported", func(t *testing.T) {
		// The /health request above went through the gateway, so its request
		// counter must show up on the next scrape.
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if !strings.Contains(rec.Body.String(), "edge_requests_total") {
			t.Error("expected edge_requests_total in metrics output")
		}
	})
}
