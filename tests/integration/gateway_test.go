package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cachefront/cachefront/internal/testutil"
	"github.com/cachefront/cachefront/pkg/cache"
	"github.com/cachefront/cachefront/pkg/client"
	"github.com/cachefront/cachefront/pkg/config"
	"github.com/cachefront/cachefront/pkg/gateway"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// setupEdge starts a gateway in front of the mock backend and returns a
// client pointed at it.
func setupEdge(t *testing.T, store cache.Store, backend *testutil.MockBackend) (*client.Client, func()) {
	t.Helper()

	cfg := config.Default()
	cfg.UpstreamURL = backend.URL()
	cfg.UpstreamKey = "integration-service-key"
	cfg.PurgeSecret = "integration-purge-secret"
	cfg.MasterData = []string{"products", "categories"}
	cfg.Transactional = []string{"orders"}
	cfg.MasterDataTTL = time.Hour

	gw, err := gateway.New(cfg, store)
	if err != nil {
		t.Fatalf("Failed to create gateway: %v", err)
	}

	edge := httptest.NewServer(gw)

	clientCfg := client.DefaultConfig(edge.URL)
	clientCfg.PurgeSecret = "integration-purge-secret"

	edgeClient, err := client.New(clientCfg)
	if err != nil {
		edge.Close()
		t.Fatalf("Failed to create client: %v", err)
	}

	return edgeClient, edge.Close
}

// TestProxyCacheFlow tests the complete flow: miss → background store → hit.
func TestProxyCacheFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	backend := testutil.NewMockBackend()
	defer backend.Close()
	backend.SetResponse("/rest/v1/products", testutil.NewJSONResponse(`[{"id": 1, "name": "Widget"}]`))

	edgeClient, closeEdge := setupEdge(t, cache.NewRedisStore(redisClient), backend)
	defer closeEdge()

	ctx := context.Background()

	// Request 1: cache miss, proxied to the backend
	t.Log("Request 1: cache miss")
	resp1, err := edgeClient.Get(ctx, "/rest/v1/products")
	if err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}
	if resp1.StatusCode != 200 {
		t.Errorf("Request 1 status = %d, want 200", resp1.StatusCode)
	}
	if resp1.CacheStatus != client.CacheMiss {
		t.Errorf("Request 1 cache status = %q, want MISS", resp1.CacheStatus)
	}
	if backend.GetRequestCount() != 1 {
		t.Errorf("After request 1: backend requests = %d, want 1", backend.GetRequestCount())
	}

	// Wait for the background cache write
	time.Sleep(100 * time.Millisecond)

	// Request 2: served from Redis without a backend round trip
	t.Log("Request 2: cache hit")
	resp2, err := edgeClient.Get(ctx, "/rest/v1/products")
	if err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}
	if resp2.CacheStatus != client.CacheHit {
		t.Errorf("Request 2 cache status = %q, want HIT", resp2.CacheStatus)
	}
	if backend.GetRequestCount() != 1 {
		t.Errorf("After request 2: backend requests = %d, want 1 (served from cache)", backend.GetRequestCount())
	}

	if string(resp1.Body) != string(resp2.Body) {
		t.Errorf("Cached body = %s, want %s", string(resp2.Body), string(resp1.Body))
	}
}

// TestTransactionalNeverCached tests that volatile resources bypass the cache.
func TestTransactionalNeverCached(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	backend := testutil.NewMockBackend()
	defer backend.Close()
	backend.SetResponse("/rest/v1/orders", testutil.NewJSONResponse(`[{"id": 41, "status": "open"}]`))

	edgeClient, closeEdge := setupEdge(t, cache.NewRedisStore(redisClient), backend)
	defer closeEdge()

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := edgeClient.Get(ctx, "/rest/v1/orders")
		if err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
		if resp.CacheStatus != client.CacheNone {
			t.Errorf("Request %d cache status = %q, want none", i+1, resp.CacheStatus)
		}
	}

	// Every request reached the backend
	if backend.GetRequestCount() != 2 {
		t.Errorf("Backend requests = %d, want 2", backend.GetRequestCount())
	}
}

// TestPurgeFlow tests purge invalidation end to end.
func TestPurgeFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	backend := testutil.NewMockBackend()
	defer backend.Close()
	backend.SetResponse("/rest/v1/categories", testutil.NewJSONResponse(`[{"id": 7}]`))

	edgeClient, closeEdge := setupEdge(t, cache.NewRedisStore(redisClient), backend)
	defer closeEdge()

	ctx := context.Background()

	// Populate the cache
	if _, err := edgeClient.Get(ctx, "/rest/v1/categories"); err != nil {
		t.Fatalf("Populate request failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	// Purge removes the entry
	result, err := edgeClient.Purge(ctx, "/rest/v1/categories")
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if !result.Purged {
		t.Error("Purged = false, want true")
	}

	// A second purge finds nothing
	result2, err := edgeClient.Purge(ctx, "/rest/v1/categories")
	if err != nil {
		t.Fatalf("Second purge failed: %v", err)
	}
	if result2.Purged {
		t.Error("Second purge reported purged = true, want false")
	}

	// The next GET misses and hits the backend again
	resp, err := edgeClient.Get(ctx, "/rest/v1/categories")
	if err != nil {
		t.Fatalf("Request after purge failed: %v", err)
	}
	if resp.CacheStatus != client.CacheMiss {
		t.Errorf("Cache status after purge = %q, want MISS", resp.CacheStatus)
	}
	if backend.GetRequestCount() != 2 {
		t.Errorf("Backend requests = %d, want 2", backend.GetRequestCount())
	}
}

// TestUpstreamCredentials tests that the proxy injects the service
// credentials on forwarded requests.
func TestUpstreamCredentials(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	backend := testutil.NewMockBackend()
	defer backend.Close()

	edgeClient, closeEdge := setupEdge(t, cache.NewRedisStore(redisClient), backend)
	defer closeEdge()

	if _, err := edgeClient.Get(context.Background(), "/rest/v1/orders"); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	header := backend.GetLastRequestHeader()
	if got := header.Get("apikey"); got != "integration-service-key" {
		t.Errorf("apikey = %q, want integration-service-key", got)
	}
	if got := header.Get("Authorization"); got != "Bearer integration-service-key" {
		t.Errorf("Authorization = %q, want Bearer integration-service-key", got)
	}
}

// TestStoreFailureFailsOpen tests that a dead Redis does not take the
// proxy down: requests still reach the backend.
func TestStoreFailureFailsOpen(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	backend := testutil.NewMockBackend()
	defer backend.Close()
	backend.SetResponse("/rest/v1/products", testutil.NewJSONResponse(`[{"id": 1}]`))

	edgeClient, closeEdge := setupEdge(t, cache.NewRedisStore(redisClient), backend)
	defer closeEdge()

	// Kill the store out from under the gateway
	redisClient.Close()

	resp, err := edgeClient.Get(context.Background(), "/rest/v1/products")
	if err != nil {
		t.Fatalf("Request failed with dead store: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
	if resp.CacheStatus != client.CacheMiss {
		t.Errorf("Cache status = %q, want MISS (lookup failure treated as miss)", resp.CacheStatus)
	}
	if backend.GetRequestCount() != 1 {
		t.Errorf("Backend requests = %d, want 1", backend.GetRequestCount())
	}
}
