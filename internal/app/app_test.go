package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/glowcart/internal/domain/product"
	"github.com/xenking/glowcart/internal/domain/wishlist"
	"github.com/xenking/glowcart/internal/handler"
	"github.com/xenking/glowcart/internal/source"
	"github.com/xenking/glowcart/pkg/health"
)

func ptr[T any](v T) *T { return &v }

func writeTestSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json.gz")
	require.NoError(t, source.WriteSnapshot(path, []product.RawRecord{
		{ID: ptr[int64](1), Price: 9.99, Rating: ptr(4.9), Thumbnail: "/1/thumb.png"},
		{ID: ptr[int64](7), Price: 12, Images: []string{"/7/1.png"}},
	}))
	return path
}

type testServer struct {
	srv    *httptest.Server
	health *health.Health
}

func newTestServer(t *testing.T, src SourceConfig) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	lg := zap.NewNop()
	store, err := NewStore(lg, src, CatalogConfig{Seed: 1}, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)

	hs := health.New()
	hs.AddReadinessCheck("catalog", time.Second, health.LoadedCheck(store.Loaded),
		health.StartUnhealthy(), health.Thresholds(1, 1))
	hs.Start(ctx, 5*time.Millisecond)
	t.Cleanup(hs.Stop)
	hs.SetReady(true)

	cfg := &Config{
		ImageBaseURL: "https://cdn.example.com",
		RateLimit:    RateLimitConfig{RPS: 0.01, Burst: 2},
		CORS:         CORSConfig{Origins: []string{"*"}},
	}
	h := handler.NewHandler(handler.HandlerConfig{ImageBaseURL: cfg.ImageBaseURL}, store, wishlist.New())
	srv := httptest.NewServer(newRouter(ctx, lg, cfg, h, hs))
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, health: hs}
}

func (s *testServer) do(t *testing.T, method, path string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, s.srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestServer_SnapshotLifecycle(t *testing.T) {
	s := newTestServer(t, SourceConfig{Snapshot: writeTestSnapshot(t)})

	resp, body := s.do(t, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", body["status"])

	resp, body = s.do(t, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idle", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = s.do(t, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, float64(2), body["count"])

	require.Eventually(t, s.health.IsReady, time.Second, 5*time.Millisecond)

	resp, body = s.do(t, http.MethodGet, "/api/products/7")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, product.TitleFor(7), body["title"])
	assert.Equal(t, float64(10), body["price"])
	assert.Equal(t, "https://cdn.example.com/7/1.png", body["image"])

	resp, body = s.do(t, http.MethodPost, "/api/wishlist/7")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["wishlisted"])

	resp, body = s.do(t, http.MethodGet, "/api/wishlist")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{float64(7)}, body["ids"])
}

func TestServer_RefreshFailureKeepsServing(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	s := newTestServer(t, SourceConfig{URL: upstream.URL, Limit: 50, Timeout: time.Second})

	resp, body := s.do(t, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "failed", body["status"])
	assert.Equal(t, "fetch failed", body["error"])

	resp, _ = s.do(t, http.MethodGet, "/api/products")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RefreshThrottled(t *testing.T) {
	s := newTestServer(t, SourceConfig{Snapshot: writeTestSnapshot(t)})

	for range 2 {
		resp, _ := s.do(t, http.MethodPost, "/api/refresh")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := s.do(t, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, float64(429), body["code"])

	// Reads are not throttled.
	resp, _ = s.do(t, http.MethodGet, "/api/products")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewRand(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for range 10 {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
	assert.NotNil(t, NewRand(0))
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(zap.NewNop(), SourceConfig{Snapshot: "x.json.gz"}, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	assert.IsType(t, &source.Snapshot{}, src)

	src, err = NewSource(zap.NewNop(), SourceConfig{URL: "https://dummyjson.com/products", Limit: 5, Timeout: time.Second},
		tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	assert.IsType(t, &source.Remote{}, src)

	_, err = NewSource(zap.NewNop(), SourceConfig{URL: "ftp://x"}, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	assert.Error(t, err)
}
