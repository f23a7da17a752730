package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRemote(t *testing.T, srvURL string, breaker BreakerConfig) *Remote {
	t.Helper()
	r, err := NewRemote(RemoteConfig{
		URL:     srvURL + "/products",
		Limit:   50,
		Breaker: breaker,
	}, &http.Client{Timeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	return r
}

func TestRemote_Fetch(t *testing.T) {
	var gotQuery, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("limit")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	records, err := newTestRemote(t, srv.URL, BreakerConfig{}).Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, int64(1), *records[0].ID)
	assert.Equal(t, int64(7), *records[1].ID)
	assert.Equal(t, "50", gotQuery)
	assert.Equal(t, "application/json", gotAccept)
}

func TestRemote_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestRemote(t, srv.URL, BreakerConfig{}).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}

func TestRemote_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	_, err := newTestRemote(t, srv.URL, BreakerConfig{}).Fetch(context.Background())
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestRemote_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestRemote(t, addr, BreakerConfig{}).Fetch(context.Background())
	require.Error(t, err)
}

func TestRemote_BreakerOpensAndFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := newTestRemote(t, srv.URL, BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for range 2 {
		_, err := r.Fetch(context.Background())
		require.Error(t, err)
	}

	_, err := r.Fetch(context.Background())
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load())
}

func TestNewRemote_InvalidURL(t *testing.T) {
	for _, u := range []string{"ftp://example.com/products", "://bad", ""} {
		_, err := NewRemote(RemoteConfig{URL: u}, http.DefaultClient, zap.NewNop())
		assert.Error(t, err, "url %q", u)
	}
}

func TestNewRemote_KeepsExistingQuery(t *testing.T) {
	r, err := NewRemote(RemoteConfig{
		URL:   "https://dummyjson.com/products?select=title,price",
		Limit: 10,
	}, http.DefaultClient, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "https://dummyjson.com/products?limit=10&select=title%2Cprice", r.URL())
}
