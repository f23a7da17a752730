package source

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/glowcart/internal/domain/product"
)

// maxPayloadSize bounds the response body read from the remote catalog.
const maxPayloadSize = 16 << 20

var _ product.Source = (*Remote)(nil)

// RemoteConfig describes the remote catalog endpoint.
type RemoteConfig struct {
	// URL of the product list, without the limit parameter.
	URL string
	// Limit is the number of products requested in the single page.
	Limit int
	// Breaker controls fail-fast behaviour while the upstream is down.
	Breaker BreakerConfig
}

// BreakerConfig controls the circuit breaker in front of the remote catalog.
// An open breaker rejects calls immediately; it never retries them.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker. Zero disables the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a probe through.
	OpenTimeout time.Duration
}

// Remote fetches the product list from the remote catalog over HTTP.
type Remote struct {
	client  *http.Client
	url     string
	breaker *gobreaker.CircuitBreaker[[]product.RawRecord]
}

// NewHTTPClient returns an HTTP client with OpenTelemetry instrumentation.
func NewHTTPClient(timeout time.Duration, tp trace.TracerProvider, mp metric.MeterProvider) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
		),
	}
}

// NewRemote creates a Remote source. lg receives breaker state changes.
func NewRemote(cfg RemoteConfig, client *http.Client, lg *zap.Logger) (*Remote, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse catalog url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("catalog url %q: unsupported scheme", cfg.URL)
	}
	if cfg.Limit > 0 {
		q := u.Query()
		q.Set("limit", strconv.Itoa(cfg.Limit))
		u.RawQuery = q.Encode()
	}

	r := &Remote{
		client: client,
		url:    u.String(),
	}

	if cfg.Breaker.ConsecutiveFailures > 0 {
		threshold := cfg.Breaker.ConsecutiveFailures
		r.breaker = gobreaker.NewCircuitBreaker[[]product.RawRecord](gobreaker.Settings{
			Name:        "catalog-source",
			MaxRequests: 1,
			Timeout:     cfg.Breaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				lg.Warn("Circuit breaker state change",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		})
	}

	return r, nil
}

// URL returns the full request URL including the limit parameter.
func (r *Remote) URL() string {
	return r.url
}

// Fetch requests the full product list.
func (r *Remote) Fetch(ctx context.Context) ([]product.RawRecord, error) {
	if r.breaker == nil {
		return r.fetch(ctx)
	}
	records, err := r.breaker.Execute(func() ([]product.RawRecord, error) {
		return r.fetch(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch catalog")
	}
	return records, nil
}

func (r *Remote) fetch(ctx context.Context) ([]product.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	return DecodePayload(data)
}
