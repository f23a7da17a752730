// Package catalog holds the in-memory product catalog and its load state.
//
// A Store is refreshed as a whole: every successful refresh replaces the held
// product sequence, a failed one keeps it and only flips the status. Readers
// always see a complete sequence, either the one before or the one after a
// refresh.
package catalog

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/glowcart/internal/domain/product"
)

const instrumentationName = "github.com/xenking/glowcart/internal/domain/catalog"

// Option configures a Store.
type Option func(*Store)

// WithCoalesce makes concurrent Refresh calls share a single in-flight
// request to the source instead of each issuing their own.
func WithCoalesce() Option {
	return func(s *Store) {
		s.coalesce = true
	}
}

// WithMeterProvider sets the meter provider used for refresh metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Store) {
		s.meterProvider = mp
	}
}

// WithTracerProvider sets the tracer provider used for refresh spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Store) {
		s.tracerProvider = tp
	}
}

// Store owns the product collection and its load state.
//
// Each Refresh takes a sequence number when it starts. A completion is applied
// only if its sequence number is higher than the last applied one, so an old
// response arriving late never overwrites a newer one.
type Store struct {
	src product.Source
	tr  *product.Transformer

	coalesce bool
	group    singleflight.Group

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	refreshes      metric.Int64Counter
	duration       metric.Float64Histogram

	// mu protects everything below.
	mu       sync.RWMutex
	products []product.Product
	byID     map[int64]int
	status   Status
	started  uint64
	applied  uint64
	loaded   bool
}

// NewStore creates an Idle Store that loads products from src and normalizes
// them with tr.
func NewStore(src product.Source, tr *product.Transformer, opts ...Option) (*Store, error) {
	s := &Store{
		src:            src,
		tr:             tr,
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
		byID:           map[int64]int{},
	}
	for _, o := range opts {
		o(s)
	}

	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	if s.refreshes, err = meter.Int64Counter("catalog.refresh.count",
		metric.WithDescription("Catalog refresh attempts by result"),
	); err != nil {
		return nil, errors.Wrap(err, "create refresh counter")
	}
	if s.duration, err = meter.Float64Histogram("catalog.refresh.duration",
		metric.WithDescription("Time spent waiting for the remote catalog"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, errors.Wrap(err, "create refresh histogram")
	}
	s.tracer = s.tracerProvider.Tracer(instrumentationName)

	return s, nil
}

// Refresh reloads the catalog from the source and returns the resulting
// status. Failures are never returned as errors: they are recorded in the
// status as ErrRefreshFailed and the previous products are kept.
func (s *Store) Refresh(ctx context.Context) Status {
	if !s.coalesce {
		return s.refresh(ctx)
	}

	// Joined callers must not be failed by the first caller's cancellation.
	shared := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do("refresh", func() (any, error) {
		return s.refresh(shared), nil
	})
	return v.(Status)
}

func (s *Store) refresh(ctx context.Context) Status {
	seq := s.begin()
	lg := zctx.From(ctx).With(zap.Uint64("seq", seq))

	ctx, span := s.tracer.Start(ctx, "catalog.Refresh",
		trace.WithAttributes(attribute.Int64("catalog.refresh.seq", int64(seq))),
	)
	defer span.End()

	start := time.Now()
	records, err := s.src.Fetch(ctx)
	s.duration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrRefreshFailed.Error())
		lg.Warn("Catalog refresh failed", zap.Error(err))
	}

	status, applied := s.commit(seq, records, err)
	switch {
	case !applied:
		s.record(ctx, "stale")
		lg.Info("Discarded stale catalog refresh")
	case err != nil:
		s.record(ctx, "failed")
	default:
		s.record(ctx, "ok")
		lg.Info("Catalog refreshed", zap.Int("products", len(records)))
	}

	return status
}

// begin assigns the next sequence number and marks the store Loading.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.started++
	s.status = Status{Phase: Loading}
	return s.started
}

// commit applies the outcome of refresh seq unless a later refresh has
// already been applied. Transformation runs under the lock so the
// Transformer's random source is never used concurrently.
func (s *Store) commit(seq uint64, records []product.RawRecord, fetchErr error) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied {
		return s.status, false
	}
	s.applied = seq

	if fetchErr != nil {
		s.status = Status{Phase: Failed, Err: ErrRefreshFailed}
		return s.status, true
	}

	products := s.tr.TransformAll(records)
	byID := make(map[int64]int, len(products))
	for i, p := range products {
		if _, dup := byID[p.ID]; !dup {
			byID[p.ID] = i
		}
	}

	s.products = products
	s.byID = byID
	s.loaded = true
	s.status = Status{Phase: Ready}
	return s.status, true
}

func (s *Store) record(ctx context.Context, result string) {
	s.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// Products returns the current product sequence. It may be stale after a
// failed refresh and is empty until the first successful one.
func (s *Store) Products() []product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.products)
}

// Product returns the product with the given id from the current sequence.
func (s *Store) Product(id int64) (product.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return product.Product{}, false
	}
	return s.products[i], true
}

// Len returns the number of products in the current sequence.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.products)
}

// Status returns the current load state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// Loaded reports whether at least one refresh has succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loaded
}
