package app

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/glowcart/internal/domain/catalog"
	"github.com/xenking/glowcart/internal/domain/product"
	"github.com/xenking/glowcart/internal/domain/wishlist"
	"github.com/xenking/glowcart/internal/handler"
	"github.com/xenking/glowcart/internal/source"
	"github.com/xenking/glowcart/pkg/health"
	"github.com/xenking/glowcart/pkg/httpmiddleware"
)

// Run creates all dependencies, warms the catalog, starts the HTTP server and
// handles graceful shutdown. It is the single wiring point for the server.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("source", sourceName(cfg.Source)),
	)

	store, err := NewStore(lg, cfg.Source, cfg.Catalog, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}
	wl := wishlist.New()

	// Health check service. Readiness waits for the first successful load.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("catalog", time.Second, health.LoadedCheck(store.Loaded),
		health.StartUnhealthy(), health.Thresholds(1, 1))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(5*time.Second))
	healthSvc.Start(ctx, 5*time.Second)
	defer healthSvc.Stop()

	// Warm-up refresh. A failure is not fatal: the catalog stays empty and
	// readiness stays false until POST /api/refresh succeeds.
	go func() {
		st := store.Refresh(zctx.Base(ctx, lg))
		lg.Info("Initial catalog refresh", zap.Stringer("status", st), zap.Int("count", len(store.Products())))
	}()

	h := handler.NewHandler(handler.HandlerConfig{ImageBaseURL: cfg.ImageBaseURL}, store, wl)
	r := newRouter(ctx, lg, cfg, h, healthSvc)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Refresh waits on the upstream.
		WriteTimeout:   cfg.Source.Timeout + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler: otelhttp.NewHandler(r, "glowcart",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}
	healthSvc.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}

// newRouter mounts the health probes and the API behind the shared
// middleware chain.
func newRouter(ctx context.Context, lg *zap.Logger, cfg *Config, h *handler.Handler, hs *health.Health) chi.Router {
	throttle := httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
		RPS:   cfg.RateLimit.RPS,
		Burst: cfg.RateLimit.Burst,
	})

	r := chi.NewRouter()
	r.Use(
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.LogRequests(),
	)
	r.Get("/livez", hs.LiveEndpoint)
	r.Get("/readyz", hs.ReadyEndpoint)
	r.Mount("/", h.Router(throttle))
	return r
}

// NewStore builds the catalog store and its upstream source from config.
func NewStore(
	lg *zap.Logger,
	src SourceConfig,
	cat CatalogConfig,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*catalog.Store, error) {
	s, err := NewSource(lg, src, tp, mp)
	if err != nil {
		return nil, err
	}

	opts := []catalog.Option{
		catalog.WithTracerProvider(tp),
		catalog.WithMeterProvider(mp),
	}
	if cat.Coalesce {
		opts = append(opts, catalog.WithCoalesce())
	}
	store, err := catalog.NewStore(s, product.NewTransformer(NewRand(cat.Seed)), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create catalog store")
	}
	return store, nil
}

// NewSource returns the snapshot source when one is configured and the
// upstream HTTP source otherwise.
func NewSource(lg *zap.Logger, cfg SourceConfig, tp trace.TracerProvider, mp metric.MeterProvider) (product.Source, error) {
	if cfg.Snapshot != "" {
		return source.NewSnapshot(cfg.Snapshot), nil
	}
	remote, err := source.NewRemote(source.RemoteConfig{
		URL:   cfg.URL,
		Limit: cfg.Limit,
		Breaker: source.BreakerConfig{
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
			OpenTimeout:         cfg.Breaker.OpenTimeout,
		},
	}, source.NewHTTPClient(cfg.Timeout, tp, mp), lg.Named("source"))
	if err != nil {
		return nil, errors.Wrap(err, "create remote source")
	}
	return remote, nil
}

// NewRand returns the generator for synthesized product fields. A zero seed
// draws a random one, so only explicit seeds are reproducible.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

func sourceName(cfg SourceConfig) string {
	if cfg.Snapshot != "" {
		return "snapshot:" + cfg.Snapshot
	}
	return cfg.URL
}
