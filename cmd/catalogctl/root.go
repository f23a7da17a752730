package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appkg "github.com/xenking/glowcart/internal/app"
	"github.com/xenking/glowcart/internal/domain/catalog"
	"github.com/xenking/glowcart/internal/source"
)

type options struct {
	url      string
	limit    int
	timeout  time.Duration
	snapshot string
	seed     uint64
	verbose  bool

	lg *zap.Logger
}

func (o *options) sourceConfig() appkg.SourceConfig {
	return appkg.SourceConfig{
		URL:      o.url,
		Limit:    o.limit,
		Timeout:  o.timeout,
		Snapshot: o.snapshot,
	}
}

func (o *options) store() (*catalog.Store, error) {
	return appkg.NewStore(o.lg, o.sourceConfig(), appkg.CatalogConfig{Seed: o.seed},
		otel.GetTracerProvider(), otel.GetMeterProvider())
}

// remote always talks to the upstream, ignoring --snapshot.
func (o *options) remote() (*source.Remote, error) {
	client := source.NewHTTPClient(o.timeout, otel.GetTracerProvider(), otel.GetMeterProvider())
	return source.NewRemote(source.RemoteConfig{URL: o.url, Limit: o.limit}, client, o.lg)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Inspect the cosmetics catalog and manage snapshots",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := zapcore.WarnLevel
			if opts.verbose {
				level = zapcore.DebugLevel
			}
			cfg := zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(level)
			cfg.OutputPaths = []string{"stderr"}
			lg, err := cfg.Build()
			if err != nil {
				return err
			}
			opts.lg = lg
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.lg != nil {
				_ = opts.lg.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.url, "url", "https://dummyjson.com/products", "upstream products endpoint")
	flags.IntVar(&opts.limit, "limit", 50, "number of products to request")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "upstream request timeout")
	flags.StringVar(&opts.snapshot, "snapshot", "", "read from a gzip snapshot instead of the upstream")
	flags.Uint64Var(&opts.seed, "seed", 0, "seed for generated fields, 0 picks a random seed")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(listCmd(opts), snapshotCmd(opts))
	return root
}
