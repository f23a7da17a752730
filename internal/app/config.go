package app

import (
	"net/url"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the catalog server configuration, loadable from environment
// variables (GLOWCART_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Base URL prepended to relative product image paths" flag:"image-base-url"`
	Source       SourceConfig
	Catalog      CatalogConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// SourceConfig selects and tunes the upstream the catalog is fetched from.
type SourceConfig struct {
	URL      string        `default:"https://dummyjson.com/products" usage:"Upstream products endpoint"`
	Limit    int           `default:"50" usage:"Number of products requested from upstream"`
	Timeout  time.Duration `default:"30s" usage:"Upstream HTTP client timeout"`
	Snapshot string        `default:"" usage:"Serve from a gzip snapshot file instead of the upstream"`
	Breaker  BreakerConfig
}

// BreakerConfig controls the circuit breaker around upstream calls.
type BreakerConfig struct {
	ConsecutiveFailures uint32        `default:"5" usage:"Failures that open the breaker, 0 disables it"`
	OpenTimeout         time.Duration `default:"30s" usage:"How long the breaker stays open"`
}

// CatalogConfig tunes the in-memory catalog store.
type CatalogConfig struct {
	Coalesce bool   `default:"false" usage:"Share one upstream fetch between overlapping refreshes"`
	Seed     uint64 `default:"0" usage:"Seed for generated product fields, 0 picks a random seed"`
}

// RateLimitConfig throttles POST /api/refresh per client.
type RateLimitConfig struct {
	RPS   float64 `default:"0.2" usage:"Sustained refresh requests per second per client, 0 disables"`
	Burst int     `default:"3" usage:"Refresh burst size per client"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then applies platform defaults and validates the result.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "GLOWCART",
		Files:     []string{"config.yaml", "/etc/glowcart/config.yaml"},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	ac.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}

	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration that would make the server unusable.
func (c *Config) Validate() error {
	if c.Source.Snapshot == "" {
		u, err := url.Parse(c.Source.URL)
		if err != nil {
			return errors.Wrap(err, "parse source url")
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.Errorf("source url %q: scheme must be http or https", c.Source.URL)
		}
	}
	if c.Source.Limit <= 0 {
		return errors.Errorf("source limit must be positive, got %d", c.Source.Limit)
	}
	if c.Source.Timeout <= 0 {
		return errors.New("source timeout must be positive")
	}
	return nil
}

// applyPlatformDefaults maps the PORT variable set by hosting platforms
// (Railway, Render, etc.) onto Addr unless Addr was configured explicitly.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
