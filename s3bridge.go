// Package s3bridge assembles the storage adapter and its tool registry from
// application configuration. It is the integration surface for hosting
// frameworks: build a Bridge, hand its Registry to the agent runtime, and
// every storage operation becomes callable by name.
package s3bridge

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/s3bridge/s3bridge/internal/config"
	"github.com/s3bridge/s3bridge/internal/credentials"
	"github.com/s3bridge/s3bridge/internal/metrics"
	storages3 "github.com/s3bridge/s3bridge/internal/storage/s3"
	"github.com/s3bridge/s3bridge/pkg/tool"
)

// Bridge wires the storage adapter, tool registry and metrics together.
type Bridge struct {
	adapter  *storages3.Adapter
	registry *tool.Registry
	metrics  *metrics.Collector
	cfg      *config.Configuration
	logger   *slog.Logger
}

// New builds a Bridge from configuration. A nil configuration uses defaults
// with credentials resolved from the environment.
func New(cfg *config.Configuration, opts ...Option) (*Bridge, error) {
	if cfg == nil {
		cfg = config.NewDefault()
		if err := cfg.LoadFromEnv(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	b := &Bridge{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = newLogger(cfg.Global)
	}
	if b.metrics == nil && cfg.Metrics.Enabled {
		b.metrics = metrics.NewCollector(cfg.Metrics.Namespace)
	}

	if b.adapter == nil {
		provider := providerFor(cfg.Credentials)
		adapterOpts := []storages3.Option{
			storages3.WithLogger(b.logger.With("component", "s3-adapter")),
		}
		if b.metrics != nil {
			adapterOpts = append(adapterOpts, storages3.WithMetrics(b.metrics))
		}
		b.adapter = storages3.New(provider, storageConfig(cfg.Storage), adapterOpts...)
	}

	b.registry = tool.NewRegistry()
	if err := b.adapter.Register(b.registry); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	b.logger.Info("bridge initialized", "tools", len(b.registry.Names()))
	return b, nil
}

// Option configures a Bridge before assembly.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// WithAdapter injects a pre-built adapter. Used by tests and by callers that
// construct the adapter with an injected client.
func WithAdapter(a *storages3.Adapter) Option {
	return func(b *Bridge) { b.adapter = a }
}

// WithCollector injects a metrics collector, overriding the configured one.
func WithCollector(c *metrics.Collector) Option {
	return func(b *Bridge) { b.metrics = c }
}

// Adapter returns the storage adapter.
func (b *Bridge) Adapter() *storages3.Adapter { return b.adapter }

// Registry returns the tool registry with all operations registered.
func (b *Bridge) Registry() *tool.Registry { return b.registry }

// MetricsHandler returns the HTTP handler serving operation metrics, or nil
// when metrics are disabled.
func (b *Bridge) MetricsHandler() http.Handler {
	if b.metrics == nil {
		return nil
	}
	return b.metrics.Handler()
}

// providerFor picks the credential provider: explicit configuration when any
// key material is present, otherwise the process environment.
func providerFor(cfg config.CredentialsConfig) credentials.Provider {
	resolved := credentials.FromMap(cfg.Map())
	if resolved.AccessKeyID == "" && resolved.SecretAccessKey == "" {
		return credentials.Env{}
	}
	return &credentials.Static{Value: resolved}
}

func storageConfig(cfg config.StorageConfig) *storages3.Config {
	return &storages3.Config{
		Region:                     cfg.Region,
		Endpoint:                   cfg.Endpoint,
		ForcePathStyle:             cfg.ForcePathStyle,
		MaxRetries:                 cfg.MaxRetries,
		ConnectTimeout:             cfg.ConnectTimeout,
		RequestTimeout:             cfg.RequestTimeout,
		EnableAcceleratedUpload:    cfg.EnableAcceleratedUpload,
		AcceleratedUploadThreshold: cfg.AcceleratedUploadThreshold,
		UploadConcurrency:          cfg.UploadConcurrency,
	}
}

func newLogger(cfg config.GlobalConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := os.Stderr
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			out = f
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}
