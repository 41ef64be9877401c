// Package providers holds the service providers the application kernel
// registers by default.
package providers

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/config"
	"github.com/km-arc/go-container/framework/container"
	gohttp "github.com/km-arc/go-container/framework/http"
	"github.com/km-arc/go-container/framework/logging"
	"github.com/km-arc/go-container/framework/metrics"
	"github.com/km-arc/go-container/framework/routing"
)

// Abstracts bound by the providers in this package.
const (
	Config  = "config"
	Logger  = "logger"
	Metrics = "metrics"
	Router  = "router"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration.
//
// Bound abstracts:
//   - "config"        → *config.Config
//   - "configuration" → alias of "config"
//
// A preloaded Config is bound as an instance; otherwise EnvFiles are loaded
// on first resolution.
type ConfigServiceProvider struct {
	container.BaseProvider
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	if p.Config != nil {
		app.Instance(Config, p.Config).Alias("configuration")
		return nil
	}
	envFiles := p.EnvFiles
	app.Singleton(Config, func(*container.Container) (any, error) {
		return config.Load(envFiles...), nil
	}).Alias("configuration")
	return nil
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the zap logger.
//
// Bound abstracts:
//   - "logger" → *zap.Logger
//
// Without a preset Logger one is built from the "config" log section.
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	if p.Logger != nil {
		app.Instance(Logger, p.Logger).Alias("log")
		return nil
	}
	app.Singleton(Logger, func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Config](c, Config)
		if err != nil {
			return nil, err
		}
		return logging.New(cfg.Log)
	}).Alias("log")
	return nil
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider binds the Prometheus recorder. It is deferred: the
// recorder is bound when "metrics" is first resolved.
//
// Bound abstracts:
//   - "metrics" → *metrics.Recorder
type MetricsServiceProvider struct {
	container.BaseProvider
	Recorder *metrics.Recorder
}

func (p *MetricsServiceProvider) Provides() []string { return []string{Metrics} }
func (p *MetricsServiceProvider) IsDeferred() bool   { return true }

func (p *MetricsServiceProvider) Register(app *container.Container) error {
	if p.Recorder != nil {
		app.Instance(Metrics, p.Recorder)
		return nil
	}
	app.Singleton(Metrics, func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Config](c, Config)
		if err != nil {
			return nil, err
		}
		return metrics.New(cfg.Metrics.Namespace), nil
	})
	return nil
}

// ── ManifestServiceProvider ───────────────────────────────────────────────────

// ManifestServiceProvider applies a YAML binding manifest. An empty Path is a
// no-op.
type ManifestServiceProvider struct {
	container.BaseProvider
	Path string
}

func (p *ManifestServiceProvider) Register(app *container.Container) error {
	if p.Path == "" {
		return nil
	}
	m, err := config.LoadManifest(p.Path)
	if err != nil {
		return err
	}
	return m.Apply(app)
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router and, at boot, mounts the
// container inspector under /container when enabled and the metrics handler
// under /metrics when enabled.
//
// Bound abstracts:
//   - "router" → *routing.Router
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	app.Singleton(Router, func(c *container.Container) (any, error) {
		var log *zap.Logger
		if c.Has(Logger) {
			l, err := container.Resolve[*zap.Logger](c, Logger)
			if err != nil {
				return nil, err
			}
			log = l
		}
		return routing.New(log), nil
	})
	return nil
}

func (p *RoutingServiceProvider) Boot(app *container.Container) error {
	router, err := container.Resolve[*routing.Router](app, Router)
	if err != nil {
		return err
	}
	cfg, err := container.Resolve[*config.Config](app, Config)
	if err != nil {
		return err
	}

	if cfg.Container.Inspect {
		router.Route("/container", gohttp.NewInspector(app).Routes)
	}
	if cfg.Metrics.Enabled {
		rec, err := container.Resolve[*metrics.Recorder](app, Metrics)
		if err != nil {
			return err
		}
		router.Mount("/metrics", rec.Handler())
	}
	return nil
}
