// Package app wires configuration, logging, metrics and the default service
// providers around a container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/config"
	"github.com/km-arc/go-container/framework/container"
	"github.com/km-arc/go-container/framework/logging"
	"github.com/km-arc/go-container/framework/metrics"
	"github.com/km-arc/go-container/framework/providers"
	"github.com/km-arc/go-container/framework/routing"
)

// Version of the framework.
const Version = "0.1.0"

// ShutdownTimeout bounds graceful shutdown in Run.
var ShutdownTimeout = 10 * time.Second

// Application embeds the container and its provider registry, so user code
// can call app.Bind, app.Singleton and app.Register directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	config *config.Config
	logger *zap.Logger
}

// New loads configuration from envFiles and the process environment, then
// builds the application from it.
func New(envFiles ...string) (*Application, error) {
	return NewFromConfig(config.Load(envFiles...))
}

// NewFromConfig builds the container with the configured logger, depth limit
// and (when enabled) Prometheus recorder, and registers the framework
// providers.
func NewFromConfig(cfg *config.Config) (*Application, error) {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("app: building logger: %w", err)
	}

	opts := []container.Option{
		container.WithLogger(log),
		container.WithMaxDepth(cfg.Container.MaxDepth),
	}
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New(cfg.Metrics.Namespace)
		opts = append(opts, container.WithRecorder(recorder))
	}

	c := container.New(opts...)
	a := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		config:    cfg,
		logger:    log,
	}

	core := []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LoggingServiceProvider{Logger: log},
		&providers.MetricsServiceProvider{Recorder: recorder},
		&providers.ManifestServiceProvider{Path: cfg.Container.Manifest},
		&providers.RoutingServiceProvider{},
	}
	for _, p := range core {
		if err := a.Register(p); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config returns the configuration the application was built with.
func (a *Application) Config() *config.Config { return a.config }

// Logger returns the application logger.
func (a *Application) Logger() *zap.Logger { return a.logger }

// Router resolves the router from the container.
func (a *Application) Router() (*routing.Router, error) {
	return container.Resolve[*routing.Router](a.Container, providers.Router)
}

// Handler boots the application if needed and returns its HTTP handler.
func (a *Application) Handler() (http.Handler, error) {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return nil, err
		}
	}
	router, err := a.Router()
	if err != nil {
		return nil, err
	}
	return router, nil
}

// Run serves HTTP on APP_PORT until ctx is cancelled, then shuts down
// gracefully.
func (a *Application) Run(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + a.config.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("app: listening",
			zap.String("name", a.config.App.Name),
			zap.String("addr", srv.Addr),
			zap.String("env", a.config.App.Env),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	a.logger.Info("app: shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	_ = a.logger.Sync()
	return nil
}

// Environment returns the APP_ENV value.
func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.config.App.Debug }
