package container

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related bindings.
//
// Register binds services into the container and must not resolve anything.
// Boot runs after every provider has been registered, so it may resolve any
// binding.
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    app.Singleton("logger", func(c *container.Container) (any, error) {
//	        cfg, err := container.Resolve[*config.Config](c, "config")
//	        if err != nil {
//	            return nil, err
//	        }
//	        return logging.New(cfg.Log)
//	    })
//	    return nil
//	}
type ServiceProvider interface {
	Register(app *Container) error
	Boot(app *Container) error

	// Provides lists the abstracts a deferred provider registers.
	Provides() []string

	// IsDeferred reports whether Register should wait until one of
	// Provides() is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op for Boot, Provides and IsDeferred.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders, loading deferred
// providers on first use of one of their abstracts. Deferred loading is safe
// from concurrent Gets: each provider is registered at most once, and a failed
// Register restores its placeholders so the next Get retries.
type ProviderRegistry struct {
	app *Container

	mu       sync.Mutex
	eager    []ServiceProvider
	deferred map[string]ServiceProvider // abstract → provider
	seen     map[ServiceProvider]bool
	loaders  map[ServiceProvider]*loader
	booted   bool
}

// loader serialises the loading of one deferred provider.
type loader struct {
	mu   sync.Mutex
	done bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:      app,
		deferred: make(map[string]ServiceProvider),
		seen:     make(map[ServiceProvider]bool),
		loaders:  make(map[ServiceProvider]*loader),
	}
}

// Register adds a provider. Eager providers are registered at once, and booted
// at once when the registry has already booted. Registering the same provider
// twice is a no-op.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.seen[provider] {
		r.mu.Unlock()
		return nil
	}
	r.seen[provider] = true

	if provider.IsDeferred() {
		r.loaders[provider] = &loader{}
		for _, abstract := range provider.Provides() {
			r.deferred[abstract] = provider
		}
		r.mu.Unlock()
		r.intercept(provider)
		return nil
	}
	r.mu.Unlock()

	if err := provider.Register(r.app); err != nil {
		r.mu.Lock()
		delete(r.seen, provider)
		r.mu.Unlock()
		return fmt.Errorf("container: registering %T: %w", provider, err)
	}

	r.mu.Lock()
	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	if booted {
		return r.boot(provider)
	}
	return nil
}

// intercept binds a placeholder for every abstract of a deferred provider.
// The first resolution of any of them registers (and, after Boot, boots) the
// provider, then resolves the real binding the provider installed.
// Placeholders are unbound before Register, so a provider that fails to bind
// one of its abstracts surfaces as an unknown type instead of looping.
func (r *ProviderRegistry) intercept(provider ServiceProvider) {
	for _, abstract := range provider.Provides() {
		r.app.Bind(abstract, Func(func(_ *Container) (any, error) {
			if err := r.load(provider); err != nil {
				return nil, err
			}
			return r.app.Get(abstract)
		}))
	}
}

func (r *ProviderRegistry) load(provider ServiceProvider) error {
	r.mu.Lock()
	l := r.loaders[provider]
	r.mu.Unlock()
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return nil
	}

	for _, abstract := range provider.Provides() {
		r.app.Unbind(abstract)
	}
	if err := provider.Register(r.app); err != nil {
		r.intercept(provider)
		return fmt.Errorf("container: registering deferred %T: %w", provider, err)
	}
	l.done = true

	r.mu.Lock()
	for _, abstract := range provider.Provides() {
		delete(r.deferred, abstract)
	}
	booted := r.booted
	r.mu.Unlock()

	r.app.state.logger.Debug("container: deferred provider loaded",
		zap.String("provider", fmt.Sprintf("%T", provider)),
	)
	if booted {
		return r.boot(provider)
	}
	return nil
}

// Boot boots every eager provider, in registration order. Later calls are
// no-ops.
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	eager := slices.Clone(r.eager)
	r.mu.Unlock()

	for _, provider := range eager {
		if err := r.boot(provider); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProviderRegistry) boot(provider ServiceProvider) error {
	if err := provider.Boot(r.app); err != nil {
		return fmt.Errorf("container: booting %T: %w", provider, err)
	}
	return nil
}

// Booted reports whether Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the eager providers, in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.eager)
}

// Deferred returns the abstracts still waiting on a deferred provider, sorted.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deferred))
	for abstract := range r.deferred {
		out = append(out, abstract)
	}
	slices.Sort(out)
	return out
}
