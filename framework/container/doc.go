// Package container provides a small IoC (Inversion of Control) container
// and a Service Provider system for Go.
//
// # Overview
//
// The container maps string abstracts to concrete references and builds
// instances on demand. A concrete reference is one of:
//
//   - a pre-built value:    container.Instance(v)
//   - a factory:            container.Func(func(c *container.Container) (any, error) { ... })
//   - a type name:          container.Type("example.com/app.Mailer")
//
// # Bindings
//
//	// New instance on every Get
//	c.Bind("mailer", container.Func(newMailer))
//
//	// Shared: built once, reused
//	c.Bind("cache", container.Func(newRedisCache)).Share()
//	c.Singleton("cache", newRedisCache)
//
//	// Pre-built value (cached at once)
//	c.Instance("config", cfg)
//
//	// Alias
//	c.Bind("logger", container.Instance(log)).Alias("log")
//
//	// Remove everything known about an abstract
//	c.Unbind("mailer")
//
// # Resolving
//
//	raw, err := c.Get("cache")
//	cache, err := container.Resolve[*RedisCache](c, "cache")
//
// # Autowiring
//
// Go has no constructor reflection, so types that should be built by name
// are defined once with their constructor. Parameters of a named type that is
// not a basic kind (struct, interface, func, map, slice, array or chan,
// optionally behind a pointer) are resolved from the container by their type
// name; basic kinds such as string, int or time.Duration need an override or
// a default. Numeric overrides and defaults are converted to the parameter
// type only when the value fits exactly.
//
//	container.DefineType[*UserRepository](c, NewUserRepository)   // func(db *DB) *UserRepository
//	container.DefineType[*DB](c, NewDB, container.ArgDefault("dsn", ":memory:"))
//
//	repo, err := container.ResolveType[*UserRepository](c)
//
//	// Named overrides for the type being built
//	db, err := c.GetWith(container.TypeNameOf[*DB](), container.Parameters{"dsn": "file:app.db"})
//
// A parameter that cannot be resolved fails with ErrUnresolvableParameter. A
// dependency chain that loops back on itself fails with ErrCircularDependency
// instead of recursing forever.
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    app.Singleton("mailer", newMailer)
//	    return nil
//	}
//
//	registry := container.NewProviderRegistry(c)
//	_ = registry.Register(&AppServiceProvider{})
//	_ = registry.Boot()
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//	func (p *HeavyProvider) Register(app *container.Container) error {
//	    app.Singleton("heavy", heavySetup) // only runs on first Get("heavy")
//	    return nil
//	}
package container
