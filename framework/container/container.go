package container

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxDepth bounds how many abstracts one Get may resolve in a chain.
const DefaultMaxDepth = 64

// Parameters are named constructor overrides for GetWith.
type Parameters map[string]any

// ── Container ─────────────────────────────────────────────────────────────────

// Container maps abstract identifiers to concrete references.
//
// It keeps four tables, all guarded by one lock:
//   - bindings:  abstract → Concrete
//   - shared:    abstract → singleton flag
//   - resolved:  abstract → cached instance
//   - aliases:   alias → abstract
//
// plus the constructor definitions used to build types by name.
//
// A *Container handed to a factory is a view onto the same tables that also
// remembers which abstracts are being resolved, so cycles through factories
// are detected as well.
type Container struct {
	state *state

	// abstracts in flight for the resolution this view belongs to
	chain []string
}

type state struct {
	mu sync.RWMutex

	bindings map[string]Concrete
	shared   map[string]bool
	resolved map[string]any
	aliases  map[string]string
	types    map[string]*constructor

	logger   *zap.Logger
	recorder Recorder
	maxDepth int
}

// Recorder observes resolutions, e.g. to export metrics.
type Recorder interface {
	Resolved(abstract string, took time.Duration)
	CacheHit(abstract string)
	Failed(abstract string, err error)
}

type nopRecorder struct{}

func (nopRecorder) Resolved(string, time.Duration) {}
func (nopRecorder) CacheHit(string)                {}
func (nopRecorder) Failed(string, error)           {}

// Option configures a Container.
type Option func(*state)

// WithLogger sets the logger used for debug tracing. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *state) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the resolution observer.
func WithRecorder(r Recorder) Option {
	return func(s *state) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithMaxDepth bounds the resolution chain. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(s *state) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// New creates an empty container. The container is bound to itself as an
// instance under TypeNameOf[*Container]() and aliased as "container".
func New(opts ...Option) *Container {
	s := &state{
		bindings: make(map[string]Concrete),
		shared:   make(map[string]bool),
		resolved: make(map[string]any),
		aliases:  make(map[string]string),
		types:    make(map[string]*constructor),
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}

	c := &Container{state: s}
	self := TypeName(containerType)
	c.Bind(self, Instance(c)).Alias("container")
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers concrete under abstract and returns a handle for further
// configuration. A nil concrete binds abstract to itself as a type name.
//
// If abstract is already bound (or resolved), its binding, shared flag and
// cached instance are dropped first. Aliases pointing at it are kept.
//
//	c.Bind("cache", container.Func(newRedisCache)).Share().Alias("cache.store")
func (c *Container) Bind(abstract string, concrete Concrete) *Binding {
	handle := &Binding{container: c, abstract: abstract}
	if abstract == "" {
		c.state.logger.Warn("container: ignoring bind without abstract")
		return handle
	}
	if concrete == nil {
		concrete = Type(abstract)
	}

	s := c.state
	s.mu.Lock()
	if s.has(abstract) {
		s.unbind(abstract)
	}
	if inst, ok := concrete.(instanceConcrete); ok {
		s.resolved[abstract] = inst.value
	}
	s.bindings[abstract] = concrete
	s.mu.Unlock()

	kind, target := describe(concrete)
	s.logger.Debug("container: bound",
		zap.String("abstract", abstract),
		zap.String("kind", kind),
		zap.String("target", target),
	)
	return handle
}

// Set is the untyped form of Bind. It classifies value as follows:
// a Concrete is used as-is, nil binds abstract to itself, a string is a type
// name, a func(*Container) (any, error) or func() (any, error) is a factory,
// and anything else is a pre-built instance.
func (c *Container) Set(abstract string, value any) *Binding {
	return c.Bind(abstract, asConcrete(value))
}

// Instance binds a pre-built value.
//
//	c.Instance("config", cfg)
func (c *Container) Instance(abstract string, value any) *Binding {
	return c.Bind(abstract, Instance(value))
}

// Singleton binds a shared factory: it runs on first Get and its result is
// reused afterwards.
//
//	c.Singleton("db", func(c *container.Container) (any, error) {
//	    return sql.Open("sqlite", ":memory:")
//	})
func (c *Container) Singleton(abstract string, factory Factory) *Binding {
	return c.Bind(abstract, Func(factory)).Share()
}

// Share sets (default) or clears the singleton flag of abstract. An empty
// abstract is ignored.
func (c *Container) Share(abstract string, shared ...bool) *Container {
	if abstract == "" {
		c.state.logger.Warn("container: ignoring share without abstract")
		return c
	}
	on := len(shared) == 0 || shared[0]
	s := c.state
	s.mu.Lock()
	if on {
		s.shared[abstract] = true
	} else {
		delete(s.shared, abstract)
	}
	s.mu.Unlock()
	return c
}

// Alias makes alias resolve to abstract. A prior alias of the same name is
// replaced. Aliases redirect exactly once; chains are not followed.
func (c *Container) Alias(abstract, alias string) *Container {
	if alias == "" || abstract == "" {
		c.state.logger.Warn("container: ignoring empty alias",
			zap.String("abstract", abstract),
			zap.String("alias", alias),
		)
		return c
	}
	s := c.state
	s.mu.Lock()
	s.aliases[alias] = abstract
	s.mu.Unlock()
	return c
}

// Unbind removes abstract from bindings, shared flags and the resolved cache.
// It is a no-op for unknown abstracts. Aliases pointing at it are left dangling.
func (c *Container) Unbind(abstract string) {
	s := c.state
	s.mu.Lock()
	s.unbind(abstract)
	s.mu.Unlock()
	s.logger.Debug("container: unbound", zap.String("abstract", abstract))
}

// ── Queries ───────────────────────────────────────────────────────────────────

// Has reports whether abstract is bound or already has a resolved instance.
// Aliases are not followed.
func (c *Container) Has(abstract string) bool {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	return c.state.has(abstract)
}

// IsShared reports whether abstract carries the singleton flag.
func (c *Container) IsShared(abstract string) bool {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	return c.state.shared[abstract]
}

// IsAlias reports whether name is registered as an alias.
func (c *Container) IsAlias(name string) bool {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	_, ok := c.state.aliases[name]
	return ok
}

// IsResolved reports whether abstract has a cached instance.
func (c *Container) IsResolved(abstract string) bool {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	_, ok := c.state.resolved[abstract]
	return ok
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves abstract.
//
// An alias is redirected once, a cached instance is returned as-is, and
// otherwise the binding (or abstract itself as a type name when unbound) is
// resolved. The result is cached when the abstract is shared.
func (c *Container) Get(abstract string) (any, error) {
	return c.GetWith(abstract, nil)
}

// GetWith is Get with named constructor overrides. Overrides apply only to
// the type being built, not to its autowired dependencies, and are ignored by
// factories and instances.
//
//	svc, err := c.GetWith("mailer", container.Parameters{"host": "smtp.local"})
func (c *Container) GetWith(abstract string, params Parameters) (any, error) {
	if abstract == "" {
		return nil, ErrEmptyAbstract
	}
	s := c.state

	s.mu.RLock()
	key := s.canonical(abstract)
	if inst, ok := s.resolved[key]; ok {
		s.mu.RUnlock()
		s.recorder.CacheHit(key)
		return inst, nil
	}
	ref, bound := s.bindings[key]
	s.mu.RUnlock()
	if !bound {
		ref = Type(key)
	}

	scoped, err := c.enter(key)
	if err != nil {
		s.recorder.Failed(key, err)
		return nil, err
	}

	start := time.Now()
	inst, err := scoped.resolve(key, ref, params)
	if err != nil {
		s.recorder.Failed(key, err)
		s.logger.Debug("container: resolution failed", zap.String("abstract", key), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	if s.shared[key] {
		if existing, ok := s.resolved[key]; ok {
			inst = existing
		} else {
			s.resolved[key] = inst
		}
	}
	s.mu.Unlock()

	took := time.Since(start)
	s.recorder.Resolved(key, took)
	s.logger.Debug("container: resolved",
		zap.String("abstract", key),
		zap.String("requested", abstract),
		zap.Duration("took", took),
	)
	return inst, nil
}

// enter returns a view of c with abstract pushed onto the in-flight chain.
func (c *Container) enter(abstract string) (*Container, error) {
	if i := slices.Index(c.chain, abstract); i >= 0 {
		cycle := append(slices.Clone(c.chain[i:]), abstract)
		return nil, &CycleError{Chain: cycle}
	}
	if len(c.chain) >= c.state.maxDepth {
		return nil, &ResolutionError{
			Abstract: abstract,
			Err:      fmt.Errorf("%w (%d)", ErrMaxDepthExceeded, c.state.maxDepth),
		}
	}
	chain := make([]string, len(c.chain), len(c.chain)+1)
	copy(chain, c.chain)
	return &Container{state: c.state, chain: append(chain, abstract)}, nil
}

// ── Introspection ─────────────────────────────────────────────────────────────

// BindingInfo describes one abstract known to the container.
type BindingInfo struct {
	Abstract string   `json:"abstract"`
	Kind     string   `json:"kind,omitempty"`
	Target   string   `json:"target,omitempty"`
	Shared   bool     `json:"shared"`
	Resolved bool     `json:"resolved"`
	Aliases  []string `json:"aliases,omitempty"`
}

// Snapshot is a point-in-time copy of the container tables.
type Snapshot struct {
	Bindings []BindingInfo     `json:"bindings"`
	Aliases  map[string]string `json:"aliases"`
	Types    []string          `json:"types"`
}

// Snapshot copies the container tables, sorted by abstract.
func (c *Container) Snapshot() Snapshot {
	s := c.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make(map[string]struct{}, len(s.bindings)+len(s.resolved))
	for k := range s.bindings {
		keys[k] = struct{}{}
	}
	for k := range s.resolved {
		keys[k] = struct{}{}
	}
	for k := range s.shared {
		keys[k] = struct{}{}
	}

	snap := Snapshot{
		Bindings: make([]BindingInfo, 0, len(keys)),
		Aliases:  make(map[string]string, len(s.aliases)),
		Types:    make([]string, 0, len(s.types)),
	}
	for k := range keys {
		snap.Bindings = append(snap.Bindings, s.describe(k))
	}
	slices.SortFunc(snap.Bindings, func(a, b BindingInfo) int {
		switch {
		case a.Abstract < b.Abstract:
			return -1
		case a.Abstract > b.Abstract:
			return 1
		}
		return 0
	})
	for alias, abstract := range s.aliases {
		snap.Aliases[alias] = abstract
	}
	for name := range s.types {
		snap.Types = append(snap.Types, name)
	}
	slices.Sort(snap.Types)
	return snap
}

// Describe reports what the container knows about abstract, following an
// alias once. ok is false when nothing is bound, shared or resolved under it.
func (c *Container) Describe(abstract string) (info BindingInfo, ok bool) {
	s := c.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := s.canonical(abstract)
	_, bound := s.bindings[key]
	_, resolved := s.resolved[key]
	if !bound && !resolved && !s.shared[key] {
		return BindingInfo{}, false
	}
	return s.describe(key), true
}

// ── state helpers (caller holds mu) ───────────────────────────────────────────

func (s *state) canonical(abstract string) string {
	if target, ok := s.aliases[abstract]; ok {
		return target
	}
	return abstract
}

func (s *state) has(abstract string) bool {
	if _, ok := s.bindings[abstract]; ok {
		return true
	}
	_, ok := s.resolved[abstract]
	return ok
}

func (s *state) unbind(abstract string) {
	delete(s.bindings, abstract)
	delete(s.shared, abstract)
	delete(s.resolved, abstract)
}

func (s *state) describe(abstract string) BindingInfo {
	info := BindingInfo{Abstract: abstract, Shared: s.shared[abstract]}
	if ref, ok := s.bindings[abstract]; ok {
		info.Kind, info.Target = describe(ref)
	}
	if inst, ok := s.resolved[abstract]; ok {
		info.Resolved = true
		if info.Target == "" {
			info.Target = fmt.Sprintf("%T", inst)
		}
	}
	for alias, target := range s.aliases {
		if target == abstract {
			info.Aliases = append(info.Aliases, alias)
		}
	}
	slices.Sort(info.Aliases)
	return info
}

func (s *state) define(def *constructor) {
	s.mu.Lock()
	s.types[def.name] = def
	s.mu.Unlock()
	s.logger.Debug("container: type defined",
		zap.String("type", def.name),
		zap.Int("params", len(def.params)),
	)
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve gets abstract and asserts it to T.
//
//	db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, abstract string) (T, error) {
	var zero T
	instance, err := c.Get(abstract)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		if nillable(reflect.TypeFor[T]().Kind()) {
			return zero, nil
		}
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: %w: [%s] resolved to %T, want %s",
			ErrTypeMismatch, abstract, instance, reflect.TypeFor[T]())
	}
	return typed, nil
}

// ResolveType resolves T by its type name.
//
//	svc, err := container.ResolveType[*UserService](c)
func ResolveType[T any](c *Container) (T, error) {
	return Resolve[T](c, TypeNameOf[T]())
}

// MustResolve is like Resolve but panics on failure. Use it during bootstrap
// where a missing service is a programming error.
func MustResolve[T any](c *Container, abstract string) T {
	typed, err := Resolve[T](c, abstract)
	if err != nil {
		panic(err)
	}
	return typed
}
