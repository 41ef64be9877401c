package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-container/framework/container"
)

// ── fixtures ─────────────────────────────────────────────────────────────────

type clock struct{ zone string }

type repo struct{ clock *clock }

func newRepo(c *clock) *repo { return &repo{clock: c} }

type mailer struct {
	repo *repo
	host string
	port int64
}

func newMailer(r *repo, host string, port int64) *mailer {
	return &mailer{repo: r, host: host, port: port}
}

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

type welcome struct{ g greeter }

func newWelcome(g greeter) *welcome { return &welcome{g: g} }

type chicken struct{ egg *egg }
type egg struct{ chicken *chicken }

func newChicken(e *egg) *chicken { return &chicken{egg: e} }
func newEgg(c *chicken) *egg     { return &egg{chicken: c} }

var errBroken = errors.New("broken")

type broken struct{}

func newBroken() (*broken, error) { return nil, errBroken }

type aware struct{ c *container.Container }

func newAware(c *container.Container) *aware { return &aware{c: c} }

// ── Autowiring ───────────────────────────────────────────────────────────────

func TestAutowire_BuildsUnboundDependency(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*clock](c, nil))
	require.NoError(t, container.DefineType[*repo](c, newRepo))

	r, err := container.ResolveType[*repo](c)
	require.NoError(t, err)
	require.NotNil(t, r.clock)
	assert.Equal(t, clock{}, *r.clock)

	again, err := container.ResolveType[*repo](c)
	require.NoError(t, err)
	assert.NotSame(t, r.clock, again.clock, "unshared dependencies are rebuilt")
}

func TestAutowire_UsesSharedBinding(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*repo](c, newRepo))
	utc := &clock{zone: "UTC"}
	c.Instance(container.TypeNameOf[*clock](), utc)

	r, err := container.ResolveType[*repo](c)
	require.NoError(t, err)
	assert.Same(t, utc, r.clock)
}

func TestAutowire_Interface(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*welcome](c, newWelcome))
	c.Instance(container.TypeNameOf[greeter](), english{})

	w, err := container.ResolveType[*welcome](c)
	require.NoError(t, err)
	assert.Equal(t, "hello", w.g.Greet())
}

func TestAutowire_UnboundInterface(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*welcome](c, newWelcome))

	_, err := container.ResolveType[*welcome](c)
	require.ErrorIs(t, err, container.ErrUnknownType)

	var re *container.ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, container.TypeNameOf[greeter](), re.Abstract)
}

type render func() string

type page struct{ render render }

func newPage(r render) *page { return &page{render: r} }

func TestAutowire_NamedFuncType(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*page](c, newPage))

	_, err := container.ResolveType[*page](c)
	require.ErrorIs(t, err, container.ErrUnknownType)

	c.Instance(container.TypeNameOf[render](), render(func() string { return "rendered" }))

	p, err := container.ResolveType[*page](c)
	require.NoError(t, err)
	assert.Equal(t, "rendered", p.render())
}

func TestAutowire_ContainerParameter(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*aware](c, newAware))

	a, err := container.ResolveType[*aware](c)
	require.NoError(t, err)
	require.NotNil(t, a.c)
	assert.True(t, a.c.Has("container") || a.c.IsAlias("container"))
}

func TestAutowire_TypeBindingToOtherName(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*clock](c, nil))
	c.Bind("clock", container.Type(container.TypeNameOf[*clock]())).Share()

	first, err := c.Get("clock")
	require.NoError(t, err)
	second, err := c.Get("clock")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

// ── Parameters ───────────────────────────────────────────────────────────────

func defineMailer(t *testing.T, c *container.Container, params ...container.Param) string {
	t.Helper()
	require.NoError(t, container.DefineType[*clock](c, nil))
	require.NoError(t, container.DefineType[*repo](c, newRepo))
	require.NoError(t, container.DefineType[*mailer](c, newMailer, params...))
	return container.TypeNameOf[*mailer]()
}

func TestParameters_PrimitiveWithoutOverride_Unresolvable(t *testing.T) {
	c := container.New()
	name := defineMailer(t, c, container.Arg("repo"), container.Arg("host"), container.ArgDefault("port", 25))

	got, err := c.Get(name)
	require.ErrorIs(t, err, container.ErrUnresolvableParameter)
	assert.Nil(t, got)

	var ue *container.UnresolvableParameterError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "host", ue.Param)
	assert.Equal(t, "string", ue.ParamType)
	assert.Equal(t, name, ue.Type)
}

func TestParameters_NamedOverride(t *testing.T) {
	c := container.New()
	name := defineMailer(t, c, container.Arg("repo"), container.Arg("host"), container.ArgDefault("port", 25))

	got, err := c.GetWith(name, container.Parameters{"host": "smtp.local"})
	require.NoError(t, err)

	m := got.(*mailer)
	assert.Equal(t, "smtp.local", m.host)
	assert.Equal(t, int64(25), m.port, "default converted to int64")
	assert.NotNil(t, m.repo)
}

func TestParameters_OverrideBeatsDefaultAndAutowire(t *testing.T) {
	c := container.New()
	name := defineMailer(t, c, container.Arg("repo"), container.Arg("host"), container.ArgDefault("port", 25))
	own := &repo{}

	got, err := c.GetWith(name, container.Parameters{"repo": own, "host": "h", "port": 2525})
	require.NoError(t, err)

	m := got.(*mailer)
	assert.Same(t, own, m.repo)
	assert.Equal(t, int64(2525), m.port)
}

func TestParameters_PositionalOverride(t *testing.T) {
	c := container.New()
	name := defineMailer(t, c)

	got, err := c.GetWith(name, container.Parameters{"1": "positional", "2": 587})
	require.NoError(t, err)
	assert.Equal(t, "positional", got.(*mailer).host)
}

func TestParameters_UnknownKey(t *testing.T) {
	c := container.New()
	name := defineMailer(t, c, container.Arg("repo"), container.Arg("host"), container.Arg("port"))

	_, err := c.GetWith(name, container.Parameters{"host": "h", "port": 1, "tls": true})
	assert.ErrorIs(t, err, container.ErrUnknownParameter)
}

func TestParameters_TypeMismatch(t *testing.T) {
	c := container.New()
	name := defineMailer(t, c, container.Arg("repo"), container.Arg("host"), container.Arg("port"))

	_, err := c.GetWith(name, container.Parameters{"host": 42, "port": 1})
	assert.ErrorIs(t, err, container.ErrTypeMismatch)
}

type listener struct{ port uint16 }

func newListener(port uint16) *listener { return &listener{port: port} }

func TestParameters_NumericOverrides(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*listener](c, newListener, container.Arg("port")))
	name := container.TypeNameOf[*listener]()

	valid := []struct {
		in   any
		want uint16
	}{
		{443, 443},
		{int64(65535), 65535},
		{uint8(80), 80},
		{8080.0, 8080},
	}
	for _, tt := range valid {
		got, err := c.GetWith(name, container.Parameters{"port": tt.in})
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got.(*listener).port)
	}

	for _, bad := range []any{70000, -1, 2.9, -0.5, 1e20, uint64(1 << 40)} {
		_, err := c.GetWith(name, container.Parameters{"port": bad})
		assert.ErrorIs(t, err, container.ErrTypeMismatch, "%v", bad)
	}
}

type counterBox struct{ n int }

func TestParameters_FractionalOverrideRejected(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*counterBox](c,
		func(n int) *counterBox { return &counterBox{n: n} },
		container.Arg("n"),
	))

	_, err := c.GetWith(container.TypeNameOf[*counterBox](), container.Parameters{"n": 2.9})
	assert.ErrorIs(t, err, container.ErrTypeMismatch)

	got, err := c.GetWith(container.TypeNameOf[*counterBox](), container.Parameters{"n": float32(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, got.(*counterBox).n)
}

func TestParameters_ValueForPointer(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*repo](c, newRepo))

	got, err := c.GetWith(container.TypeNameOf[*repo](), container.Parameters{"0": clock{zone: "CET"}})
	require.NoError(t, err)
	assert.Equal(t, "CET", got.(*repo).clock.zone)
}

func TestParameters_IgnoredByFactories(t *testing.T) {
	c := container.New()
	c.Bind("svc", container.Func0(func() (any, error) { return "made", nil }))

	got, err := c.GetWith("svc", container.Parameters{"anything": 1})
	require.NoError(t, err)
	assert.Equal(t, "made", got)
}

func TestParameters_ConstructorlessTypeRejectsOverrides(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*clock](c, nil))

	_, err := c.GetWith(container.TypeNameOf[*clock](), container.Parameters{"zone": "UTC"})
	assert.ErrorIs(t, err, container.ErrUnknownParameter)
}

func TestConstructorless_ValueType(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[clock](c, nil))

	got, err := c.Get(container.TypeNameOf[clock]())
	require.NoError(t, err)
	assert.Equal(t, clock{}, got)
}

// ── Failures ─────────────────────────────────────────────────────────────────

func TestConstructorError_Propagates(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*broken](c, newBroken))

	_, err := container.ResolveType[*broken](c)
	require.ErrorIs(t, err, errBroken)

	var re *container.ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, container.TypeNameOf[*broken](), re.Abstract)
}

func TestUnknownType(t *testing.T) {
	c := container.New()
	_, err := c.Get("NoSuchType")
	assert.ErrorIs(t, err, container.ErrUnknownType)
}

func TestCycle_Types(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[*chicken](c, newChicken))
	require.NoError(t, container.DefineType[*egg](c, newEgg))

	_, err := container.ResolveType[*chicken](c)
	require.ErrorIs(t, err, container.ErrCircularDependency)

	var ce *container.CycleError
	require.ErrorAs(t, err, &ce)
	ch, e := container.TypeNameOf[*chicken](), container.TypeNameOf[*egg]()
	assert.Equal(t, []string{ch, e, ch}, ce.Chain)
}

func TestCycle_Factories(t *testing.T) {
	c := container.New()
	c.Bind("a", container.Func(func(c *container.Container) (any, error) { return c.Get("b") }))
	c.Bind("b", container.Func(func(c *container.Container) (any, error) { return c.Get("a") }))

	_, err := c.Get("a")
	require.ErrorIs(t, err, container.ErrCircularDependency)

	var ce *container.CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"a", "b", "a"}, ce.Chain)
}

func TestCycle_SelfThroughAlias(t *testing.T) {
	c := container.New()
	c.Bind("a", container.Func(func(c *container.Container) (any, error) { return c.Get("alias-of-a") })).Alias("alias-of-a")

	_, err := c.Get("a")
	assert.ErrorIs(t, err, container.ErrCircularDependency)
}

func TestMaxDepth(t *testing.T) {
	c := container.New(container.WithMaxDepth(2))
	c.Bind("a", container.Func(func(c *container.Container) (any, error) { return c.Get("b") }))
	c.Bind("b", container.Func(func(c *container.Container) (any, error) { return c.Get("c") }))
	c.Bind("c", container.Func0(func() (any, error) { return "leaf", nil }))

	_, err := c.Get("a")
	assert.ErrorIs(t, err, container.ErrMaxDepthExceeded)

	got, err := c.Get("b")
	require.NoError(t, err, "b → c fits in two levels")
	assert.Equal(t, "leaf", got)
}

// ── Define ───────────────────────────────────────────────────────────────────

func TestDefine_Validation(t *testing.T) {
	c := container.New()

	cases := []struct {
		name   string
		ctor   any
		params []container.Param
	}{
		{"not a func", 42, nil},
		{"nil ctor", nil, nil},
		{"variadic", func(xs ...int) int { return len(xs) }, nil},
		{"no results", func() {}, nil},
		{"second result not error", func() (int, int) { return 0, 0 }, nil},
		{"only error", func() error { return nil }, nil},
		{"too many params", func(int) int { return 0 }, []container.Param{container.Arg("a"), container.Arg("b")}},
		{"duplicate names", func(int, int) int { return 0 }, []container.Param{container.Arg("a"), container.Arg("a")}},
		{"bad default", func(int) int { return 0 }, []container.Param{container.ArgDefault("a", "text")}},
		{"fractional default", func(int) int { return 0 }, []container.Param{container.ArgDefault("a", -1.5)}},
		{"overflowing default", func(int8) int8 { return 0 }, []container.Param{container.ArgDefault("a", 300)}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Define("thing", tt.ctor, tt.params...)
			assert.ErrorIs(t, err, container.ErrInvalidConstructor)
		})
	}

	assert.ErrorIs(t, c.Define("", newRepo), container.ErrEmptyAbstract)
	assert.False(t, c.IsDefined("thing"))
}

func TestDefine_ByName(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Define("greeting", func(name string) string { return "hi " + name }, container.ArgDefault("name", "you")))
	assert.True(t, c.IsDefined("greeting"))

	got, err := c.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hi you", got)

	got, err = c.GetWith("greeting", container.Parameters{"name": "go"})
	require.NoError(t, err)
	assert.Equal(t, "hi go", got)
}

func TestDefineType_Validation(t *testing.T) {
	c := container.New()

	assert.ErrorIs(t, container.DefineType[greeter](c, nil), container.ErrInvalidConstructor)
	assert.ErrorIs(t, container.DefineType[*clock](c, nil, container.Arg("zone")), container.ErrInvalidConstructor)
	assert.ErrorIs(t, container.DefineType[*clock](c, newRepo), container.ErrInvalidConstructor)
}

func TestDefineType_InterfaceWithConstructor(t *testing.T) {
	c := container.New()
	require.NoError(t, container.DefineType[greeter](c, func() english { return english{} }))

	g, err := container.ResolveType[greeter](c)
	require.NoError(t, err)
	assert.Equal(t, "hello", g.Greet())
}

// ── Type names ───────────────────────────────────────────────────────────────

func TestTypeName(t *testing.T) {
	const pkg = "github.com/km-arc/go-container/framework/container_test"

	assert.Equal(t, pkg+".clock", container.TypeNameOf[*clock]())
	assert.Equal(t, pkg+".clock", container.TypeNameOf[clock]())
	assert.Equal(t, pkg+".greeter", container.TypeNameOf[greeter]())
	assert.Equal(t, "int", container.TypeNameOf[int]())
	assert.Equal(t, "[]string", container.TypeNameOf[[]string]())
}
