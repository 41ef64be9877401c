package container

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// ── Constructor definitions ───────────────────────────────────────────────────

// Param names a constructor parameter, in declaration order, and optionally
// gives it a default value.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// Arg names a required constructor parameter.
func Arg(name string) Param {
	return Param{Name: name}
}

// ArgDefault names a constructor parameter that falls back to value when the
// caller supplies no override.
func ArgDefault(name string, value any) Param {
	return Param{Name: name, Default: value, HasDefault: true}
}

type parameter struct {
	name       string
	index      string
	typ        reflect.Type
	def        reflect.Value
	hasDefault bool
}

type constructor struct {
	name       string
	typ        reflect.Type
	fn         reflect.Value
	params     []parameter
	returnsErr bool
}

var (
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
	containerType = reflect.TypeOf((*Container)(nil))
)

// Define registers ctor under a type name so that Type(name), an unbound
// Get(name) and autowired parameters can build it.
//
// ctor must be a non-variadic function returning a value or (value, error).
// Go functions carry no parameter names, so params name them in order;
// parameters left unnamed are addressed by their position ("0", "1", ...).
//
//	c.Define("mailer", NewMailer, container.Arg("host"), container.ArgDefault("port", 587))
func (c *Container) Define(name string, ctor any, params ...Param) error {
	if name == "" {
		return ErrEmptyAbstract
	}
	if ctor == nil {
		return fmt.Errorf("%w: [%s] needs a constructor function; use DefineType for constructor-less types", ErrInvalidConstructor, name)
	}
	def, err := newConstructor(name, reflect.ValueOf(ctor), params)
	if err != nil {
		return err
	}
	c.state.define(def)
	return nil
}

// DefineType registers T under TypeNameOf[T]. A nil ctor means T has no
// constructor: it resolves to its zero value, or to new(E) when T is *E.
//
//	container.DefineType[*UserService](c, NewUserService)
//	container.DefineType[*Clock](c, nil)
func DefineType[T any](c *Container, ctor any, params ...Param) error {
	typ := reflect.TypeFor[T]()
	name := TypeName(typ)

	if ctor == nil {
		if typ.Kind() == reflect.Interface {
			return fmt.Errorf("%w: interface [%s] cannot be constructed without a constructor", ErrInvalidConstructor, name)
		}
		if len(params) > 0 {
			return fmt.Errorf("%w: [%s] has no constructor to take parameters", ErrInvalidConstructor, name)
		}
		c.state.define(&constructor{name: name, typ: typ})
		return nil
	}

	def, err := newConstructor(name, reflect.ValueOf(ctor), params)
	if err != nil {
		return err
	}
	if !def.typ.AssignableTo(typ) {
		return fmt.Errorf("%w: [%s] constructor returns %s", ErrInvalidConstructor, name, def.typ)
	}
	c.state.define(def)
	return nil
}

// IsDefined reports whether a type name has a constructor definition.
func (c *Container) IsDefined(name string) bool {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	_, ok := c.state.types[name]
	return ok
}

func newConstructor(name string, fn reflect.Value, params []Param) (*constructor, error) {
	ft := fn.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: [%s] constructor is a %s, not a function", ErrInvalidConstructor, name, ft)
	}
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%w: [%s] constructor must not be variadic", ErrInvalidConstructor, name)
	}

	def := &constructor{name: name, fn: fn}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("%w: [%s] second result must be error, not %s", ErrInvalidConstructor, name, ft.Out(1))
		}
		def.returnsErr = true
	default:
		return nil, fmt.Errorf("%w: [%s] constructor must return a value or (value, error)", ErrInvalidConstructor, name)
	}
	if ft.Out(0) == errorType {
		return nil, fmt.Errorf("%w: [%s] constructor must not return only an error", ErrInvalidConstructor, name)
	}
	def.typ = ft.Out(0)

	if len(params) > ft.NumIn() {
		return nil, fmt.Errorf("%w: [%s] names %d parameters but takes %d", ErrInvalidConstructor, name, len(params), ft.NumIn())
	}

	seen := make(map[string]bool, ft.NumIn())
	def.params = make([]parameter, ft.NumIn())
	for i := range def.params {
		p := parameter{index: strconv.Itoa(i), typ: ft.In(i)}
		p.name = p.index
		if i < len(params) {
			if params[i].Name != "" {
				p.name = params[i].Name
			}
			if params[i].HasDefault {
				v, err := adapt(params[i].Default, p.typ)
				if err != nil {
					return nil, fmt.Errorf("%w: [%s] default for [%s]: %v", ErrInvalidConstructor, name, p.name, err)
				}
				p.def = v
				p.hasDefault = true
			}
		}
		if seen[p.name] {
			return nil, fmt.Errorf("%w: [%s] parameter [%s] named twice", ErrInvalidConstructor, name, p.name)
		}
		seen[p.name] = true
		def.params[i] = p
	}
	return def, nil
}

// ── Type names ────────────────────────────────────────────────────────────────

// TypeName returns the package-qualified name used as the abstract for a type.
// Pointers are stripped, so *Foo and Foo share "pkg/path.Foo". Unnamed and
// builtin types fall back to their Go spelling.
func TypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// TypeNameOf is TypeName for a type parameter.
//
//	container.TypeNameOf[*UserRepository]()  // "example.com/app.UserRepository"
func TypeNameOf[T any]() string {
	return TypeName(reflect.TypeFor[T]())
}

// dependencyName reports the abstract an autowired parameter resolves to.
// Named types of a non-basic kind (struct, interface, func, map, slice, array,
// chan), optionally behind one pointer, qualify. Named basic types such as
// time.Duration need a default or an override.
func dependencyName(t reflect.Type) (string, bool) {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Name() == "" || base.PkgPath() == "" {
		return "", false
	}
	switch base.Kind() {
	case reflect.Struct, reflect.Interface, reflect.Func, reflect.Map,
		reflect.Slice, reflect.Array, reflect.Chan:
		return TypeName(base), true
	}
	return "", false
}

// adapt fits v into a value of type t.
func adapt(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		if nillable(t.Kind()) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil for %s", ErrTypeMismatch, t)
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()
	switch {
	case rt.AssignableTo(t):
		return rv, nil
	case t.Kind() == reflect.Pointer && rt.AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(rv)
		return p, nil
	case rt.Kind() == reflect.Pointer && !rv.IsNil() && rt.Elem().AssignableTo(t):
		return rv.Elem(), nil
	case numeric(rt.Kind()) && numeric(t.Kind()):
		if !fits(rv, t) {
			return reflect.Value{}, fmt.Errorf("%w: %v does not fit %s", ErrTypeMismatch, v, t)
		}
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrTypeMismatch, rt, t)
}

// fits reports whether the numeric value rv converts to t without wrapping,
// overflowing or dropping a fractional part.
func fits(rv reflect.Value, t reflect.Type) bool {
	zero := reflect.Zero(t)
	switch {
	case signed(rv.Kind()):
		i := rv.Int()
		switch {
		case signed(t.Kind()):
			return !zero.OverflowInt(i)
		case unsigned(t.Kind()):
			return i >= 0 && !zero.OverflowUint(uint64(i))
		}
		return true
	case unsigned(rv.Kind()):
		u := rv.Uint()
		switch {
		case signed(t.Kind()):
			return u <= math.MaxInt64 && !zero.OverflowInt(int64(u))
		case unsigned(t.Kind()):
			return !zero.OverflowUint(u)
		}
		return true
	}

	f := rv.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return !signed(t.Kind()) && !unsigned(t.Kind())
	}
	switch {
	case signed(t.Kind()):
		return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !zero.OverflowInt(int64(f))
	case unsigned(t.Kind()):
		return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 && !zero.OverflowUint(uint64(f))
	}
	return !zero.OverflowFloat(f)
}

func signed(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func unsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
