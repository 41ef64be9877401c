package container

import (
	"fmt"
	"reflect"
)

// resolve turns a concrete reference into an instance. c is already scoped to
// abstract.
func (c *Container) resolve(abstract string, concrete Concrete, params Parameters) (any, error) {
	switch ref := concrete.(type) {
	case Factory:
		if ref == nil {
			return nil, &ResolutionError{Abstract: abstract, Err: fmt.Errorf("%w: nil factory", ErrInvalidConstructor)}
		}
		inst, err := ref(c)
		if err != nil {
			return nil, wrapFailure(abstract, err)
		}
		return inst, nil

	case instanceConcrete:
		return ref.value, nil

	case typeConcrete:
		return c.build(ref.name, params)

	default:
		return nil, &ResolutionError{Abstract: abstract, Err: fmt.Errorf("unsupported concrete %T", concrete)}
	}
}

// build constructs a defined type, autowiring every parameter that has no
// override and no default.
func (c *Container) build(name string, params Parameters) (any, error) {
	c.state.mu.RLock()
	def, ok := c.state.types[name]
	c.state.mu.RUnlock()
	if !ok {
		return nil, &ResolutionError{Abstract: name, Err: ErrUnknownType}
	}

	if !def.fn.IsValid() {
		if len(params) > 0 {
			return nil, &ResolutionError{
				Abstract: name,
				Err:      fmt.Errorf("%w: [%s] has no constructor to take parameters", ErrUnknownParameter, name),
			}
		}
		if def.typ.Kind() == reflect.Pointer {
			return reflect.New(def.typ.Elem()).Interface(), nil
		}
		return reflect.New(def.typ).Elem().Interface(), nil
	}

	if err := def.checkOverrides(params); err != nil {
		return nil, &ResolutionError{Abstract: name, Err: err}
	}

	args := make([]reflect.Value, len(def.params))
	for i, p := range def.params {
		if v, ok := p.override(params); ok {
			arg, err := adapt(v, p.typ)
			if err != nil {
				return nil, &ResolutionError{Abstract: name, Err: fmt.Errorf("parameter [%s]: %w", p.name, err)}
			}
			args[i] = arg
			continue
		}
		if p.hasDefault {
			args[i] = p.def
			continue
		}
		if p.typ == containerType {
			args[i] = reflect.ValueOf(c)
			continue
		}

		dep, ok := dependencyName(p.typ)
		if !ok {
			return nil, &UnresolvableParameterError{Type: name, Param: p.name, ParamType: p.typ.String()}
		}
		v, err := c.Get(dep)
		if err != nil {
			return nil, err
		}
		arg, err := adapt(v, p.typ)
		if err != nil {
			return nil, &ResolutionError{Abstract: name, Err: fmt.Errorf("parameter [%s] from [%s]: %w", p.name, dep, err)}
		}
		args[i] = arg
	}

	out := def.fn.Call(args)
	if def.returnsErr && !out[1].IsNil() {
		return nil, &ResolutionError{Abstract: name, Err: out[1].Interface().(error)}
	}
	return out[0].Interface(), nil
}

func (def *constructor) checkOverrides(params Parameters) error {
	for key := range params {
		known := false
		for _, p := range def.params {
			if key == p.name || key == p.index {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: [%s] takes no parameter [%s]", ErrUnknownParameter, def.name, key)
		}
	}
	return nil
}

// override looks a parameter up by name, then by position.
func (p parameter) override(params Parameters) (any, bool) {
	if v, ok := params[p.name]; ok {
		return v, true
	}
	v, ok := params[p.index]
	return v, ok
}
