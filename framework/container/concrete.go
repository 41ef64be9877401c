package container

import "fmt"

// ── Concrete references ───────────────────────────────────────────────────────

// Concrete is what an abstract is bound to: a pre-built instance, a factory,
// or a type name. The set is closed; build one with Instance, Func, Func0 or
// Type.
type Concrete interface {
	isConcrete()
}

// Factory builds a value from the container. It is fully responsible for its
// own wiring: parameter overrides passed to GetWith never reach it.
type Factory func(c *Container) (any, error)

func (Factory) isConcrete() {}

type instanceConcrete struct{ value any }

func (instanceConcrete) isConcrete() {}

type typeConcrete struct{ name string }

func (typeConcrete) isConcrete() {}

// Instance binds a pre-built value. It is cached as soon as it is bound.
//
//	c.Bind("config", container.Instance(cfg))
func Instance(value any) Concrete {
	return instanceConcrete{value: value}
}

// Func binds a factory that receives the container.
//
//	c.Bind("mailer", container.Func(func(c *container.Container) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return mail.NewSMTP(cfg.Mail), nil
//	}))
func Func(f Factory) Concrete {
	return f
}

// Func0 binds a factory that needs nothing from the container.
func Func0(f func() (any, error)) Concrete {
	if f == nil {
		return Factory(nil)
	}
	return Factory(func(*Container) (any, error) { return f() })
}

// Type binds a type name registered with Define or DefineType.
//
//	c.Bind("logger", container.Type(container.TypeNameOf[*FileLogger]()))
func Type(name string) Concrete {
	return typeConcrete{name: name}
}

// asConcrete classifies an untyped value the way Set does.
func asConcrete(v any) Concrete {
	switch x := v.(type) {
	case nil:
		return nil
	case Concrete:
		return x
	case func(*Container) (any, error):
		return Factory(x)
	case func() (any, error):
		return Func0(x)
	case string:
		return Type(x)
	default:
		return Instance(x)
	}
}

// describe returns the kind label and target shown by Snapshot.
func describe(concrete Concrete) (kind, target string) {
	switch ref := concrete.(type) {
	case Factory:
		return KindFactory, ""
	case instanceConcrete:
		return KindInstance, fmt.Sprintf("%T", ref.value)
	case typeConcrete:
		return KindType, ref.name
	}
	return "", ""
}

// Kind labels reported in BindingInfo.
const (
	KindInstance = "instance"
	KindFactory  = "factory"
	KindType     = "type"
)
