package container

// ServiceLocator is the read-only surface of a container, for code that only
// fetches services and should not register them.
type ServiceLocator interface {
	Has(abstract string) bool
	Get(abstract string) (any, error)
}

// Registrar is the write surface used by service providers.
type Registrar interface {
	Bind(abstract string, concrete Concrete) *Binding
	Set(abstract string, value any) *Binding
	Share(abstract string, shared ...bool) *Container
	Alias(abstract, alias string) *Container
	Unbind(abstract string)
	Define(name string, ctor any, params ...Param) error
}

var (
	_ ServiceLocator = (*Container)(nil)
	_ Registrar      = (*Container)(nil)
)
