package container

// Binding is the fluent handle returned by Bind. It holds no state of its own
// beyond the abstract it was created for.
//
//	c.Bind("logger", container.Instance(log)).Alias("log").Share()
type Binding struct {
	container *Container
	abstract  string
}

// Alias registers name as an alias of the bound abstract.
func (b *Binding) Alias(name string) *Binding {
	b.container.Alias(b.abstract, name)
	return b
}

// Share sets (default) or clears the singleton flag of the bound abstract.
func (b *Binding) Share(shared ...bool) *Binding {
	b.container.Share(b.abstract, shared...)
	return b
}

// Abstract returns the identifier the handle was created for.
func (b *Binding) Abstract() string { return b.abstract }
