package vm

import (
	"sort"
)

// Registry holds the stacks of one run. Entries are created on first
// reference and never removed.
type Registry struct {
	stacks map[string]*Stack
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stacks: make(map[string]*Stack)}
}

// Lookup returns the stack called name, creating it with the variant its
// name implies if it does not exist yet.
func (r *Registry) Lookup(name string) *Stack {
	if s, ok := r.stacks[name]; ok {
		return s
	}
	s := newStack(name, VariantOf(name))
	r.stacks[name] = s
	log.Debugf("created %s stack %q", s.Variant, name)
	return s
}

// Get returns an existing stack without creating it.
func (r *Registry) Get(name string) (*Stack, bool) {
	s, ok := r.stacks[name]
	return s, ok
}

// Len returns the number of stacks created so far.
func (r *Registry) Len() int {
	return len(r.stacks)
}

// Names returns the registered stack names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stacks))
	for name := range r.stacks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
