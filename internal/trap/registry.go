package trap

import (
	"fmt"
	"sort"
	"sync"
)

// Func is the body of a guarded operation. It must be safe to abandon at any
// instruction: a trap discards it without cleanup.
type Func func() (float64, error)

// Registry maps op names to their bodies. A probe child rebuilds the same
// registry from the same configuration and looks the op up by name, so
// names must be stable across processes.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Func)}
}

// Register adds fn under name.
func (r *Registry) Register(name string, fn Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ops[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateOp, name)
	}

	r.ops[name] = fn

	return nil
}

// MustRegister is Register that panics on a duplicate name.
func (r *Registry) MustRegister(name string, fn Func) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the op registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.ops[name]

	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
