package bridge

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds the page half of a bridge around its base
type Factory func(base *Base) Page

// Registry maps bridge identifiers to factories. It is filled during start up
// and read concurrently by every request's manager.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under id. Duplicate ids return an error.
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" {
		return fmt.Errorf("bridge: identifier is required")
	}
	if factory == nil {
		return fmt.Errorf("bridge: factory for %q is required", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("bridge: %q already registered", id)
	}

	r.factories[id] = factory
	return nil
}

// MustRegister is Register for start up wiring, panicking on failure
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Resolve returns the factory registered under id
func (r *Registry) Resolve(id string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBridgeResolution, id)
	}
	return factory, nil
}

// List returns the registered identifiers, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether a factory is registered under id
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[id]
	return ok
}
