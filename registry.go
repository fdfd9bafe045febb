package rastergen

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/rastergen/rastergen/internal/names"
)

// Factory constructs a fresh Generator with its own parameter registry.
// Every Create call invokes the factory again, so instances never share
// parameter state.
type Factory func() Generator

// Registry maps generator names to factories. It is safe for concurrent
// use; the expected pattern is registration from init functions and
// lookups from the driver afterwards.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty generator registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name. Names follow the identifier grammar
// and must be unique within the registry.
func (r *Registry) Register(name string, f Factory) error {
	if err := names.Check(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	if f == nil {
		return fmt.Errorf("%w: %q", ErrNilFactory, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateGenerator, name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is Register that panics on error, for use from init
// functions.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Create instantiates the named generator. Each call returns a new
// Instance around a freshly constructed Generator.
func (r *Registry) Create(name string) (*Instance, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, name)
	}
	gen := f()
	if n, ok := gen.(named); ok {
		n.setName(name)
	}
	return newInstance(name, gen), nil
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// defaultRegistry backs the package-level functions. Generator packages
// register themselves here from init, and the driver links them in with
// blank imports.
var defaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(name string, f Factory) error { return defaultRegistry.Register(name, f) }

// MustRegister adds a factory to the default registry and panics on error.
func MustRegister(name string, f Factory) { defaultRegistry.MustRegister(name, f) }

// Create instantiates a generator from the default registry.
func Create(name string) (*Instance, error) { return defaultRegistry.Create(name) }

// List returns the default registry's generator names, sorted.
func List() []string { return defaultRegistry.List() }
