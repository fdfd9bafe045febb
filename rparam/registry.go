package rparam

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/rastergen/rastergen/internal/names"
)

// Registry holds the named parameters of one pipeline definition. Names are
// unique across all kinds and iteration follows declaration order.
//
// Registry is NOT safe for concurrent use. Declarations and sets must come
// from a single goroutine; this matches how generators are built, where one
// instance owns its registry.
type Registry struct {
	params map[string]Parameter
	order  []string
	sealed bool
}

// NewRegistry creates an empty parameter registry.
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[string]Parameter),
	}
}

// declare validates a declaration before the parameter is constructed.
// Constructors call it first so no partially-valid parameter ever lands in
// the registry.
func (r *Registry) declare(name string, kind Kind, s *settings) error {
	if err := names.Check(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	if r.sealed {
		return fmt.Errorf("%w: cannot declare %q on a sealed registry", ErrImmutableAfterBuild, name)
	}
	if _, exists := r.params[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	switch kind {
	case KindInt, KindFloat:
	default:
		if s.min != nil || s.max != nil {
			return fmt.Errorf("%w: %s parameter %q cannot have bounds", ErrInvalidBounds, kind, name)
		}
		if kind != KindBool && s.binding == Runtime {
			return fmt.Errorf("%w: %s parameter %q cannot be runtime-bound", ErrInvalidBinding, kind, name)
		}
	}
	if (s.min == nil) != (s.max == nil) {
		return fmt.Errorf("%w: parameter %q declares one bound; give both ends or neither",
			ErrInvalidBounds, name)
	}
	if s.min != nil && *s.min > *s.max {
		return fmt.Errorf("%w: parameter %q min %v exceeds max %v", ErrInvalidBounds, name, *s.min, *s.max)
	}
	return nil
}

func (r *Registry) add(p Parameter) {
	r.params[p.Name()] = p
	r.order = append(r.order, p.Name())
}

// Set assigns a value to the named parameter. The value is kind-checked:
// ints widen into float parameters, enums accept a display key or a mapped
// value, opaque parameters accept their type or its string form. After the
// registry is sealed only runtime-bound parameters can be set.
func (r *Registry) Set(name string, v any) error {
	p, ok := r.params[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	if r.sealed && p.Binding() == CompileTime {
		return fmt.Errorf("%w: %q", ErrImmutableAfterBuild, name)
	}
	return p.set(v)
}

// SetString parses s per the parameter's kind and assigns it. This is the
// path the command-line driver and parameter files use.
func (r *Registry) SetString(name, s string) error {
	p, ok := r.params[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	if r.sealed && p.Binding() == CompileTime {
		return fmt.Errorf("%w: %q", ErrImmutableAfterBuild, name)
	}
	return p.setString(s)
}

// Get returns the current value of the named parameter. Int parameters
// yield int64, float parameters float64, bool parameters bool, enum and
// opaque parameters their mapped value.
func (r *Registry) Get(name string) (any, error) {
	p, ok := r.params[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return p.get(), nil
}

// Lookup returns the type-erased parameter by name.
func (r *Registry) Lookup(name string) (Parameter, bool) {
	p, ok := r.params[name]
	return p, ok
}

// Len returns the number of declared parameters.
func (r *Registry) Len() int {
	return len(r.params)
}

// Names returns the parameter names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Visit calls fn for every parameter in declaration order.
func (r *Registry) Visit(fn func(Parameter)) {
	for _, name := range r.order {
		fn(r.params[name])
	}
}

// RuntimeParams returns the runtime-bound parameters in declaration order.
func (r *Registry) RuntimeParams() []Parameter {
	var out []Parameter
	for _, name := range r.order {
		if p := r.params[name]; p.Binding() == Runtime {
			out = append(out, p)
		}
	}
	return out
}

// Seal freezes the compile-time parameters. Sealing is not reversible; the
// framework seals the registry when a generator builds.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// CheckRequired reports every required parameter that is still at its
// default, aggregated into a single error wrapping ErrRequired.
func (r *Registry) CheckRequired() error {
	var missing error
	for _, name := range r.order {
		p := r.params[name]
		if p.Required() && !p.Explicit() {
			missing = multierr.Append(missing, fmt.Errorf("parameter %q must be set explicitly", name))
		}
	}
	if missing == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrRequired, missing)
}

// Sentinel errors for declaration and assignment failures.
var (
	ErrInvalidName         = errors.New("invalid parameter name")
	ErrDuplicateName       = errors.New("parameter already declared")
	ErrInvalidBounds       = errors.New("invalid bounds")
	ErrInvalidEnum         = errors.New("invalid enum mapping")
	ErrInvalidEnumDefault  = errors.New("enum default not in mapping")
	ErrNilCodec            = errors.New("opaque parameter needs a codec")
	ErrInvalidBinding      = errors.New("invalid binding time")
	ErrUnknownParameter    = errors.New("unknown parameter")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrOutOfBounds         = errors.New("value out of bounds")
	ErrNotAnEnumKey        = errors.New("not an enum key")
	ErrRequired            = errors.New("required parameter not set")
	ErrImmutableAfterBuild = errors.New("compile-time parameter immutable after build")
)
