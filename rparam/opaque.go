package rparam

import "fmt"

// Codec converts an opaque parameter value to and from its string form.
// Parse must accept everything Format produces.
type Codec[T any] interface {
	Parse(s string) (T, error)
	Format(v T) string
}

// OpaqueParam is a parameter whose value type the framework does not
// interpret: scalar element types and compilation targets are declared this
// way. Values round-trip through the codec for driver and describe output.
type OpaqueParam[T comparable] struct {
	meta
	codec    Codec[T]
	def, val T
}

// Opaque declares an opaque-typed parameter on r.
func Opaque[T comparable](r *Registry, name string, def T, codec Codec[T], opts ...Option) (*OpaqueParam[T], error) {
	s := newSettings(opts)
	if err := r.declare(name, KindOpaque, s); err != nil {
		return nil, err
	}
	if codec == nil {
		return nil, fmt.Errorf("%w: %q", ErrNilCodec, name)
	}
	p := &OpaqueParam[T]{meta: newMeta(name, KindOpaque, s), codec: codec, def: def, val: def}
	r.add(p)
	return p, nil
}

// MustOpaque is like Opaque but panics on error.
func MustOpaque[T comparable](r *Registry, name string, def T, codec Codec[T], opts ...Option) *OpaqueParam[T] {
	return mustParam(Opaque(r, name, def, codec, opts...))
}

func (p *OpaqueParam[T]) Value() T   { return p.val }
func (p *OpaqueParam[T]) Default() T { return p.def }

func (p *OpaqueParam[T]) ValueString() string   { return p.codec.Format(p.val) }
func (p *OpaqueParam[T]) DefaultString() string { return p.codec.Format(p.def) }

// set accepts a value of the parameter's type, or a string parsed through
// the codec.
func (p *OpaqueParam[T]) set(v any) error {
	if tv, ok := v.(T); ok {
		p.val = tv
		p.explicit = true
		return nil
	}
	if s, ok := v.(string); ok {
		return p.setString(s)
	}
	return fmt.Errorf("%w: parameter %q holds %T, got %T", ErrTypeMismatch, p.name, p.val, v)
}

func (p *OpaqueParam[T]) setString(s string) error {
	tv, err := p.codec.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: parameter %q: %v", ErrTypeMismatch, p.name, err)
	}
	p.val = tv
	p.explicit = true
	return nil
}

func (p *OpaqueParam[T]) get() any { return p.val }
