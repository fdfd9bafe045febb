package rparam

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// EnumParam is a parameter over a closed set of named values. The mapping
// from display key to value must be bijective so values resolve back to
// their key in describe output and error messages.
type EnumParam[T comparable] struct {
	meta
	keys    []string
	mapping map[string]T
	reverse map[T]string
	defKey  string
	key     string
}

// Enum declares an enumerated parameter on r. The default is given as a
// display key of mapping.
func Enum[T comparable](r *Registry, name string, def string, mapping map[string]T, opts ...Option) (*EnumParam[T], error) {
	s := newSettings(opts)
	if err := r.declare(name, KindEnum, s); err != nil {
		return nil, err
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("%w: parameter %q has an empty mapping", ErrInvalidEnum, name)
	}

	keys := make([]string, 0, len(mapping))
	reverse := make(map[T]string, len(mapping))
	for k, v := range mapping {
		if prev, dup := reverse[v]; dup {
			// Deterministic message regardless of map order.
			a, b := k, prev
			if b < a {
				a, b = b, a
			}
			return nil, fmt.Errorf("%w: parameter %q maps keys %q and %q to the same value",
				ErrInvalidEnum, name, a, b)
		}
		reverse[v] = k
		keys = append(keys, k)
	}
	slices.Sort(keys)

	if _, ok := mapping[def]; !ok {
		return nil, fmt.Errorf("%w: parameter %q default %q not among keys [%s]",
			ErrInvalidEnumDefault, name, def, strings.Join(keys, ", "))
	}

	// Copy so later mutation of the caller's map cannot skew the parameter.
	owned := make(map[string]T, len(mapping))
	for k, v := range mapping {
		owned[k] = v
	}

	p := &EnumParam[T]{
		meta:    newMeta(name, KindEnum, s),
		keys:    keys,
		mapping: owned,
		reverse: reverse,
		defKey:  def,
		key:     def,
	}
	r.add(p)
	return p, nil
}

// MustEnum is like Enum but panics on error.
func MustEnum[T comparable](r *Registry, name string, def string, mapping map[string]T, opts ...Option) *EnumParam[T] {
	return mustParam(Enum(r, name, def, mapping, opts...))
}

// Value returns the mapped value of the current key.
func (p *EnumParam[T]) Value() T { return p.mapping[p.key] }

// Key returns the current display key.
func (p *EnumParam[T]) Key() string { return p.key }

// Default returns the mapped value of the default key.
func (p *EnumParam[T]) Default() T { return p.mapping[p.defKey] }

// Keys returns the display keys in sorted order.
func (p *EnumParam[T]) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

func (p *EnumParam[T]) ValueString() string   { return p.key }
func (p *EnumParam[T]) DefaultString() string { return p.defKey }

func (p *EnumParam[T]) Constraint() string {
	return "one of [" + strings.Join(p.keys, ", ") + "]"
}

// set accepts either a display key (string) or a mapped value (T). Key
// lookup is exact and case-sensitive.
func (p *EnumParam[T]) set(v any) error {
	if s, ok := v.(string); ok {
		if _, ok := p.mapping[s]; ok {
			p.key = s
			p.explicit = true
			return nil
		}
		// T may itself be string; fall through to value resolution.
		if tv, ok := any(s).(T); ok {
			if key, ok := p.reverse[tv]; ok {
				p.key = key
				p.explicit = true
				return nil
			}
		}
		return fmt.Errorf("%w: parameter %q has no key %q (keys: %s)",
			ErrNotAnEnumKey, p.name, s, strings.Join(p.keys, ", "))
	}
	if tv, ok := v.(T); ok {
		key, ok := p.reverse[tv]
		if !ok {
			return fmt.Errorf("%w: parameter %q has no entry for value %v", ErrNotAnEnumKey, p.name, tv)
		}
		p.key = key
		p.explicit = true
		return nil
	}
	return fmt.Errorf("%w: parameter %q holds an enum, got %T", ErrTypeMismatch, p.name, v)
}

func (p *EnumParam[T]) setString(s string) error {
	if _, ok := p.mapping[s]; !ok {
		return fmt.Errorf("%w: parameter %q has no key %q (keys: %s)",
			ErrNotAnEnumKey, p.name, s, strings.Join(p.keys, ", "))
	}
	p.key = s
	p.explicit = true
	return nil
}

func (p *EnumParam[T]) get() any { return p.mapping[p.key] }
