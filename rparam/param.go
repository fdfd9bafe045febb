package rparam

import (
	"fmt"
	"strconv"
)

// Kind identifies the value class of a parameter.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindEnum
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Binding says when a parameter's value is consumed. CompileTime parameters
// specialize the pipeline and freeze when the registry is sealed. Runtime
// parameters become arguments of the compiled function and stay settable.
type Binding int

const (
	CompileTime Binding = iota
	Runtime
)

func (b Binding) String() string {
	if b == Runtime {
		return "runtime"
	}
	return "compile-time"
}

// Option configures a parameter declaration.
type Option func(*settings)

type settings struct {
	binding  Binding
	required bool
	doc      string
	min, max *float64
}

// WithBounds declares an inclusive range for a numeric parameter. Declaring
// only one end (WithMin or WithMax alone) is rejected.
var WithBounds = func(min, max float64) Option {
	return func(s *settings) {
		s.min, s.max = &min, &max
	}
}

// WithMin declares the lower bound of a numeric parameter.
var WithMin = func(min float64) Option {
	return func(s *settings) {
		s.min = &min
	}
}

// WithMax declares the upper bound of a numeric parameter.
var WithMax = func(max float64) Option {
	return func(s *settings) {
		s.max = &max
	}
}

// WithRuntime declares the parameter as runtime-bound. Only int, float and
// bool parameters can be runtime-bound.
var WithRuntime = func() Option {
	return func(s *settings) {
		s.binding = Runtime
	}
}

// WithRequired marks the parameter as having no usable default: it must be
// set explicitly before the owning generator builds.
var WithRequired = func() Option {
	return func(s *settings) {
		s.required = true
	}
}

// WithDoc attaches a one-line description shown by describe output.
var WithDoc = func(doc string) Option {
	return func(s *settings) {
		s.doc = doc
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parameter is the type-erased view of a declared parameter held by the
// Registry. The typed accessors live on the concrete types (IntParam,
// FloatParam, BoolParam, EnumParam, OpaqueParam); writes go through
// Registry.Set so sealing is enforced in one place.
type Parameter interface {
	Name() string
	Kind() Kind
	Binding() Binding
	Required() bool
	Doc() string

	// Explicit reports whether the parameter has been set since declaration.
	Explicit() bool
	// ValueString renders the current value for describe output.
	ValueString() string
	// DefaultString renders the declared default.
	DefaultString() string
	// Constraint renders the declared bounds or enum keys, or "".
	Constraint() string

	set(v any) error
	setString(s string) error
	get() any
}

// meta carries the declaration data shared by every parameter kind.
type meta struct {
	name     string
	kind     Kind
	binding  Binding
	required bool
	doc      string
	min, max *float64
	explicit bool
}

func newMeta(name string, kind Kind, s *settings) meta {
	return meta{
		name:     name,
		kind:     kind,
		binding:  s.binding,
		required: s.required,
		doc:      s.doc,
		min:      s.min,
		max:      s.max,
	}
}

func (m *meta) Name() string     { return m.name }
func (m *meta) Kind() Kind       { return m.kind }
func (m *meta) Binding() Binding { return m.binding }
func (m *meta) Required() bool   { return m.required }
func (m *meta) Doc() string      { return m.doc }
func (m *meta) Explicit() bool   { return m.explicit }

func (m *meta) Constraint() string {
	if m.min == nil {
		return ""
	}
	return fmt.Sprintf("[%v, %v]", *m.min, *m.max)
}

func (m *meta) boundsCheck(v float64) error {
	if m.min != nil && (v < *m.min || v > *m.max) {
		return fmt.Errorf("%w: parameter %q value %v outside [%v, %v]",
			ErrOutOfBounds, m.name, v, *m.min, *m.max)
	}
	return nil
}

// checkDefaultBounds rejects declarations whose default already violates the
// declared bounds. This is a declaration error, not a set error.
func checkDefaultBounds(name string, def float64, s *settings) error {
	if s.min != nil && (def < *s.min || def > *s.max) {
		return fmt.Errorf("%w: parameter %q default %v outside [%v, %v]",
			ErrInvalidBounds, name, def, *s.min, *s.max)
	}
	return nil
}

// IntParam is an integer-valued parameter.
type IntParam struct {
	meta
	def, val int64
}

// Int declares an integer parameter on r.
func Int(r *Registry, name string, def int64, opts ...Option) (*IntParam, error) {
	s := newSettings(opts)
	if err := r.declare(name, KindInt, s); err != nil {
		return nil, err
	}
	if err := checkDefaultBounds(name, float64(def), s); err != nil {
		return nil, err
	}
	p := &IntParam{meta: newMeta(name, KindInt, s), def: def, val: def}
	r.add(p)
	return p, nil
}

// MustInt is like Int but panics on error.
func MustInt(r *Registry, name string, def int64, opts ...Option) *IntParam {
	return mustParam(Int(r, name, def, opts...))
}

func (p *IntParam) Value() int64   { return p.val }
func (p *IntParam) Default() int64 { return p.def }

func (p *IntParam) ValueString() string   { return strconv.FormatInt(p.val, 10) }
func (p *IntParam) DefaultString() string { return strconv.FormatInt(p.def, 10) }

func (p *IntParam) set(v any) error {
	var n int64
	switch t := v.(type) {
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	default:
		return fmt.Errorf("%w: parameter %q holds int, got %T", ErrTypeMismatch, p.name, v)
	}
	if err := p.boundsCheck(float64(n)); err != nil {
		return err
	}
	p.val = n
	p.explicit = true
	return nil
}

func (p *IntParam) setString(s string) error {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: parameter %q: cannot parse %q as int", ErrTypeMismatch, p.name, s)
	}
	return p.set(n)
}

func (p *IntParam) get() any { return p.val }

// FloatParam is a float-valued parameter. Integer values widen on set;
// nothing narrows.
type FloatParam struct {
	meta
	def, val float64
}

// Float declares a float parameter on r.
func Float(r *Registry, name string, def float64, opts ...Option) (*FloatParam, error) {
	s := newSettings(opts)
	if err := r.declare(name, KindFloat, s); err != nil {
		return nil, err
	}
	if err := checkDefaultBounds(name, def, s); err != nil {
		return nil, err
	}
	p := &FloatParam{meta: newMeta(name, KindFloat, s), def: def, val: def}
	r.add(p)
	return p, nil
}

// MustFloat is like Float but panics on error.
func MustFloat(r *Registry, name string, def float64, opts ...Option) *FloatParam {
	return mustParam(Float(r, name, def, opts...))
}

func (p *FloatParam) Value() float64   { return p.val }
func (p *FloatParam) Default() float64 { return p.def }

func (p *FloatParam) ValueString() string   { return formatFloat(p.val) }
func (p *FloatParam) DefaultString() string { return formatFloat(p.def) }

func (p *FloatParam) set(v any) error {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	default:
		return fmt.Errorf("%w: parameter %q holds float, got %T", ErrTypeMismatch, p.name, v)
	}
	if err := p.boundsCheck(f); err != nil {
		return err
	}
	p.val = f
	p.explicit = true
	return nil
}

func (p *FloatParam) setString(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: parameter %q: cannot parse %q as float", ErrTypeMismatch, p.name, s)
	}
	return p.set(f)
}

func (p *FloatParam) get() any { return p.val }

// BoolParam is a boolean parameter.
type BoolParam struct {
	meta
	def, val bool
}

// Bool declares a bool parameter on r.
func Bool(r *Registry, name string, def bool, opts ...Option) (*BoolParam, error) {
	s := newSettings(opts)
	if err := r.declare(name, KindBool, s); err != nil {
		return nil, err
	}
	p := &BoolParam{meta: newMeta(name, KindBool, s), def: def, val: def}
	r.add(p)
	return p, nil
}

// MustBool is like Bool but panics on error.
func MustBool(r *Registry, name string, def bool, opts ...Option) *BoolParam {
	return mustParam(Bool(r, name, def, opts...))
}

func (p *BoolParam) Value() bool   { return p.val }
func (p *BoolParam) Default() bool { return p.def }

func (p *BoolParam) ValueString() string   { return strconv.FormatBool(p.val) }
func (p *BoolParam) DefaultString() string { return strconv.FormatBool(p.def) }

func (p *BoolParam) set(v any) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("%w: parameter %q holds bool, got %T", ErrTypeMismatch, p.name, v)
	}
	p.val = b
	p.explicit = true
	return nil
}

func (p *BoolParam) setString(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("%w: parameter %q: cannot parse %q as bool", ErrTypeMismatch, p.name, s)
	}
	return p.set(b)
}

func (p *BoolParam) get() any { return p.val }

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func mustParam[P any](p P, err error) P {
	if err != nil {
		panic(err)
	}
	return p
}
