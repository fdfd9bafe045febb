package rastergen

import (
	"fmt"
	"io"
	"sync"

	"github.com/rastergen/rastergen/rdag"
	"github.com/rastergen/rastergen/rparam"
	"github.com/rastergen/rastergen/rtarget"
)

// Instance is one configured build of a generator. The lifecycle is
// strict: set compile-time parameters, Build once, then set runtime
// parameters between realizations. Compile-time sets after Build fail with
// rparam.ErrImmutableAfterBuild; a second Build fails with ErrAlreadyBuilt.
//
// Build is safe to race; parameter configuration is single-goroutine, like
// the registry underneath it.
type Instance struct {
	name string
	gen  Generator

	mu       sync.Mutex
	built    bool
	pipeline *rdag.Pipeline
}

func newInstance(name string, gen Generator) *Instance {
	return &Instance{name: name, gen: gen}
}

// Name is the name the generator was registered under.
func (in *Instance) Name() string { return in.name }

// Generator exposes the underlying generator, mainly for interface checks.
func (in *Instance) Generator() Generator { return in.gen }

// SetParam assigns a typed value to the named parameter.
func (in *Instance) SetParam(name string, v any) error {
	return in.gen.Params().Set(name, v)
}

// SetParamString parses s per the parameter's kind and assigns it. This is
// the path the command-line driver and parameter files use.
func (in *Instance) SetParamString(name, s string) error {
	return in.gen.Params().SetString(name, s)
}

// Describe writes the generator's description.
func (in *Instance) Describe(w io.Writer) { in.gen.Describe(w) }

// Target returns the instance's compilation target, or the host default
// when the generator does not carry the built-in target parameter.
func (in *Instance) Target() rtarget.Target {
	if p, ok := in.gen.Params().Lookup("target"); ok {
		if tp, ok := p.(*rparam.OpaqueParam[rtarget.Target]); ok {
			return tp.Value()
		}
	}
	return HostOrDefault()
}

// Pipeline returns the built pipeline, or nil before Build succeeds.
func (in *Instance) Pipeline() *rdag.Pipeline {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.pipeline
}

// Build runs the generator exactly once. Required parameters are checked,
// the registry seals its compile-time values, the generator constructs its
// pipeline and the instance binds the runtime argument slots plus a
// snapshot of the compile-time values onto it.
//
// Only a successful Build arms ErrAlreadyBuilt. A build that fails on a
// missing required parameter can be fixed and retried; once the registry
// seals, compile-time values are frozen, so later failures call for a
// fresh instance.
func (in *Instance) Build() (*rdag.Pipeline, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.built {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyBuilt, in.name)
	}

	params := in.gen.Params()
	if err := params.CheckRequired(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}
	params.Seal()

	p, err := in.gen.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: generator %q: %w", ErrBuild, in.name, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: generator %q returned no pipeline", ErrBuild, in.name)
	}

	if err := p.Bind(runtimeArgs(params), paramSnapshot(params)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	in.pipeline = p
	in.built = true
	return p, nil
}

// runtimeArgs turns the runtime-bound parameters into argument slots, in
// declaration order. Int arguments pass as int32, bool as uint8; float
// parameters keep their full width. Each slot reads the parameter live, so
// sets between realizations take effect without rebuilding.
func runtimeArgs(params *rparam.Registry) []rdag.ArgSpec {
	var args []rdag.ArgSpec
	for _, p := range params.RuntimeParams() {
		spec := rdag.ArgSpec{Name: p.Name()}
		switch tp := p.(type) {
		case *rparam.IntParam:
			spec.Type = rdag.Int32
			spec.Current = func() float64 { return float64(tp.Value()) }
		case *rparam.FloatParam:
			spec.Type = rdag.Float64
			spec.Current = func() float64 { return tp.Value() }
		case *rparam.BoolParam:
			spec.Type = rdag.UInt8
			spec.Current = func() float64 {
				if tp.Value() {
					return 1
				}
				return 0
			}
		}
		args = append(args, spec)
	}
	return args
}

// paramSnapshot freezes the compile-time values for provenance on the
// pipeline.
func paramSnapshot(params *rparam.Registry) []rdag.ParamValue {
	var vals []rdag.ParamValue
	params.Visit(func(p rparam.Parameter) {
		if p.Binding() == rparam.CompileTime {
			vals = append(vals, rdag.ParamValue{Name: p.Name(), Value: p.ValueString()})
		}
	})
	return vals
}
