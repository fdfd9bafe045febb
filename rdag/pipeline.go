package rdag

import (
	"fmt"

	"github.com/rastergen/rastergen/internal/names"
)

// ArgSpec describes one runtime argument of a pipeline. Current is read on
// every realization, so values assigned after binding are visible without
// rebinding.
type ArgSpec struct {
	Name    string
	Type    ScalarType
	Current func() float64
}

// ParamValue records one compile-time parameter binding. The values travel
// with the pipeline into emitted artifacts, so consumers can tell which
// variant of a generator produced them.
type ParamValue struct {
	Name  string
	Value string
}

// Pipeline is a validated stage graph. Its structure is frozen at Build;
// Bind attaches runtime arguments and the parameter record exactly once.
type Pipeline struct {
	name   string
	stages map[string]*Stage
	order  []string
	output string

	args   []ArgSpec
	params []ParamValue
	bound  bool
}

func (p *Pipeline) Name() string { return p.name }

// Output returns the stage realized by the pipeline.
func (p *Pipeline) Output() *Stage { return p.stages[p.output] }

// Stages returns all stages in declaration order.
func (p *Pipeline) Stages() []*Stage {
	out := make([]*Stage, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.stages[name])
	}
	return out
}

// Stage looks a stage up by name.
func (p *Pipeline) Stage(name string) (*Stage, bool) {
	s, ok := p.stages[name]
	return s, ok
}

// OutputType is the element type the pipeline stores: the output stage's
// root cast when present, Float32 otherwise.
func (p *Pipeline) OutputType() ScalarType {
	if e := p.Output().Body(); e.Op() == OpCast {
		return e.CastType()
	}
	return Float32
}

func (p *Pipeline) Args() []ArgSpec { return append([]ArgSpec(nil), p.args...) }

func (p *Pipeline) Params() []ParamValue { return append([]ParamValue(nil), p.params...) }

func (p *Pipeline) Bound() bool { return p.bound }

// Bind attaches the runtime arguments and the compile-time parameter record
// to the pipeline. Every argument referenced by a stage body must be
// declared here. Bind may be called at most once.
func (p *Pipeline) Bind(args []ArgSpec, params []ParamValue) error {
	if p.bound {
		return fmt.Errorf("%w: %q", ErrAlreadyBound, p.name)
	}

	declared := make(map[string]bool, len(args))
	for _, a := range args {
		if err := names.Check(a.Name); err != nil {
			return fmt.Errorf("%w: argument: %v", ErrInvalidName, err)
		}
		if declared[a.Name] {
			return fmt.Errorf("%w: argument %q declared twice", ErrInvalidPipeline, a.Name)
		}
		if a.Current == nil {
			return fmt.Errorf("%w: argument %q has no value source", ErrInvalidPipeline, a.Name)
		}
		declared[a.Name] = true
	}

	for _, name := range p.order {
		var bad error
		p.stages[name].body.walk(func(e *Expr) {
			if bad == nil && e.op == OpArg && !declared[e.sym] {
				bad = fmt.Errorf("%w: %q referenced by stage %q", ErrUnknownArg, e.sym, name)
			}
		})
		if bad != nil {
			return bad
		}
	}

	p.args = append([]ArgSpec(nil), args...)
	p.params = append([]ParamValue(nil), params...)
	p.bound = true
	return nil
}
