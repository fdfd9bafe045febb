package rdag

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/rastergen/rastergen/internal/names"
)

// Construction limits. Realistic pipelines stay far below these; the caps
// keep validation and lowering bounded.
const (
	MaxStages = 4096
	MaxDims   = 16
	MaxDepth  = 256
)

func (b *Builder) validate(output *Stage) error {
	if err := names.Check(b.name); err != nil {
		return fmt.Errorf("%w: pipeline name: %v", ErrInvalidName, err)
	}
	if len(b.stages) > MaxStages {
		return fmt.Errorf("%w: %d stages, maximum is %d", ErrInvalidPipeline, len(b.stages), MaxStages)
	}
	if got, ok := b.stages[output.name]; !ok || got != output {
		return fmt.Errorf("%w: output stage %q is not part of this pipeline", ErrUnknownStage, output.name)
	}

	for _, name := range b.order {
		s := b.stages[name]
		if s.body == nil {
			return fmt.Errorf("%w: %q", ErrUndefinedStage, name)
		}
		if err := b.checkExpr(s, s.body, 0); err != nil {
			return err
		}
		if err := checkDirectives(s); err != nil {
			return err
		}
	}

	if err := b.checkCycles(); err != nil {
		return err
	}
	return b.checkReachable(output.name)
}

func (b *Builder) checkExpr(s *Stage, e *Expr, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: expression depth exceeds %d in stage %q", ErrInvalidPipeline, MaxDepth, s.name)
	}
	switch e.op {
	case OpVar:
		if !s.hasDim(e.sym) {
			return fmt.Errorf("%w: %q referenced by stage %q", ErrUnknownDim, e.sym, s.name)
		}
	case OpCall:
		got, ok := b.stages[e.callee.name]
		if !ok || got != e.callee {
			return fmt.Errorf("%w: stage %q calls %q which is not part of this pipeline",
				ErrUnknownStage, s.name, e.callee.name)
		}
		if len(e.kids) != len(e.callee.dims) {
			return fmt.Errorf("%w: %q takes %d coordinates, stage %q passes %d",
				ErrArityMismatch, e.callee.name, len(e.callee.dims), s.name, len(e.kids))
		}
	}
	for _, kid := range e.kids {
		if err := b.checkExpr(s, kid, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func checkDirectives(s *Stage) error {
	bounded := make(map[string]bool)
	for _, d := range s.directives {
		for _, dim := range d.Dims {
			if !s.hasDim(dim) {
				return fmt.Errorf("%w: %s names unknown dimension %q of stage %q",
					ErrInvalidSchedule, d.Kind, dim, s.name)
			}
		}
		switch d.Kind {
		case DirBound:
			if d.Extent <= 0 {
				return fmt.Errorf("%w: bound extent for %q of stage %q must be positive, got %d",
					ErrInvalidSchedule, d.Dims[0], s.name, d.Extent)
			}
			if bounded[d.Dims[0]] {
				return fmt.Errorf("%w: dimension %q of stage %q bounded twice",
					ErrInvalidSchedule, d.Dims[0], s.name)
			}
			bounded[d.Dims[0]] = true
		case DirReorder:
			if err := checkPermutation(s, d.Dims); err != nil {
				return err
			}
		case DirVectorize:
			if d.Lanes < 0 {
				return fmt.Errorf("%w: vectorize lanes for %q of stage %q must not be negative, got %d",
					ErrInvalidSchedule, d.Dims[0], s.name, d.Lanes)
			}
		}
	}
	return nil
}

// checkPermutation requires a reorder to name every dimension of the stage
// exactly once.
func checkPermutation(s *Stage, dims []string) error {
	if len(dims) != len(s.dims) {
		return fmt.Errorf("%w: reorder on stage %q names %d of %d dimensions",
			ErrInvalidSchedule, s.name, len(dims), len(s.dims))
	}
	seen := make(map[string]bool, len(dims))
	for _, dim := range dims {
		if seen[dim] {
			return fmt.Errorf("%w: reorder on stage %q names %q twice", ErrInvalidSchedule, s.name, dim)
		}
		seen[dim] = true
	}
	return nil
}

// calls returns the distinct stages called by name's body, in first-use
// order.
func (b *Builder) calls(name string) []string {
	s := b.stages[name]
	if s == nil || s.body == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	s.body.walk(func(e *Expr) {
		if e.op == OpCall && !seen[e.callee.name] {
			seen[e.callee.name] = true
			out = append(out, e.callee.name)
		}
	})
	return out
}

func (b *Builder) checkCycles() error {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(b.stages))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		color[name] = grey
		path = append(path, name)
		for _, dep := range b.calls(name) {
			switch color[dep] {
			case grey:
				cycle := append(append([]string(nil), path...), dep)
				return fmt.Errorf("%w: %s", ErrCycleDetected, strings.Join(cycle, " -> "))
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return nil
	}

	for _, name := range b.order {
		if color[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) checkReachable(output string) error {
	reached := make(map[string]bool, len(b.stages))
	var visit func(name string)
	visit = func(name string) {
		if reached[name] {
			return
		}
		reached[name] = true
		for _, dep := range b.calls(name) {
			visit(dep)
		}
	}
	visit(output)

	var unreachable []string
	for name := range b.stages {
		if !reached[name] {
			unreachable = append(unreachable, name)
		}
	}
	if len(unreachable) == 0 {
		return nil
	}
	slices.Sort(unreachable)
	return fmt.Errorf("%w: %s", ErrUnreachableStage, strings.Join(unreachable, ", "))
}
