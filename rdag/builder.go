package rdag

import (
	"errors"
	"fmt"

	"github.com/rastergen/rastergen/internal/names"
)

// Builder constructs a pipeline stage by stage.
//
// Builder is NOT safe for concurrent use. All construction happens on a
// single goroutine; the Pipeline returned by Build is immutable and safe to
// share.
type Builder struct {
	name   string
	stages map[string]*Stage
	order  []string
}

// NewBuilder creates a builder for a pipeline with the given name. The
// name is validated when Build runs.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:   name,
		stages: make(map[string]*Stage),
	}
}

// Stage declares a stage over the given dimensions, innermost first.
// The stage still needs Define before the pipeline can build.
func (b *Builder) Stage(name string, dims ...string) (*Stage, error) {
	if err := names.Check(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	if _, exists := b.stages[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrStageExists, name)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: stage %q declares no dimensions", ErrInvalidPipeline, name)
	}
	if len(dims) > MaxDims {
		return nil, fmt.Errorf("%w: stage %q declares %d dimensions, maximum is %d",
			ErrInvalidPipeline, name, len(dims), MaxDims)
	}
	seen := make(map[string]bool, len(dims))
	for _, d := range dims {
		if err := names.Check(d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
		}
		if seen[d] {
			return nil, fmt.Errorf("%w: stage %q declares dim %q twice", ErrInvalidPipeline, name, d)
		}
		seen[d] = true
	}

	s := &Stage{name: name, dims: append([]string(nil), dims...)}
	b.stages[name] = s
	b.order = append(b.order, name)
	return s, nil
}

// MustStage is like Stage but panics on error.
func (b *Builder) MustStage(name string, dims ...string) *Stage {
	s, err := b.Stage(name, dims...)
	if err != nil {
		panic(err)
	}
	return s
}

// Build validates the graph and freezes it into a Pipeline with the given
// output stage.
func (b *Builder) Build(output *Stage) (*Pipeline, error) {
	if output == nil {
		return nil, fmt.Errorf("%w: no output stage", ErrInvalidPipeline)
	}
	if err := b.validate(output); err != nil {
		return nil, fmt.Errorf("pipeline validation failed: %w", err)
	}

	return &Pipeline{
		name:   b.name,
		stages: b.stages,
		order:  b.order,
		output: output.name,
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild(output *Stage) *Pipeline {
	p, err := b.Build(output)
	if err != nil {
		panic(err)
	}
	return p
}

// Sentinel errors for construction and validation failures.
var (
	ErrInvalidName      = errors.New("invalid name")
	ErrStageExists      = errors.New("stage already exists")
	ErrUnknownStage     = errors.New("unknown stage")
	ErrUnknownDim       = errors.New("unknown dimension")
	ErrUnknownArg       = errors.New("unknown argument")
	ErrUndefinedStage   = errors.New("stage has no definition")
	ErrArityMismatch    = errors.New("stage arity mismatch")
	ErrCycleDetected    = errors.New("cycle detected in pipeline")
	ErrUnreachableStage = errors.New("stage unreachable from output")
	ErrInvalidSchedule  = errors.New("invalid schedule directive")
	ErrInvalidPipeline  = errors.New("invalid pipeline")
	ErrAlreadyBound     = errors.New("pipeline already bound")
	ErrShape            = errors.New("realization shape mismatch")
)
