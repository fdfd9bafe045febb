package rastergen

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/rastergen/rastergen/rdag"
	"github.com/rastergen/rastergen/rparam"
	"github.com/rastergen/rastergen/rtarget"
)

var (
	ErrNilFactory         = errors.New("nil generator factory")
	ErrDuplicateGenerator = errors.New("generator already registered")
	ErrUnknownGenerator   = errors.New("unknown generator")
	ErrInvalidName        = errors.New("invalid generator name")
	ErrBuild              = errors.New("generator build failed")
	ErrAlreadyBuilt       = errors.New("instance already built")
)

// Generator is a parameterized family of pipelines. One Build call turns
// the current compile-time parameter values into a concrete pipeline;
// different parameter values yield different pipelines from the same
// generator.
//
// Implementations embed Base, declare their parameters against Params() in
// their factory, and construct the pipeline in Build.
type Generator interface {
	// Params exposes the generator's parameter registry.
	Params() *rparam.Registry
	// Build constructs a pipeline from the current compile-time values.
	Build() (*rdag.Pipeline, error)
	// Describe writes a human-readable summary of the generator and its
	// parameters.
	Describe(w io.Writer)
}

// Base supplies everything of Generator except Build. It owns the
// parameter registry and declares the built-in compile-time "target"
// parameter that every generator carries, defaulting to the host target.
//
// The zero value is ready to use; the registry is created on first access.
type Base struct {
	// GeneratorName feeds Describe. The factory registry fills it in when
	// an instance is created, so generators normally leave it empty.
	GeneratorName string
	// Doc is an optional one-line description shown by Describe.
	Doc string

	once   sync.Once
	params *rparam.Registry
	target *rparam.OpaqueParam[rtarget.Target]
}

func (b *Base) init() {
	b.params = rparam.NewRegistry()
	b.target = MustTargetParam(b.params, "target", HostOrDefault(),
		rparam.WithDoc("compilation target triple"))
}

func (b *Base) Params() *rparam.Registry {
	b.once.Do(b.init)
	return b.params
}

// Target returns the current value of the built-in target parameter.
// Generators call this inside Build to specialize for the target.
func (b *Base) Target() rtarget.Target {
	b.once.Do(b.init)
	return b.target.Value()
}

// Describe writes the generator name, its doc line and a parameter table.
// Required parameters not yet set are marked with a trailing star.
func (b *Base) Describe(w io.Writer) {
	b.once.Do(b.init)
	fmt.Fprintf(w, "generator %s\n", b.GeneratorName)
	if b.Doc != "" {
		fmt.Fprintf(w, "  %s\n", b.Doc)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tKIND\tBINDING\tVALUE\tDEFAULT\tCONSTRAINT\tDOC")
	b.params.Visit(func(p rparam.Parameter) {
		name := p.Name()
		if p.Required() && !p.Explicit() {
			name += "*"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			name, p.Kind(), p.Binding(), p.ValueString(), p.DefaultString(), p.Constraint(), p.Doc())
	})
	tw.Flush()
}

// named lets the factory registry stamp the registered name onto
// generators that embed Base.
type named interface{ setName(string) }

func (b *Base) setName(name string) {
	if b.GeneratorName == "" {
		b.GeneratorName = name
	}
}
