package rbackend

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/rastergen/rastergen/internal/names"
	"github.com/rastergen/rastergen/rmodule"
	"github.com/rastergen/rastergen/rtarget"
)

// ArtifactKind selects the on-disk form of an emitted module.
type ArtifactKind uint8

const (
	ArtifactObject ArtifactKind = iota
	ArtifactAssembly
	ArtifactBitcode
	ArtifactIRText
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactObject:
		return "object"
	case ArtifactAssembly:
		return "assembly"
	case ArtifactBitcode:
		return "bitcode"
	case ArtifactIRText:
		return "ir"
	default:
		return fmt.Sprintf("artifact(%d)", uint8(k))
	}
}

// Ext returns the conventional file extension for the kind, dot included.
func (k ArtifactKind) Ext() string {
	switch k {
	case ArtifactObject:
		return ".o"
	case ArtifactAssembly:
		return ".s"
	case ArtifactBitcode:
		return ".rbc"
	default:
		return ".rir"
	}
}

// ParseArtifactKind maps the names accepted on command lines ("object",
// "assembly", "bitcode", "ir") to their kind.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch s {
	case "object":
		return ArtifactObject, nil
	case "assembly":
		return ArtifactAssembly, nil
	case "bitcode":
		return ArtifactBitcode, nil
	case "ir":
		return ArtifactIRText, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownArtifact, s)
	}
}

// Emitter lowers compiled modules into emittable representations and
// serializes them. A single Emitter may be shared across goroutines.
type Emitter struct {
	log logr.Logger
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithLogger sets the logger. The default discards everything.
var WithLogger = func(log logr.Logger) Option {
	return func(e *Emitter) {
		e.log = log
	}
}

// New creates an Emitter.
func New(opts ...Option) *Emitter {
	e := &Emitter{log: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Representation is the backend-lowered form of a module: validated,
// vector widths resolved, every function encoded to its word image. It is
// immutable; concurrent Emit calls on one Representation are safe.
type Representation struct {
	module string
	target rtarget.Target
	funcs  []loweredFunc
}

type loweredFunc struct {
	fn    rmodule.Function
	lanes []int // per loop, 0 = scalar
	image []byte
}

// Module returns the module name.
func (r *Representation) Module() string { return r.module }

func (r *Representation) Target() rtarget.Target { return r.target }

// Functions returns the function names in emission order.
func (r *Representation) Functions() []string {
	out := make([]string, len(r.funcs))
	for i := range r.funcs {
		out[i] = r.funcs[i].fn.Name
	}
	return out
}

// Lower validates a module against the backend and encodes it. This is the
// expensive step; the result can be emitted into any number of artifacts.
func (e *Emitter) Lower(m *rmodule.Module) (*Representation, error) {
	if m == nil || len(m.Funcs) == 0 {
		return nil, fmt.Errorf("%w: empty module", ErrLowering)
	}
	if err := m.Target.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedTarget, err)
	}
	if err := names.Check(m.Name); err != nil {
		return nil, fmt.Errorf("%w: module name: %v", ErrLowering, err)
	}

	rep := &Representation{module: m.Name, target: m.Target}
	for i := range m.Funcs {
		fn := &m.Funcs[i]
		if err := checkFunction(fn); err != nil {
			return nil, err
		}
		lf := loweredFunc{fn: *fn, lanes: resolveLanes(fn, m.Target)}
		lf.image = encodeFunction(&lf)
		rep.funcs = append(rep.funcs, lf)
	}

	e.log.V(1).Info("lowered module",
		"module", m.Name, "target", m.Target.String(), "functions", len(rep.funcs))
	return rep, nil
}

func checkFunction(fn *rmodule.Function) error {
	if err := names.Check(fn.Name); err != nil {
		return fmt.Errorf("%w: function name: %v", ErrLowering, err)
	}
	if len(fn.Body.Code) == 0 {
		return fmt.Errorf("%w: function %q has no code", ErrLowering, fn.Name)
	}
	if len(fn.Args) == 0 || fn.Args[len(fn.Args)-1].Kind != rmodule.ArgBuffer {
		return fmt.Errorf("%w: function %q must end in a buffer argument", ErrLowering, fn.Name)
	}

	seen := make(map[string]bool, len(fn.Args))
	for i, a := range fn.Args {
		if err := names.Check(a.Name); err != nil {
			return fmt.Errorf("%w: argument of %q: %v", ErrLowering, fn.Name, err)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: function %q declares argument %q twice", ErrLowering, fn.Name, a.Name)
		}
		seen[a.Name] = true
		if i < len(fn.Args)-1 && a.Kind != rmodule.ArgScalar {
			return fmt.Errorf("%w: function %q has a non-trailing buffer argument %q", ErrLowering, fn.Name, a.Name)
		}
	}
	if fn.Args[len(fn.Args)-1].Rank != len(fn.Body.Loops) {
		return fmt.Errorf("%w: function %q output rank %d does not match its %d loops",
			ErrLowering, fn.Name, fn.Args[len(fn.Args)-1].Rank, len(fn.Body.Loops))
	}

	dims := make(map[string]bool, len(fn.Body.Loops))
	for _, l := range fn.Body.Loops {
		if err := names.Check(l.Dim); err != nil {
			return fmt.Errorf("%w: loop of %q: %v", ErrLowering, fn.Name, err)
		}
		if dims[l.Dim] {
			return fmt.Errorf("%w: function %q loops over %q twice", ErrLowering, fn.Name, l.Dim)
		}
		dims[l.Dim] = true
	}

	for i, in := range fn.Body.Code {
		refs := [3]int32{in.A, in.B, in.C}
		for slot, ref := range refs {
			if slot < in.Op.Arity() {
				if ref < 0 || int(ref) >= i {
					return fmt.Errorf("%w: instruction %d of %q references value %d",
						ErrLowering, i, fn.Name, ref)
				}
			} else if ref != -1 {
				return fmt.Errorf("%w: instruction %d of %q sets an unused operand", ErrLowering, i, fn.Name)
			}
		}
		if in.Op == rmodule.OpVar && !dims[in.Sym] {
			return fmt.Errorf("%w: instruction %d of %q reads unknown dimension %q",
				ErrLowering, i, fn.Name, in.Sym)
		}
	}
	return nil
}

// resolveLanes turns natural-width vectorize requests into concrete lane
// counts for the target. Scalar targets degrade to one lane.
func resolveLanes(fn *rmodule.Function, t rtarget.Target) []int {
	lanes := make([]int, len(fn.Body.Loops))
	for i, l := range fn.Body.Loops {
		switch {
		case l.VectorLanes > 0:
			lanes[i] = l.VectorLanes
		case l.VectorLanes < 0:
			lanes[i] = t.NaturalLanes(fn.Ret.Bytes())
		}
	}
	return lanes
}

// Emit serializes one artifact kind to w. The artifact is built fully in
// memory first, so a failed or unsupported emission never writes a partial
// artifact. Sink failures wrap both ErrWrite and the sink's own error.
func (e *Emitter) Emit(rep *Representation, kind ArtifactKind, w io.Writer) error {
	var (
		art []byte
		err error
	)
	switch kind {
	case ArtifactObject:
		art, err = emitObject(rep)
	case ArtifactAssembly:
		art = emitAssembly(rep)
	case ArtifactBitcode:
		art = emitBitcode(rep)
	case ArtifactIRText:
		art = emitIRText(rep)
	default:
		return fmt.Errorf("%w: kind %d", ErrUnknownArtifact, uint8(kind))
	}
	if err != nil {
		return err
	}

	n, werr := w.Write(art)
	if werr != nil {
		return fmt.Errorf("%w: %s after %d bytes: %w", ErrWrite, kind, n, werr)
	}
	e.log.V(1).Info("emitted artifact", "module", rep.module, "kind", kind.String(), "bytes", len(art))
	return nil
}

// EmitAll emits every requested kind concurrently, one goroutine per sink.
// The first failure is returned; other emissions still run to completion.
func (e *Emitter) EmitAll(rep *Representation, sinks map[ArtifactKind]io.Writer) error {
	var g errgroup.Group
	for kind, w := range sinks {
		kind, w := kind, w
		g.Go(func() error {
			return e.Emit(rep, kind, w)
		})
	}
	return g.Wait()
}

// Sentinel errors reported by the backend.
var (
	ErrLowering            = errors.New("lowering failed")
	ErrUnsupportedTarget   = errors.New("unsupported target")
	ErrUnsupportedArtifact = errors.New("unsupported artifact")
	ErrUnknownArtifact     = errors.New("unknown artifact kind")
	ErrWrite               = errors.New("artifact write failed")
)
