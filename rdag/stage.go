package rdag

// DirectiveKind identifies a scheduling directive.
type DirectiveKind uint8

const (
	DirBound DirectiveKind = iota
	DirReorder
	DirUnroll
	DirVectorize
	DirParallel
)

func (k DirectiveKind) String() string {
	switch k {
	case DirBound:
		return "bound"
	case DirReorder:
		return "reorder"
	case DirUnroll:
		return "unroll"
	case DirVectorize:
		return "vectorize"
	case DirParallel:
		return "parallel"
	default:
		return "invalid"
	}
}

// Directive is one recorded scheduling call. The recorded order is
// semantic: lowering replays directives verbatim, and Bound/Reorder do not
// commute with the annotations that follow them.
type Directive struct {
	Kind   DirectiveKind
	Dims   []string
	Min    int64
	Extent int64
	Lanes  int
}

// Stage is one named function of the pipeline: an expression over the
// stage's dimensions plus an ordered list of scheduling directives.
// Directive arguments are validated when the pipeline builds, which keeps
// the scheduling calls chainable.
type Stage struct {
	name       string
	dims       []string
	body       *Expr
	directives []Directive
}

// Name returns the stage name.
func (s *Stage) Name() string { return s.name }

// Dims returns the declared dimensions, innermost first.
func (s *Stage) Dims() []string {
	out := make([]string, len(s.dims))
	copy(out, s.dims)
	return out
}

// Body returns the defining expression, or nil before Define.
func (s *Stage) Body() *Expr { return s.body }

// Directives returns the recorded scheduling calls in call order.
func (s *Stage) Directives() []Directive {
	out := make([]Directive, len(s.directives))
	copy(out, s.directives)
	return out
}

// Define sets the stage's expression. The last call wins; a stage without
// a definition fails the build.
func (s *Stage) Define(e *Expr) *Stage {
	s.body = e
	return s
}

// At references this stage at the given index expressions, one per
// declared dimension.
func (s *Stage) At(idx ...*Expr) *Expr {
	return &Expr{op: OpCall, kids: idx, callee: s}
}

// Bound pins a dimension to the half-open range [min, min+extent).
// Realization must match the pinned extent exactly.
func (s *Stage) Bound(dim string, min, extent int64) *Stage {
	s.directives = append(s.directives, Directive{Kind: DirBound, Dims: []string{dim}, Min: min, Extent: extent})
	return s
}

// Reorder sets the loop order. Dims are given innermost first and must
// name every stage dimension exactly once.
func (s *Stage) Reorder(dims ...string) *Stage {
	s.directives = append(s.directives, Directive{Kind: DirReorder, Dims: dims})
	return s
}

// Unroll fully unrolls the loop over dim. The dimension must have a
// pinned extent by the time lowering replays the directive.
func (s *Stage) Unroll(dim string) *Stage {
	s.directives = append(s.directives, Directive{Kind: DirUnroll, Dims: []string{dim}})
	return s
}

// Vectorize computes dim in vectors of the given lane count. Zero lanes
// means the target's natural width, resolved when the backend lowers.
func (s *Stage) Vectorize(dim string, lanes int) *Stage {
	s.directives = append(s.directives, Directive{Kind: DirVectorize, Dims: []string{dim}, Lanes: lanes})
	return s
}

// Parallel marks the loop over dim for parallel execution.
func (s *Stage) Parallel(dim string) *Stage {
	s.directives = append(s.directives, Directive{Kind: DirParallel, Dims: []string{dim}})
	return s
}

func (s *Stage) hasDim(dim string) bool {
	for _, d := range s.dims {
		if d == dim {
			return true
		}
	}
	return false
}
