package rdag

import (
	"fmt"
	"math"
)

// Buffer is a dense multi-dimensional array produced by Realize. Dimension
// 0 is innermost and has stride 1. Values are stored as float64 after
// quantization to the element type, so integer buffers hold exact integer
// values.
type Buffer struct {
	elem    ScalarType
	mins    []int
	extents []int
	strides []int
	data    []float64
}

// NewBuffer allocates a zero-filled buffer with the given extents,
// innermost first. All mins are zero.
func NewBuffer(elem ScalarType, extents ...int) (*Buffer, error) {
	if len(extents) == 0 {
		return nil, fmt.Errorf("%w: buffer needs at least one dimension", ErrShape)
	}
	if len(extents) > MaxDims {
		return nil, fmt.Errorf("%w: buffer has %d dimensions, maximum is %d", ErrShape, len(extents), MaxDims)
	}
	strides := make([]int, len(extents))
	size := 1
	for i, ext := range extents {
		if ext <= 0 {
			return nil, fmt.Errorf("%w: extent of dimension %d is %d", ErrShape, i, ext)
		}
		strides[i] = size
		size *= ext
	}
	return &Buffer{
		elem:    elem,
		mins:    make([]int, len(extents)),
		extents: append([]int(nil), extents...),
		strides: strides,
		data:    make([]float64, size),
	}, nil
}

func (b *Buffer) Elem() ScalarType { return b.elem }

func (b *Buffer) Rank() int { return len(b.extents) }

func (b *Buffer) Extent(dim int) int { return b.extents[dim] }

func (b *Buffer) Min(dim int) int { return b.mins[dim] }

func (b *Buffer) Extents() []int { return append([]int(nil), b.extents...) }

// Data returns the backing storage in stride order. The slice aliases the
// buffer.
func (b *Buffer) Data() []float64 { return b.data }

// At returns the value at the given coordinates, innermost first. It
// panics when the coordinates fall outside the buffer, mirroring slice
// indexing.
func (b *Buffer) At(coords ...int) float64 {
	if len(coords) != len(b.extents) {
		panic(fmt.Sprintf("rdag: At called with %d coordinates on rank-%d buffer", len(coords), len(b.extents)))
	}
	idx := 0
	for i, c := range coords {
		if c < b.mins[i] || c >= b.mins[i]+b.extents[i] {
			panic(fmt.Sprintf("rdag: coordinate %d out of range [%d, %d) in dimension %d",
				c, b.mins[i], b.mins[i]+b.extents[i], i))
		}
		idx += (c - b.mins[i]) * b.strides[i]
	}
	return b.data[idx]
}

// Realize evaluates the pipeline over the given extents and returns a
// buffer of the given element type. The pipeline must be bound first.
// Runtime argument values are read once at the start of the realization.
//
// Realize is a reference evaluator. It inlines every stage call and
// computes in float64, quantizing at casts and at the final store, so its
// output is the semantic baseline emitted code is checked against.
func (p *Pipeline) Realize(elem ScalarType, extents ...int) (*Buffer, error) {
	if !p.bound {
		return nil, fmt.Errorf("%w: pipeline %q realized before Bind", ErrInvalidPipeline, p.name)
	}
	return p.realize(elem, extents, nil)
}

// RealizeWith is Realize with explicit argument values layered over the
// bound ones for this realization only. Names that are not bound arguments
// fail with ErrUnknownArg.
func (p *Pipeline) RealizeWith(elem ScalarType, args map[string]float64, extents ...int) (*Buffer, error) {
	if !p.bound {
		return nil, fmt.Errorf("%w: pipeline %q realized before Bind", ErrInvalidPipeline, p.name)
	}
	known := make(map[string]bool, len(p.args))
	for _, a := range p.args {
		known[a.Name] = true
	}
	for name := range args {
		if !known[name] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownArg, name)
		}
	}
	return p.realize(elem, extents, args)
}

func (p *Pipeline) realize(elem ScalarType, extents []int, overrides map[string]float64) (*Buffer, error) {
	out := p.Output()
	if len(extents) != len(out.dims) {
		return nil, fmt.Errorf("%w: stage %q has rank %d, realize got %d extents",
			ErrShape, out.name, len(out.dims), len(extents))
	}
	for _, d := range out.directives {
		if d.Kind != DirBound {
			continue
		}
		i := dimIndex(out.dims, d.Dims[0])
		if int64(extents[i]) != d.Extent || d.Min != 0 {
			return nil, fmt.Errorf("%w: dimension %q is bound to [%d, %d), realize requested [0, %d)",
				ErrShape, d.Dims[0], d.Min, d.Min+d.Extent, extents[i])
		}
	}

	buf, err := NewBuffer(elem, extents...)
	if err != nil {
		return nil, err
	}

	args := make(map[string]float64, len(p.args))
	for _, a := range p.args {
		v := a.Current()
		if o, ok := overrides[a.Name]; ok {
			v = o
		}
		args[a.Name] = Quantize(a.Type, v)
	}
	ev := &evaluator{p: p, args: args}

	coords := make([]int, len(extents))
	env := make(map[string]float64, len(extents))
	for idx := range buf.data {
		for i := range coords {
			coords[i] = (idx / buf.strides[i]) % buf.extents[i]
		}
		for i, dim := range out.dims {
			env[dim] = float64(coords[i] + buf.mins[i])
		}
		buf.data[idx] = Quantize(elem, ev.eval(out.body, env))
	}
	return buf, nil
}

func dimIndex(dims []string, dim string) int {
	for i, d := range dims {
		if d == dim {
			return i
		}
	}
	return -1
}

type evaluator struct {
	p    *Pipeline
	args map[string]float64
}

func (ev *evaluator) eval(e *Expr, env map[string]float64) float64 {
	switch e.op {
	case OpConst:
		return e.imm
	case OpVar:
		return env[e.sym]
	case OpArg:
		return ev.args[e.sym]
	case OpAdd:
		return ev.eval(e.kids[0], env) + ev.eval(e.kids[1], env)
	case OpSub:
		return ev.eval(e.kids[0], env) - ev.eval(e.kids[1], env)
	case OpMul:
		return ev.eval(e.kids[0], env) * ev.eval(e.kids[1], env)
	case OpDiv:
		return ev.eval(e.kids[0], env) / ev.eval(e.kids[1], env)
	case OpMod:
		return math.Mod(ev.eval(e.kids[0], env), ev.eval(e.kids[1], env))
	case OpMin:
		return math.Min(ev.eval(e.kids[0], env), ev.eval(e.kids[1], env))
	case OpMax:
		return math.Max(ev.eval(e.kids[0], env), ev.eval(e.kids[1], env))
	case OpNeg:
		return -ev.eval(e.kids[0], env)
	case OpAbs:
		return math.Abs(ev.eval(e.kids[0], env))
	case OpSqrt:
		return math.Sqrt(ev.eval(e.kids[0], env))
	case OpClamp:
		v := ev.eval(e.kids[0], env)
		lo := ev.eval(e.kids[1], env)
		hi := ev.eval(e.kids[2], env)
		return math.Min(math.Max(v, lo), hi)
	case OpSelect:
		if ev.eval(e.kids[0], env) != 0 {
			return ev.eval(e.kids[1], env)
		}
		return ev.eval(e.kids[2], env)
	case OpEQ:
		return boolVal(ev.eval(e.kids[0], env) == ev.eval(e.kids[1], env))
	case OpNE:
		return boolVal(ev.eval(e.kids[0], env) != ev.eval(e.kids[1], env))
	case OpLT:
		return boolVal(ev.eval(e.kids[0], env) < ev.eval(e.kids[1], env))
	case OpLE:
		return boolVal(ev.eval(e.kids[0], env) <= ev.eval(e.kids[1], env))
	case OpGT:
		return boolVal(ev.eval(e.kids[0], env) > ev.eval(e.kids[1], env))
	case OpGE:
		return boolVal(ev.eval(e.kids[0], env) >= ev.eval(e.kids[1], env))
	case OpCast:
		return Quantize(e.cast, ev.eval(e.kids[0], env))
	case OpCall:
		callee := e.callee
		inner := make(map[string]float64, len(callee.dims))
		for i, dim := range callee.dims {
			inner[dim] = ev.eval(e.kids[i], env)
		}
		return ev.eval(callee.body, inner)
	default:
		panic(fmt.Sprintf("rdag: eval of unhandled op %v", e.op))
	}
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
