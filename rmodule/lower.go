package rmodule

import (
	"fmt"

	"github.com/rastergen/rastergen/internal/names"
	"github.com/rastergen/rastergen/rdag"
	"github.com/rastergen/rastergen/rtarget"
)

// Lower compiles bound pipelines into a module for the given target. Each
// pipeline becomes one function named after it. Stage calls are inlined;
// repeated subexpressions share one instruction.
func Lower(name string, target rtarget.Target, pipelines ...*rdag.Pipeline) (*Module, error) {
	if err := names.Check(name); err != nil {
		return nil, fmt.Errorf("%w: module name: %v", ErrInvalidModule, err)
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if len(pipelines) == 0 {
		return nil, fmt.Errorf("%w: no pipelines", ErrInvalidModule)
	}

	seen := make(map[string]bool, len(pipelines))
	funcs := make([]Function, 0, len(pipelines))
	for _, p := range pipelines {
		if p == nil {
			return nil, fmt.Errorf("%w: nil pipeline", ErrInvalidModule)
		}
		if !p.Bound() {
			return nil, fmt.Errorf("%w: pipeline %q lowered before Bind", ErrInvalidModule, p.Name())
		}
		if seen[p.Name()] {
			return nil, fmt.Errorf("%w: duplicate function name %q", ErrInvalidModule, p.Name())
		}
		seen[p.Name()] = true

		fn, err := lowerPipeline(p)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}

	return &Module{Name: name, Target: target, Funcs: funcs}, nil
}

func lowerPipeline(p *rdag.Pipeline) (Function, error) {
	out := p.Output()
	dims := out.Dims()
	ret := p.OutputType()

	args := make([]Argument, 0, len(p.Args())+1)
	for _, a := range p.Args() {
		args = append(args, Argument{
			Name:    a.Name,
			Kind:    ArgScalar,
			Type:    a.Type,
			Default: a.Current(),
		})
	}
	args = append(args, Argument{
		Name: out.Name(),
		Kind: ArgBuffer,
		Type: ret,
		Rank: len(dims),
	})

	loops, err := buildLoops(out)
	if err != nil {
		return Function{}, err
	}

	lw := &lowerer{p: p, index: make(map[instrKey]int32)}
	env := make(map[string]int32, len(dims))
	for _, dim := range dims {
		env[dim] = lw.emit(Instr{Op: OpVar, A: -1, B: -1, C: -1, Sym: dim})
	}
	if _, err := lw.lower(out.Body(), env); err != nil {
		return Function{}, err
	}

	return Function{
		Name: p.Name(),
		Args: args,
		Ret:  ret,
		Body: Body{Loops: loops, Code: lw.code},
	}, nil
}

// buildLoops derives the loop nest from the output stage. The nest starts
// as the declared dimensions outermost-last, then the stage's directives
// are replayed in recorded order.
func buildLoops(out *rdag.Stage) ([]Loop, error) {
	dims := out.Dims()
	loops := make([]Loop, 0, len(dims))
	for i := len(dims) - 1; i >= 0; i-- {
		loops = append(loops, Loop{Dim: dims[i], Min: 0, Extent: -1})
	}

	find := func(dim string) *Loop {
		for i := range loops {
			if loops[i].Dim == dim {
				return &loops[i]
			}
		}
		return nil
	}

	for _, d := range out.Directives() {
		switch d.Kind {
		case rdag.DirBound:
			l := find(d.Dims[0])
			l.Min = d.Min
			l.Extent = d.Extent
		case rdag.DirReorder:
			// The directive lists dims innermost first, the nest is held
			// outermost first.
			next := make([]Loop, 0, len(loops))
			for i := len(d.Dims) - 1; i >= 0; i-- {
				next = append(next, *find(d.Dims[i]))
			}
			loops = next
		case rdag.DirUnroll:
			l := find(d.Dims[0])
			if l.Extent < 0 {
				return nil, fmt.Errorf("%w: unroll of %q needs a prior bound", ErrInvalidModule, l.Dim)
			}
			l.Unroll = int(l.Extent)
		case rdag.DirVectorize:
			if d.Lanes == 0 {
				// Natural width, resolved against the target later.
				find(d.Dims[0]).VectorLanes = -1
			} else {
				find(d.Dims[0]).VectorLanes = d.Lanes
			}
		case rdag.DirParallel:
			find(d.Dims[0]).Parallel = true
		}
	}
	return loops, nil
}

var lowerOp = map[rdag.ExprOp]Op{
	rdag.OpAdd:    OpAdd,
	rdag.OpSub:    OpSub,
	rdag.OpMul:    OpMul,
	rdag.OpDiv:    OpDiv,
	rdag.OpMod:    OpMod,
	rdag.OpMin:    OpMin,
	rdag.OpMax:    OpMax,
	rdag.OpNeg:    OpNeg,
	rdag.OpAbs:    OpAbs,
	rdag.OpSqrt:   OpSqrt,
	rdag.OpClamp:  OpClamp,
	rdag.OpSelect: OpSelect,
	rdag.OpEQ:     OpCmpEQ,
	rdag.OpNE:     OpCmpNE,
	rdag.OpLT:     OpCmpLT,
	rdag.OpLE:     OpCmpLE,
	rdag.OpGT:     OpCmpGT,
	rdag.OpGE:     OpCmpGE,
}

type instrKey struct {
	op      Op
	a, b, c int32
	imm     float64
	sym     string
	typ     rdag.ScalarType
}

type lowerer struct {
	p     *rdag.Pipeline
	code  []Instr
	index map[instrKey]int32
}

// emit appends an instruction unless an identical one exists, in which case
// the earlier id is reused. Ids are assigned in traversal order, so the
// program is deterministic.
func (lw *lowerer) emit(in Instr) int32 {
	key := instrKey{in.Op, in.A, in.B, in.C, in.Imm, in.Sym, in.Type}
	if id, ok := lw.index[key]; ok {
		return id
	}
	id := int32(len(lw.code))
	lw.code = append(lw.code, in)
	lw.index[key] = id
	return id
}

// lower flattens an expression into the code stream. env maps dimension
// names to the ids holding their coordinate values; stage calls extend it
// for the callee's dimensions.
func (lw *lowerer) lower(e *rdag.Expr, env map[string]int32) (int32, error) {
	switch e.Op() {
	case rdag.OpConst:
		return lw.emit(Instr{Op: OpConst, A: -1, B: -1, C: -1, Imm: e.Imm()}), nil
	case rdag.OpVar:
		id, ok := env[e.Sym()]
		if !ok {
			return 0, fmt.Errorf("%w: unbound variable %q", ErrInvalidModule, e.Sym())
		}
		return id, nil
	case rdag.OpArg:
		return lw.emit(Instr{Op: OpArg, A: -1, B: -1, C: -1, Sym: e.Sym()}), nil
	case rdag.OpCast:
		a, err := lw.lower(e.Operands()[0], env)
		if err != nil {
			return 0, err
		}
		return lw.emit(Instr{Op: OpCast, A: a, B: -1, C: -1, Type: e.CastType()}), nil
	case rdag.OpCall:
		callee, ok := lw.p.Stage(e.Sym())
		if !ok {
			return 0, fmt.Errorf("%w: call to unknown stage %q", ErrInvalidModule, e.Sym())
		}
		inner := make(map[string]int32, len(callee.Dims()))
		for i, dim := range callee.Dims() {
			id, err := lw.lower(e.Operands()[i], env)
			if err != nil {
				return 0, err
			}
			inner[dim] = id
		}
		return lw.lower(callee.Body(), inner)
	default:
		op, ok := lowerOp[e.Op()]
		if !ok {
			return 0, fmt.Errorf("%w: cannot lower %v", ErrInvalidModule, e.Op())
		}
		ids := [3]int32{-1, -1, -1}
		for i, kid := range e.Operands() {
			id, err := lw.lower(kid, env)
			if err != nil {
				return 0, err
			}
			ids[i] = id
		}
		return lw.emit(Instr{Op: op, A: ids[0], B: ids[1], C: ids[2]}), nil
	}
}
