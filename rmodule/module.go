// Package rmodule holds the target-neutral compiled form of a pipeline: a
// named set of functions, each a loop nest over a linear three-address
// program. Lower produces it from validated pipelines; backends consume it
// without mutating it.
package rmodule

import (
	"errors"
	"fmt"

	"github.com/rastergen/rastergen/rdag"
	"github.com/rastergen/rastergen/rtarget"
)

// Op is an instruction opcode. Values are stable and appear verbatim in
// serialized artifacts.
type Op uint16

const (
	OpVar Op = iota
	OpConst
	OpArg
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpMin
	OpMax
	OpNeg
	OpAbs
	OpSqrt
	OpClamp
	OpSelect
	OpCmpEQ
	OpCmpNE
	OpCmpLT
	OpCmpLE
	OpCmpGT
	OpCmpGE
	OpCast
)

var opNames = map[Op]string{
	OpVar:    "var",
	OpConst:  "const",
	OpArg:    "arg",
	OpAdd:    "add",
	OpSub:    "sub",
	OpMul:    "mul",
	OpDiv:    "div",
	OpMod:    "mod",
	OpMin:    "min",
	OpMax:    "max",
	OpNeg:    "neg",
	OpAbs:    "abs",
	OpSqrt:   "sqrt",
	OpClamp:  "clamp",
	OpSelect: "select",
	OpCmpEQ:  "cmp.eq",
	OpCmpNE:  "cmp.ne",
	OpCmpLT:  "cmp.lt",
	OpCmpLE:  "cmp.le",
	OpCmpGT:  "cmp.gt",
	OpCmpGE:  "cmp.ge",
	OpCast:   "cast",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", uint16(o))
}

// Arity returns the number of operand slots an opcode uses.
func (o Op) Arity() int {
	switch o {
	case OpVar, OpConst, OpArg:
		return 0
	case OpNeg, OpAbs, OpSqrt, OpCast:
		return 1
	case OpClamp, OpSelect:
		return 3
	default:
		return 2
	}
}

// ArgKind distinguishes scalar arguments from buffer arguments.
type ArgKind uint8

const (
	ArgScalar ArgKind = iota
	ArgBuffer
)

func (k ArgKind) String() string {
	switch k {
	case ArgScalar:
		return "scalar"
	case ArgBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("argkind(%d)", uint8(k))
	}
}

// Argument is one parameter of a compiled function. Scalar arguments carry
// the value they held at lowering time as Default; buffer arguments carry
// their rank.
type Argument struct {
	Name    string
	Kind    ArgKind
	Type    rdag.ScalarType
	Rank    int
	Default float64
}

// Loop is one level of a function's loop nest, outermost first. Extent -1
// means the extent is supplied by the caller at run time. Unroll is the
// full unroll factor (0 = none). VectorLanes is 0 for a scalar loop, a
// positive explicit width, or -1 when the natural width of the target is
// to be resolved during backend lowering.
type Loop struct {
	Dim         string
	Min         int64
	Extent      int64
	Unroll      int
	VectorLanes int
	Parallel    bool
}

// Instr is one three-address instruction. Its index in the code slice is
// its value id; A, B and C reference earlier ids, -1 when unused. The value
// of the final instruction is stored to the output buffer element.
type Instr struct {
	Op      Op
	A, B, C int32
	Imm     float64
	Sym     string
	Type    rdag.ScalarType
}

// Body is a function body: the loop nest and the straight-line program
// evaluated at each iteration point.
type Body struct {
	Loops []Loop
	Code  []Instr
}

// Function is one compiled pipeline. The trailing argument is always the
// output buffer.
type Function struct {
	Name string
	Args []Argument
	Ret  rdag.ScalarType
	Body Body
}

// Module is a named collection of compiled functions for one target. It is
// read-only once Lower returns it.
type Module struct {
	Name   string
	Target rtarget.Target
	Funcs  []Function
}

// Func looks a function up by name.
func (m *Module) Func(name string) (*Function, bool) {
	for i := range m.Funcs {
		if m.Funcs[i].Name == name {
			return &m.Funcs[i], true
		}
	}
	return nil, false
}

var (
	ErrInvalidModule = errors.New("invalid module")
)
