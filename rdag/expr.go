package rdag

// ExprOp identifies an expression node. The set is closed: lowering and the
// reference interpreter both switch over it exhaustively.
type ExprOp uint8

const (
	OpConst ExprOp = iota
	OpVar
	OpArg
	OpCall
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
	OpEQ
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
	OpCast
)

func (op ExprOp) String() string {
	switch op {
	case OpConst:
		return "const"
	case OpVar:
		return "var"
	case OpArg:
		return "arg"
	case OpCall:
		return "call"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	case OpNeg:
		return "neg"
	case OpAbs:
		return "abs"
	case OpSqrt:
		return "sqrt"
	case OpClamp:
		return "clamp"
	case OpSelect:
		return "select"
	case OpEQ:
		return "eq"
	case OpNE:
		return "ne"
	case OpLT:
		return "lt"
	case OpLE:
		return "le"
	case OpGT:
		return "gt"
	case OpGE:
		return "ge"
	case OpCast:
		return "cast"
	default:
		return "invalid"
	}
}

// Expr is a scalar expression over stage dimensions, runtime arguments and
// references to other stages. Expressions are built with the package
// constructors and are immutable afterwards; subtrees may be shared freely.
type Expr struct {
	op     ExprOp
	kids   []*Expr
	imm    float64
	intImm bool
	sym    string
	callee *Stage
	cast   ScalarType
}

// Op returns the node kind.
func (e *Expr) Op() ExprOp { return e.op }

// Operands returns the child expressions: index expressions for OpCall,
// (cond, then, else) for OpSelect, (value, lo, hi) for OpClamp.
func (e *Expr) Operands() []*Expr { return e.kids }

// Imm returns the literal of an OpConst node.
func (e *Expr) Imm() float64 { return e.imm }

// IsIntImm reports whether an OpConst literal was declared integral.
func (e *Expr) IsIntImm() bool { return e.intImm }

// Sym returns the dimension name of an OpVar, the argument name of an
// OpArg, or the referenced stage name of an OpCall.
func (e *Expr) Sym() string {
	if e.op == OpCall && e.callee != nil {
		return e.callee.name
	}
	return e.sym
}

// CastType returns the target type of an OpCast node.
func (e *Expr) CastType() ScalarType { return e.cast }

// Var references a dimension of the enclosing stage.
func Var(dim string) *Expr {
	return &Expr{op: OpVar, sym: dim}
}

// Const is a floating-point literal.
func Const(v float64) *Expr {
	return &Expr{op: OpConst, imm: v}
}

// ConstInt is an integer literal.
func ConstInt(v int64) *Expr {
	return &Expr{op: OpConst, imm: float64(v), intImm: true}
}

// Arg references a runtime argument slot by name. The slot is backed by a
// runtime-bound parameter once the pipeline is bound.
func Arg(name string) *Expr {
	return &Expr{op: OpArg, sym: name}
}

func binary(op ExprOp, a, b *Expr) *Expr {
	return &Expr{op: op, kids: []*Expr{a, b}}
}

func unary(op ExprOp, a *Expr) *Expr {
	return &Expr{op: op, kids: []*Expr{a}}
}

func Add(a, b *Expr) *Expr { return binary(OpAdd, a, b) }
func Sub(a, b *Expr) *Expr { return binary(OpSub, a, b) }
func Mul(a, b *Expr) *Expr { return binary(OpMul, a, b) }
func Div(a, b *Expr) *Expr { return binary(OpDiv, a, b) }
func Mod(a, b *Expr) *Expr { return binary(OpMod, a, b) }
func Min(a, b *Expr) *Expr { return binary(OpMin, a, b) }
func Max(a, b *Expr) *Expr { return binary(OpMax, a, b) }

func Neg(a *Expr) *Expr  { return unary(OpNeg, a) }
func Abs(a *Expr) *Expr  { return unary(OpAbs, a) }
func Sqrt(a *Expr) *Expr { return unary(OpSqrt, a) }

// Clamp limits v to the inclusive range [lo, hi].
func Clamp(v, lo, hi *Expr) *Expr {
	return &Expr{op: OpClamp, kids: []*Expr{v, lo, hi}}
}

// Select yields then where cond is non-zero, els elsewhere.
func Select(cond, then, els *Expr) *Expr {
	return &Expr{op: OpSelect, kids: []*Expr{cond, then, els}}
}

// Comparisons yield 1 where they hold and 0 elsewhere.
func EQ(a, b *Expr) *Expr { return binary(OpEQ, a, b) }
func NE(a, b *Expr) *Expr { return binary(OpNE, a, b) }
func LT(a, b *Expr) *Expr { return binary(OpLT, a, b) }
func LE(a, b *Expr) *Expr { return binary(OpLE, a, b) }
func GT(a, b *Expr) *Expr { return binary(OpGT, a, b) }
func GE(a, b *Expr) *Expr { return binary(OpGE, a, b) }

// Cast converts through the scalar type with C conversion semantics; see
// Quantize.
func Cast(t ScalarType, e *Expr) *Expr {
	return &Expr{op: OpCast, kids: []*Expr{e}, cast: t}
}

// walk visits e and every descendant preorder.
func (e *Expr) walk(fn func(*Expr)) {
	fn(e)
	for _, k := range e.kids {
		k.walk(fn)
	}
}
