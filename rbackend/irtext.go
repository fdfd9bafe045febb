package rbackend

import (
	"fmt"
	"strings"

	"github.com/rastergen/rastergen/rmodule"
)

// emitIRText renders the representation as a readable listing of the same
// content the bitcode container carries.
func emitIRText(rep *Representation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "; module %s\n", rep.module)
	fmt.Fprintf(&b, "; functions %d\n\n", len(rep.funcs))
	fmt.Fprintf(&b, "target %q\n", rep.target.String())

	for i := range rep.funcs {
		b.WriteString("\n")
		writeIRFunc(&b, &rep.funcs[i])
	}
	return []byte(b.String())
}

func writeIRFunc(b *strings.Builder, lf *loweredFunc) {
	fn := &lf.fn
	sig := make([]string, len(fn.Args))
	for i, a := range fn.Args {
		if a.Kind == rmodule.ArgBuffer {
			sig[i] = fmt.Sprintf("%s: buffer<%s, %d>", a.Name, a.Type, a.Rank)
		} else {
			sig[i] = fmt.Sprintf("%s: %s = %s", a.Name, a.Type, formatImm(a.Default))
		}
	}
	fmt.Fprintf(b, "func @%s(%s) -> %s {\n", fn.Name, strings.Join(sig, ", "), fn.Ret)

	depth := 1
	for i, l := range fn.Body.Loops {
		var attrs strings.Builder
		if l.Extent >= 0 {
			fmt.Fprintf(&attrs, " bound(%d, %d)", l.Min, l.Extent)
		}
		if l.Unroll > 0 {
			fmt.Fprintf(&attrs, " unroll(%d)", l.Unroll)
		}
		if lanes := lf.lanes[i]; lanes > 0 {
			fmt.Fprintf(&attrs, " vectorize(%d)", lanes)
		}
		if l.Parallel {
			attrs.WriteString(" parallel")
		}
		fmt.Fprintf(b, "%sloop %s%s {\n", strings.Repeat("  ", depth), l.Dim, attrs.String())
		depth++
	}

	ind := strings.Repeat("  ", depth)
	for i, in := range fn.Body.Code {
		fmt.Fprintf(b, "%s%s\n", ind, irInstr(i, in))
	}
	fmt.Fprintf(b, "%sstore %%%d\n", ind, len(fn.Body.Code)-1)

	for depth > 1 {
		depth--
		fmt.Fprintf(b, "%s}\n", strings.Repeat("  ", depth))
	}
	b.WriteString("}\n")
}

func irInstr(id int, in rmodule.Instr) string {
	switch in.Op {
	case rmodule.OpVar:
		return fmt.Sprintf("%%%d = var %s", id, in.Sym)
	case rmodule.OpArg:
		return fmt.Sprintf("%%%d = arg %s", id, in.Sym)
	case rmodule.OpConst:
		return fmt.Sprintf("%%%d = const %s", id, formatImm(in.Imm))
	case rmodule.OpCast:
		return fmt.Sprintf("%%%d = cast.%s %%%d", id, in.Type, in.A)
	}
	switch in.Op.Arity() {
	case 1:
		return fmt.Sprintf("%%%d = %s %%%d", id, in.Op, in.A)
	case 3:
		return fmt.Sprintf("%%%d = %s %%%d, %%%d, %%%d", id, in.Op, in.A, in.B, in.C)
	default:
		return fmt.Sprintf("%%%d = %s %%%d, %%%d", id, in.Op, in.A, in.B)
	}
}
