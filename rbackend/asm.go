package rbackend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rastergen/rastergen/rdag"
	"github.com/rastergen/rastergen/rmodule"
	"github.com/rastergen/rastergen/rtarget"
)

// emitAssembly renders the representation as a textual listing: loop
// structure as pseudo directives, one line per value, vector widths
// annotated in the register flavor of the target.
func emitAssembly(rep *Representation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "\t.target %s\n", rep.target)
	fmt.Fprintf(&b, "\t.module %s\n\n", rep.module)
	b.WriteString("\t.section .text\n")

	for i := range rep.funcs {
		writeAsmFunc(&b, rep.target, &rep.funcs[i])
	}
	return []byte(b.String())
}

func writeAsmFunc(b *strings.Builder, t rtarget.Target, lf *loweredFunc) {
	fn := &lf.fn
	fmt.Fprintf(b, "\n\t.globl %s\n", fn.Name)
	fmt.Fprintf(b, "\t.type %s, @function\n", fn.Name)
	fmt.Fprintf(b, "%s:\n", fn.Name)

	for i, l := range fn.Body.Loops {
		parts := []string{fmt.Sprintf(".loop %s", l.Dim)}
		if l.Extent >= 0 {
			parts = append(parts, fmt.Sprintf("from %d count %d", l.Min, l.Extent))
		}
		if l.Unroll > 0 {
			parts = append(parts, fmt.Sprintf("unroll %d", l.Unroll))
		}
		if lanes := lf.lanes[i]; lanes > 0 {
			parts = append(parts, fmt.Sprintf("vectorize %d", lanes))
		}
		if l.Parallel {
			parts = append(parts, "parallel")
		}
		line := "\t" + strings.Join(parts, " ")
		if c := vecComment(t, lf.lanes[i], fn.Ret); c != "" {
			line += " # " + c
		}
		b.WriteString(line + "\n")
	}

	for i, in := range fn.Body.Code {
		b.WriteString("\t" + asmInstr(i, in) + "\n")
	}
	fmt.Fprintf(b, "\tstore v%d, %s\n", len(fn.Body.Code)-1, fn.Args[len(fn.Args)-1].Name)

	for i := len(fn.Body.Loops) - 1; i >= 0; i-- {
		fmt.Fprintf(b, "\t.endloop %s\n", fn.Body.Loops[i].Dim)
	}
	fmt.Fprintf(b, "\t.size %s, .-%s\n", fn.Name, fn.Name)
}

func asmInstr(id int, in rmodule.Instr) string {
	switch in.Op {
	case rmodule.OpVar:
		return fmt.Sprintf("v%d = var %s", id, in.Sym)
	case rmodule.OpArg:
		return fmt.Sprintf("v%d = arg %s", id, in.Sym)
	case rmodule.OpConst:
		return fmt.Sprintf("v%d = const %s", id, formatImm(in.Imm))
	case rmodule.OpCast:
		return fmt.Sprintf("v%d = cast.%s v%d", id, in.Type, in.A)
	}
	switch in.Op.Arity() {
	case 1:
		return fmt.Sprintf("v%d = %s v%d", id, in.Op, in.A)
	case 3:
		return fmt.Sprintf("v%d = %s v%d, v%d, v%d", id, in.Op, in.A, in.B, in.C)
	default:
		return fmt.Sprintf("v%d = %s v%d, v%d", id, in.Op, in.A, in.B)
	}
}

func formatImm(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// vecComment names the register class a vectorized loop maps to.
func vecComment(t rtarget.Target, lanes int, elem rdag.ScalarType) string {
	if lanes <= 1 {
		return ""
	}
	switch t.Arch {
	case rtarget.ArchX86_64:
		switch lanes * elem.Bytes() {
		case 64:
			return "zmm"
		case 32:
			return "ymm"
		default:
			return "xmm"
		}
	case rtarget.ArchARM64:
		return fmt.Sprintf("v0.%d%s", lanes, armLaneSuffix(elem))
	case rtarget.ArchWASM32:
		return "v128"
	default:
		return ""
	}
}

func armLaneSuffix(elem rdag.ScalarType) string {
	switch elem.Bytes() {
	case 1:
		return "b"
	case 2:
		return "h"
	case 8:
		return "d"
	default:
		return "s"
	}
}
