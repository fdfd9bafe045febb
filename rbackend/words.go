package rbackend

import (
	"encoding/binary"
	"math"
)

// noSym marks an instruction record without a symbol reference.
const noSym = ^uint32(0)

// wordWriter builds a little-endian stream of 32-bit words. Everything the
// backend serializes goes through it, which keeps artifacts free of
// platform-dependent layout.
type wordWriter struct {
	buf []byte
}

func (w *wordWriter) U32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *wordWriter) I32(v int32) {
	w.U32(uint32(v))
}

func (w *wordWriter) I64(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

func (w *wordWriter) F64(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// Str writes a length prefix and the bytes, zero-padded to word size.
func (w *wordWriter) Str(s string) {
	w.U32(uint32(len(s)))
	w.buf = append(w.buf, s...)
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
}

// Raw appends pre-encoded words.
func (w *wordWriter) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *wordWriter) Bytes() []byte { return w.buf }

// encodeFunction renders a function to its word image: the loop table, the
// code section and a trailing string table. Strings are interned in first
// use order, so the image depends only on the function's content.
//
// Layout, all words little-endian:
//
//	u32 loop count
//	per loop:  dim stringref, min i64, extent i64, unroll u32, lanes u32,
//	           flags u32 (bit 0 = parallel)
//	u32 instruction count
//	per instr: op|type<<16 u32, a i32, b i32, c i32, sym stringref
//	           (noSym when absent), imm f64
//	u32 string count, then length-prefixed padded strings
func encodeFunction(lf *loweredFunc) []byte {
	var strs []string
	index := make(map[string]uint32)
	intern := func(s string) uint32 {
		if id, ok := index[s]; ok {
			return id
		}
		id := uint32(len(strs))
		index[s] = id
		strs = append(strs, s)
		return id
	}

	var w wordWriter
	w.U32(uint32(len(lf.fn.Body.Loops)))
	for i, l := range lf.fn.Body.Loops {
		w.U32(intern(l.Dim))
		w.I64(l.Min)
		w.I64(l.Extent)
		w.U32(uint32(l.Unroll))
		w.U32(uint32(lf.lanes[i]))
		var flags uint32
		if l.Parallel {
			flags |= 1
		}
		w.U32(flags)
	}

	w.U32(uint32(len(lf.fn.Body.Code)))
	for _, in := range lf.fn.Body.Code {
		w.U32(uint32(in.Op) | uint32(in.Type)<<16)
		w.I32(in.A)
		w.I32(in.B)
		w.I32(in.C)
		if in.Sym == "" {
			w.U32(noSym)
		} else {
			w.U32(intern(in.Sym))
		}
		w.F64(in.Imm)
	}

	w.U32(uint32(len(strs)))
	for _, s := range strs {
		w.Str(s)
	}
	return w.Bytes()
}
