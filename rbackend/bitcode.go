package rbackend

// Bitcode container constants. The magic reads "RBC1" when decoded as a
// little-endian word.
const (
	bitcodeMagic   uint32 = 0x52424331
	bitcodeVersion uint32 = 1
)

// emitBitcode serializes the representation into the bitcode container:
// header, module and target strings, then one record per function carrying
// its signature and its word image.
func emitBitcode(rep *Representation) []byte {
	var w wordWriter
	w.U32(bitcodeMagic)
	w.U32(bitcodeVersion)
	w.Str(rep.module)
	w.Str(rep.target.String())
	w.U32(uint32(len(rep.funcs)))

	for i := range rep.funcs {
		lf := &rep.funcs[i]
		w.Str(lf.fn.Name)
		w.U32(uint32(lf.fn.Ret))
		w.U32(uint32(len(lf.fn.Args)))
		for _, a := range lf.fn.Args {
			w.Str(a.Name)
			w.U32(uint32(a.Kind))
			w.U32(uint32(a.Type))
			w.U32(uint32(a.Rank))
			w.F64(a.Default)
		}
		w.U32(uint32(len(lf.image)))
		w.Raw(lf.image)
	}
	return w.Bytes()
}
