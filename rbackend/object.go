package rbackend

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/rastergen/rastergen/rtarget"
)

// Object layout: ELF header, .text (the concatenated function images),
// .symtab, .strtab, .shstrtab, section header table. Every offset is
// computed from content sizes, so identical representations produce
// identical objects.
const (
	elfHeaderSize  = 64
	sectionHdrSize = 64
	symEntrySize   = 24
)

// Section header string table offsets. The table layout is fixed:
// "\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00".
const (
	shnText     = 1
	shnSymtab   = 7
	shnStrtab   = 15
	shnShstrtab = 23
)

func objectMachine(t rtarget.Target) (elf.Machine, error) {
	var machine elf.Machine
	switch t.Arch {
	case rtarget.ArchX86_64:
		machine = elf.EM_X86_64
	case rtarget.ArchARM64:
		machine = elf.EM_AARCH64
	default:
		return elf.EM_NONE, fmt.Errorf("%w: no object format for %q", ErrUnsupportedArtifact, t.Arch)
	}
	switch t.OS {
	case rtarget.OSLinux, rtarget.OSNone:
		return machine, nil
	default:
		return elf.EM_NONE, fmt.Errorf("%w: object emission needs an ELF os, got %q", ErrUnsupportedArtifact, t.OS)
	}
}

// emitObject builds an ELF64 relocatable object with one global function
// symbol per encoded function.
func emitObject(rep *Representation) ([]byte, error) {
	machine, err := objectMachine(rep.target)
	if err != nil {
		return nil, err
	}

	type funcSym struct {
		nameOff uint32
		value   uint64
		size    uint64
	}

	var text bytes.Buffer
	strtab := []byte{0}
	syms := make([]funcSym, 0, len(rep.funcs))
	for i := range rep.funcs {
		lf := &rep.funcs[i]
		syms = append(syms, funcSym{
			nameOff: uint32(len(strtab)),
			value:   uint64(text.Len()),
			size:    uint64(len(lf.image)),
		})
		strtab = append(strtab, lf.fn.Name...)
		strtab = append(strtab, 0)
		text.Write(lf.image)
	}
	shstrtab := []byte("\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00")

	textOff := uint64(elfHeaderSize)
	symOff := align8(textOff + uint64(text.Len()))
	symSize := uint64((1 + len(syms)) * symEntrySize)
	strOff := symOff + symSize
	shstrOff := strOff + uint64(len(strtab))
	shOff := align8(shstrOff + uint64(len(shstrtab)))

	hdr := elf.Header64{
		Ident: [16]byte{
			0x7f, 'E', 'L', 'F',
			byte(elf.ELFCLASS64), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT),
		},
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     shOff,
		Ehsize:    elfHeaderSize,
		Shentsize: sectionHdrSize,
		Shnum:     5,
		Shstrndx:  4,
	}

	var out bytes.Buffer
	write := func(v any) error {
		return binary.Write(&out, binary.LittleEndian, v)
	}

	if err := write(&hdr); err != nil {
		return nil, fmt.Errorf("%w: elf header: %v", ErrLowering, err)
	}
	out.Write(text.Bytes())
	pad(&out, symOff)

	if err := write(&elf.Sym64{}); err != nil {
		return nil, fmt.Errorf("%w: null symbol: %v", ErrLowering, err)
	}
	for _, s := range syms {
		sym := elf.Sym64{
			Name:  s.nameOff,
			Info:  elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC),
			Shndx: 1,
			Value: s.value,
			Size:  s.size,
		}
		if err := write(&sym); err != nil {
			return nil, fmt.Errorf("%w: symbol table: %v", ErrLowering, err)
		}
	}

	out.Write(strtab)
	out.Write(shstrtab)
	pad(&out, shOff)

	shdrs := []elf.Section64{
		{},
		{
			Name:      shnText,
			Type:      uint32(elf.SHT_PROGBITS),
			Flags:     uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
			Off:       textOff,
			Size:      uint64(text.Len()),
			Addralign: 4,
		},
		{
			Name:      shnSymtab,
			Type:      uint32(elf.SHT_SYMTAB),
			Off:       symOff,
			Size:      symSize,
			Link:      3,
			Info:      1,
			Addralign: 8,
			Entsize:   symEntrySize,
		},
		{
			Name:      shnStrtab,
			Type:      uint32(elf.SHT_STRTAB),
			Off:       strOff,
			Size:      uint64(len(strtab)),
			Addralign: 1,
		},
		{
			Name:      shnShstrtab,
			Type:      uint32(elf.SHT_STRTAB),
			Off:       shstrOff,
			Size:      uint64(len(shstrtab)),
			Addralign: 1,
		},
	}
	for i := range shdrs {
		if err := write(&shdrs[i]); err != nil {
			return nil, fmt.Errorf("%w: section header: %v", ErrLowering, err)
		}
	}
	return out.Bytes(), nil
}

func align8(v uint64) uint64 {
	return (v + 7) &^ 7
}

// pad writes zero bytes until the buffer reaches off.
func pad(out *bytes.Buffer, off uint64) {
	for uint64(out.Len()) < off {
		out.WriteByte(0)
	}
}
