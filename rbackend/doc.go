// Package rbackend turns compiled modules into on-disk artifacts.
//
// The work is split in two. Lower validates a module against the backend,
// resolves natural vector widths for the target and encodes every function
// into a deterministic word image; the resulting Representation is
// immutable and reusable. Emit serializes a Representation into one of four
// artifact kinds:
//
//   - **object** (.o): an ELF64 relocatable with the function images in
//     .text and one global symbol per function. Requires an ELF-capable
//     target (x86-64 or arm64 on linux or freestanding).
//   - **assembly** (.s): a textual listing with the loop structure as
//     pseudo directives.
//   - **bitcode** (.rbc): the word-oriented container format, magic "RBC1".
//   - **ir** (.rir): a readable rendering of the lowered functions.
//
// Artifacts are built fully in memory and written in a single call, so a
// failing emission leaves the destination untouched. Two lowerings of equal
// modules emit byte-identical artifacts; there are no timestamps or other
// environment leaks in any format.
package rbackend
