// Package rtarget describes compilation targets: a machine architecture, an
// operating system and a set of instruction-set features, round-tripped
// through strings like "x86-64-linux-avx2-fma".
package rtarget

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Arch is the instruction-set architecture of a target.
type Arch int

const (
	ArchUnknown Arch = iota
	ArchX86_64
	ArchARM64
	ArchWASM32
)

func (a Arch) String() string {
	switch a {
	case ArchX86_64:
		return "x86-64"
	case ArchARM64:
		return "arm64"
	case ArchWASM32:
		return "wasm32"
	default:
		return "unknown"
	}
}

// OS is the operating system of a target. OSNone means freestanding: no OS
// runtime is assumed and object files use bare ELF conventions.
type OS int

const (
	OSUnknown OS = iota
	OSLinux
	OSDarwin
	OSWindows
	OSNone
)

func (o OS) String() string {
	switch o {
	case OSLinux:
		return "linux"
	case OSDarwin:
		return "darwin"
	case OSWindows:
		return "windows"
	case OSNone:
		return "none"
	default:
		return "unknown"
	}
}

// Feature is a bit set of optional instruction-set extensions.
type Feature uint32

const (
	FeatureSSE41 Feature = 1 << iota
	FeatureAVX2
	FeatureAVX512
	FeatureFMA
	FeatureNEON
	FeatureSVE2
	FeatureSIMD128
)

// featureOrder fixes the token order for String and the name table for
// Parse. Bit order and token order are the same.
var featureOrder = []struct {
	bit  Feature
	name string
}{
	{FeatureSSE41, "sse41"},
	{FeatureAVX2, "avx2"},
	{FeatureAVX512, "avx512"},
	{FeatureFMA, "fma"},
	{FeatureNEON, "neon"},
	{FeatureSVE2, "sve2"},
	{FeatureSIMD128, "simd128"},
}

// archFeatures lists which features are meaningful per architecture.
var archFeatures = map[Arch]Feature{
	ArchX86_64: FeatureSSE41 | FeatureAVX2 | FeatureAVX512 | FeatureFMA,
	ArchARM64:  FeatureNEON | FeatureSVE2,
	ArchWASM32: FeatureSIMD128,
}

// Target is a complete target descriptor. The zero value is not a valid
// target; construct one with Parse, Host or struct literals and check it
// with Validate.
type Target struct {
	Arch     Arch
	OS       OS
	Features Feature
}

// Parse builds a Target from its canonical string form
// "<arch>-<os>[-<feature>...]". Feature tokens may come in any order;
// String renders them canonically. Unknown tokens fail with
// ErrUnknownTarget naming the token.
func Parse(s string) (Target, error) {
	tokens := strings.Split(s, "-")

	var t Target
	i := 0
	switch tokens[0] {
	case "x86":
		// The x86-64 arch token itself contains a dash.
		if len(tokens) < 2 || tokens[1] != "64" {
			return Target{}, fmt.Errorf("%w: arch %q", ErrUnknownTarget, tokens[0])
		}
		t.Arch = ArchX86_64
		i = 2
	case "arm64":
		t.Arch = ArchARM64
		i = 1
	case "wasm32":
		t.Arch = ArchWASM32
		i = 1
	default:
		return Target{}, fmt.Errorf("%w: arch %q", ErrUnknownTarget, tokens[0])
	}

	if i >= len(tokens) {
		return Target{}, fmt.Errorf("%w: %q is missing an os token", ErrUnknownTarget, s)
	}
	switch tokens[i] {
	case "linux":
		t.OS = OSLinux
	case "darwin":
		t.OS = OSDarwin
	case "windows":
		t.OS = OSWindows
	case "none":
		t.OS = OSNone
	default:
		return Target{}, fmt.Errorf("%w: os %q", ErrUnknownTarget, tokens[i])
	}
	i++

	for ; i < len(tokens); i++ {
		bit, ok := featureBit(tokens[i])
		if !ok {
			return Target{}, fmt.Errorf("%w: feature %q", ErrUnknownTarget, tokens[i])
		}
		t.Features |= bit
	}

	if err := t.Validate(); err != nil {
		return Target{}, err
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Target {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func featureBit(name string) (Feature, bool) {
	for _, f := range featureOrder {
		if f.name == name {
			return f.bit, true
		}
	}
	return 0, false
}

// String renders the canonical form. Parse(t.String()) yields t for any
// valid target.
func (t Target) String() string {
	var b strings.Builder
	b.WriteString(t.Arch.String())
	b.WriteByte('-')
	b.WriteString(t.OS.String())
	for _, f := range featureOrder {
		if t.Features&f.bit != 0 {
			b.WriteByte('-')
			b.WriteString(f.name)
		}
	}
	return b.String()
}

// Validate checks internal consistency: arch and os must be known, feature
// bits must belong to the arch, and wasm32 is always freestanding.
func (t Target) Validate() error {
	allowed, ok := archFeatures[t.Arch]
	if !ok {
		return fmt.Errorf("%w: arch %q", ErrInvalidTarget, t.Arch)
	}
	switch t.OS {
	case OSLinux, OSDarwin, OSWindows, OSNone:
	default:
		return fmt.Errorf("%w: os %q", ErrInvalidTarget, t.OS)
	}
	if t.Arch == ArchWASM32 && t.OS != OSNone {
		return fmt.Errorf("%w: wasm32 targets are freestanding, got os %q", ErrInvalidTarget, t.OS)
	}
	if extra := t.Features &^ allowed; extra != 0 {
		for _, f := range featureOrder {
			if extra&f.bit != 0 {
				return fmt.Errorf("%w: feature %q does not apply to %q", ErrInvalidTarget, f.name, t.Arch)
			}
		}
	}
	return nil
}

// Has reports whether the target carries the given feature bit.
func (t Target) Has(f Feature) bool {
	return t.Features&f != 0
}

// Host returns the target describing the running machine, with a baseline
// SIMD feature assumed per architecture. ok is false on architectures the
// backend has no spec for.
func Host() (Target, bool) {
	var t Target
	switch runtime.GOARCH {
	case "amd64":
		t.Arch = ArchX86_64
		t.Features = FeatureSSE41
	case "arm64":
		t.Arch = ArchARM64
		t.Features = FeatureNEON
	default:
		return Target{}, false
	}
	switch runtime.GOOS {
	case "linux":
		t.OS = OSLinux
	case "darwin":
		t.OS = OSDarwin
	case "windows":
		t.OS = OSWindows
	default:
		return Target{}, false
	}
	return t, true
}

// VectorBytes returns the natural SIMD register width in bytes, or 0 for a
// scalar target.
func (t Target) VectorBytes() int {
	switch {
	case t.Has(FeatureAVX512):
		return 64
	case t.Has(FeatureAVX2):
		return 32
	case t.Has(FeatureSSE41), t.Has(FeatureNEON), t.Has(FeatureSVE2), t.Has(FeatureSIMD128):
		return 16
	default:
		return 0
	}
}

// NaturalLanes returns how many elements of the given byte width fit a
// vector register, and 1 on scalar targets.
func (t Target) NaturalLanes(elemBytes int) int {
	vb := t.VectorBytes()
	if vb == 0 || elemBytes <= 0 || vb < elemBytes {
		return 1
	}
	return vb / elemBytes
}

// Sentinel errors for target parsing and consistency checks.
var (
	ErrUnknownTarget = errors.New("unknown target")
	ErrInvalidTarget = errors.New("invalid target")
)
