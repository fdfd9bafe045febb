package rtarget

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	t.Run("arch os and features", func(t *testing.T) {
		tgt, err := Parse("x86-64-linux-avx2-fma")
		assert.NoError(t, err)
		assert.Equal(t, ArchX86_64, tgt.Arch)
		assert.Equal(t, OSLinux, tgt.OS)
		assert.True(t, tgt.Has(FeatureAVX2))
		assert.True(t, tgt.Has(FeatureFMA))
		assert.False(t, tgt.Has(FeatureSSE41))
	})

	t.Run("no features", func(t *testing.T) {
		tgt, err := Parse("arm64-darwin")
		assert.NoError(t, err)
		assert.Equal(t, Target{Arch: ArchARM64, OS: OSDarwin}, tgt)
	})

	t.Run("freestanding", func(t *testing.T) {
		tgt, err := Parse("wasm32-none-simd128")
		assert.NoError(t, err)
		assert.Equal(t, OSNone, tgt.OS)
	})

	t.Run("unknown tokens name the token", func(t *testing.T) {
		_, err := Parse("riscv64-linux")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownTarget))
		assert.Contains(t, err.Error(), "riscv64")

		_, err = Parse("x86-64-plan9")
		assert.True(t, errors.Is(err, ErrUnknownTarget))
		assert.Contains(t, err.Error(), "plan9")

		_, err = Parse("x86-64-linux-avx9000")
		assert.True(t, errors.Is(err, ErrUnknownTarget))
		assert.Contains(t, err.Error(), "avx9000")
	})

	t.Run("missing os", func(t *testing.T) {
		_, err := Parse("x86-64")
		assert.True(t, errors.Is(err, ErrUnknownTarget))
	})

	t.Run("x86 requires the 64 token", func(t *testing.T) {
		_, err := Parse("x86-linux")
		assert.True(t, errors.Is(err, ErrUnknownTarget))
	})

	t.Run("cross-arch features are invalid", func(t *testing.T) {
		_, err := Parse("arm64-linux-avx2")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTarget))

		_, err = Parse("x86-64-linux-neon")
		assert.True(t, errors.Is(err, ErrInvalidTarget))
	})

	t.Run("wasm32 must be freestanding", func(t *testing.T) {
		_, err := Parse("wasm32-linux")
		assert.True(t, errors.Is(err, ErrInvalidTarget))
	})
}

func TestStringCanonical(t *testing.T) {
	// Feature order in the input does not matter; the rendered form is
	// canonical.
	a := MustParse("x86-64-linux-fma-avx2")
	b := MustParse("x86-64-linux-avx2-fma")
	assert.Equal(t, a, b)
	assert.Equal(t, "x86-64-linux-avx2-fma", a.String())
}

func TestRoundTripProperty(t *testing.T) {
	arches := []Arch{ArchX86_64, ArchARM64, ArchWASM32}
	oses := []OS{OSLinux, OSDarwin, OSWindows, OSNone}

	rapid.Check(t, func(rt *rapid.T) {
		tgt := Target{
			Arch: rapid.SampledFrom(arches).Draw(rt, "arch"),
			OS:   rapid.SampledFrom(oses).Draw(rt, "os"),
		}
		if tgt.Arch == ArchWASM32 {
			tgt.OS = OSNone
		}
		allowed := archFeatures[tgt.Arch]
		for _, f := range featureOrder {
			if allowed&f.bit != 0 && rapid.Bool().Draw(rt, f.name) {
				tgt.Features |= f.bit
			}
		}

		require.NoError(rt, tgt.Validate())
		back, err := Parse(tgt.String())
		require.NoError(rt, err)
		require.Equal(rt, tgt, back)
	})
}

func TestHost(t *testing.T) {
	tgt, ok := Host()
	if !ok {
		t.Skip("no target spec for this host")
	}
	assert.NoError(t, tgt.Validate())
	// The host target always carries a baseline SIMD feature.
	assert.NotEqual(t, 0, tgt.VectorBytes())
}

func TestVectorWidth(t *testing.T) {
	t.Run("widest feature wins", func(t *testing.T) {
		tgt := MustParse("x86-64-linux-sse41-avx2-avx512")
		assert.Equal(t, 64, tgt.VectorBytes())
		assert.Equal(t, 16, tgt.NaturalLanes(4))
		assert.Equal(t, 64, tgt.NaturalLanes(1))
	})

	t.Run("scalar target", func(t *testing.T) {
		tgt := MustParse("x86-64-linux")
		assert.Equal(t, 0, tgt.VectorBytes())
		assert.Equal(t, 1, tgt.NaturalLanes(4))
	})

	t.Run("element wider than the register", func(t *testing.T) {
		tgt := MustParse("arm64-linux-neon")
		assert.Equal(t, 1, tgt.NaturalLanes(32))
	})
}
