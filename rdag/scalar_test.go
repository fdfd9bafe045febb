package rdag

import (
	"errors"
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestScalarType(t *testing.T) {
	t.Run("string round trip", func(t *testing.T) {
		for _, st := range []ScalarType{UInt8, UInt16, UInt32, Int8, Int16, Int32, Float32, Float64} {
			got, err := ParseScalarType(st.String())
			assert.NoError(t, err)
			assert.Equal(t, st, got)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := ParseScalarType("int64")
		assert.True(t, errors.Is(err, ErrUnknownScalarType))
	})

	t.Run("sizes", func(t *testing.T) {
		assert.Equal(t, 1, UInt8.Bytes())
		assert.Equal(t, 2, Int16.Bytes())
		assert.Equal(t, 4, Float32.Bytes())
		assert.Equal(t, 8, Float64.Bytes())
	})

	t.Run("float classification", func(t *testing.T) {
		assert.True(t, Float32.IsFloat())
		assert.True(t, Float64.IsFloat())
		assert.False(t, Int32.IsFloat())
	})
}

func TestQuantizeProperties(t *testing.T) {
	types := []ScalarType{UInt8, UInt16, UInt32, Int8, Int16, Int32}

	t.Run("integer results are in range", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			st := rapid.SampledFrom(types).Draw(rt, "type")
			v := rapid.Float64().Draw(rt, "v")
			got := Quantize(st, v)

			lo, hi := integerRange(st)
			require.True(rt, got >= lo && got <= hi, "Quantize(%v, %v) = %v outside [%v, %v]", st, v, got, lo, hi)
			require.Equal(rt, math.Trunc(got), got)
		})
	})

	t.Run("idempotent", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			st := rapid.SampledFrom(types).Draw(rt, "type")
			v := rapid.Float64().Draw(rt, "v")
			once := Quantize(st, v)
			require.Equal(rt, once, Quantize(st, once))
		})
	})
}

func integerRange(st ScalarType) (float64, float64) {
	switch st {
	case UInt8:
		return 0, math.MaxUint8
	case UInt16:
		return 0, math.MaxUint16
	case UInt32:
		return 0, math.MaxUint32
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Int16:
		return math.MinInt16, math.MaxInt16
	default:
		return math.MinInt32, math.MaxInt32
	}
}
