package rdag

import (
	"errors"
	"fmt"
	"math"
)

// ScalarType is an element type a pipeline can compute in. It is the value
// domain of type-valued parameters and the unit the backend sizes vectors
// by.
type ScalarType uint8

const (
	UInt8 ScalarType = iota
	UInt16
	UInt32
	Int8
	Int16
	Int32
	Float32
	Float64
)

var scalarNames = map[ScalarType]string{
	UInt8:   "uint8",
	UInt16:  "uint16",
	UInt32:  "uint32",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Float32: "float32",
	Float64: "float64",
}

func (t ScalarType) String() string {
	if s, ok := scalarNames[t]; ok {
		return s
	}
	return "invalid"
}

// Bytes returns the storage width of the type.
func (t ScalarType) Bytes() int {
	switch t {
	case UInt8, Int8:
		return 1
	case UInt16, Int16:
		return 2
	case UInt32, Int32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether the type is a floating-point type.
func (t ScalarType) IsFloat() bool {
	return t == Float32 || t == Float64
}

// ErrUnknownScalarType is returned by ParseScalarType for names outside the
// closed set.
var ErrUnknownScalarType = errors.New("unknown scalar type")

// ParseScalarType resolves the String form back to a ScalarType.
func ParseScalarType(s string) (ScalarType, error) {
	for t, name := range scalarNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScalarType, s)
}

// Quantize converts v through the scalar type and back to float64, the way
// a C conversion would: truncation toward zero and modular wraparound for
// the integer types, precision loss for float32. NaN and infinities
// quantize to 0 in the integer types.
func Quantize(t ScalarType, v float64) float64 {
	switch t {
	case Float64:
		return v
	case Float32:
		return float64(float32(v))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	// Reduce modulo 2^32 first so the int64 conversion cannot overflow;
	// every integer scalar type is 32 bits or narrower.
	n := int64(math.Mod(math.Trunc(v), 1<<32))
	switch t {
	case UInt8:
		return float64(uint8(n))
	case UInt16:
		return float64(uint16(n))
	case UInt32:
		return float64(uint32(n))
	case Int8:
		return float64(int8(n))
	case Int16:
		return float64(int16(n))
	case Int32:
		return float64(int32(n))
	default:
		return v
	}
}
