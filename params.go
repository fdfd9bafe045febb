package rastergen

import (
	"github.com/rastergen/rastergen/rdag"
	"github.com/rastergen/rastergen/rparam"
	"github.com/rastergen/rastergen/rtarget"
)

// scalarTypeCodec makes rdag.ScalarType usable as an opaque parameter, so a
// generator can expose its output element type as a compile-time knob.
type scalarTypeCodec struct{}

func (scalarTypeCodec) Parse(s string) (rdag.ScalarType, error) { return rdag.ParseScalarType(s) }
func (scalarTypeCodec) Format(t rdag.ScalarType) string         { return t.String() }

// TypeParam declares a compile-time parameter holding a scalar element
// type. The string form is the type name ("int32", "float64", ...).
func TypeParam(r *rparam.Registry, name string, def rdag.ScalarType, opts ...rparam.Option) (*rparam.OpaqueParam[rdag.ScalarType], error) {
	return rparam.Opaque(r, name, def, scalarTypeCodec{}, opts...)
}

// MustTypeParam is TypeParam that panics on declaration errors.
func MustTypeParam(r *rparam.Registry, name string, def rdag.ScalarType, opts ...rparam.Option) *rparam.OpaqueParam[rdag.ScalarType] {
	return rparam.MustOpaque(r, name, def, scalarTypeCodec{}, opts...)
}

type targetCodec struct{}

func (targetCodec) Parse(s string) (rtarget.Target, error) { return rtarget.Parse(s) }
func (targetCodec) Format(t rtarget.Target) string         { return t.String() }

// TargetParam declares a compile-time parameter holding a compilation
// target. Base declares one of these named "target" for every generator;
// this is exported for generators that need a second target-valued knob.
func TargetParam(r *rparam.Registry, name string, def rtarget.Target, opts ...rparam.Option) (*rparam.OpaqueParam[rtarget.Target], error) {
	return rparam.Opaque(r, name, def, targetCodec{}, opts...)
}

// MustTargetParam is TargetParam that panics on declaration errors.
func MustTargetParam(r *rparam.Registry, name string, def rtarget.Target, opts ...rparam.Option) *rparam.OpaqueParam[rtarget.Target] {
	return rparam.MustOpaque(r, name, def, targetCodec{}, opts...)
}

// fallbackTarget is the portable baseline assumed when the host machine has
// no backend support.
var fallbackTarget = rtarget.MustParse("x86-64-linux-sse41")

// HostOrDefault resolves the running machine's target, falling back to
// x86-64-linux-sse41 when the host architecture or OS has no backend.
func HostOrDefault() rtarget.Target {
	if t, ok := rtarget.Host(); ok {
		return t
	}
	return fallbackTarget
}
