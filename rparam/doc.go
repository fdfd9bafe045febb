// Package rparam provides named, typed parameters for pipeline generators.
//
// # Overview
//
// A generator declares the axes along which its pipeline specializes:
// numeric factors, feature flags, enumerated modes, element types and
// compilation targets. Each axis is a parameter declared on a Registry with
// a name, a default and an optional constraint. Compile-time parameters
// freeze when the registry is sealed (which happens when the generator
// builds); runtime-bound parameters become arguments of the compiled
// function and stay settable.
//
// # Declaration
//
// Declarations are generic at the call site and type-erased in the
// registry. The typed handle keeps compile-time access to the value; the
// registry keeps the name-indexed view used by drivers:
//
//	reg := rparam.NewRegistry()
//
//	factor := rparam.MustFloat(reg, "compiletime_factor", 1,
//	    rparam.WithBounds(0, 100))
//	channels := rparam.MustInt(reg, "channels", 4)
//	mode := rparam.MustEnum(reg, "enummy", "foo", map[string]int{
//	    "foo": 0,
//	    "bar": 1,
//	})
//	gain := rparam.MustFloat(reg, "runtime_factor", 1.0, rparam.WithRuntime())
//
//	// Typed reads inside the generator:
//	_ = factor.Value() * float64(channels.Value())
//	_ = mode.Value()
//	_ = gain
//
// Names follow one grammar everywhere: a letter first, then letters,
// digits or underscores, with no double underscore. Names are unique per
// registry regardless of kind.
//
// # Assignment
//
// Drivers set parameters by name. Set takes Go values and kind-checks
// them; SetString parses the kind's string form:
//
//	err := reg.Set("compiletime_factor", 2.5)
//	err = reg.SetString("channels", "3")
//	err = reg.Set("enummy", "bar") // display key or mapped value
//
// Failures are sentinel errors checkable with errors.Is: ErrTypeMismatch,
// ErrOutOfBounds, ErrNotAnEnumKey, ErrUnknownParameter, and
// ErrImmutableAfterBuild once the registry is sealed.
//
// # Thread safety
//
// Registry is not safe for concurrent use. One generator instance owns one
// registry; independent instances never share parameter state.
package rparam
