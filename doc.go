// Package rastergen builds parameterized image and array pipelines and
// compiles them ahead of time.
//
// A Generator describes a family of pipelines: compile-time parameters
// pick the variant, runtime parameters become arguments of the compiled
// function. Generators register a factory under a name, the driver creates
// an Instance, configures it and builds it:
//
//	inst, err := rastergen.Create("blur")
//	if err != nil { ... }
//	if err := inst.SetParamString("output_type", "uint8"); err != nil { ... }
//	p, err := inst.Build()
//	if err != nil { ... }
//	buf, err := p.Realize(p.OutputType(), 1024, 768)
//
// After Build the compile-time values are frozen; runtime parameters stay
// settable between realizations. The built pipeline feeds rmodule.Lower
// and rbackend for artifact emission.
//
// Subpackages:
//
//   - rparam: typed parameter registry behind every generator
//   - rdag: pipeline construction, validation and reference realization
//   - rtarget: compilation target triples and feature sets
//   - rmodule: lowering from pipelines to loop-nest functions
//   - rbackend: artifact emission (object, assembly, bitcode, IR text)
package rastergen
