// Package rdag models image and array processing pipelines as directed
// acyclic graphs of pure stages.
//
// # Overview
//
// A stage is a pure function from integer coordinates to a scalar value.
// Stages are declared over named dimensions, defined by expressions, and may
// call other stages at computed coordinates. The package separates graph
// construction from evaluation through a two-phase lifecycle:
//
// 1. **Build Phase**: Declare stages on a Builder, define their bodies, and
// record scheduling directives
//
// 2. **Realize Phase**: Bind runtime arguments to the validated Pipeline and
// evaluate it over a concrete region
//
// # Basic Usage
//
//	b := rdag.NewBuilder("doubler")
//
//	// Declare a stage over two dimensions, innermost first.
//	f := b.MustStage("f", "x", "y")
//	f.Define(rdag.Max(rdag.Var("x"), rdag.Var("y")))
//
//	// A second stage calls the first at its own coordinates.
//	g := b.MustStage("g", "x", "y")
//	g.Define(rdag.Mul(f.At(rdag.Var("x"), rdag.Var("y")), rdag.ConstInt(2)))
//	g.Reorder("x", "y").Parallel("y")
//
//	// Validate and freeze the graph.
//	p := b.MustBuild(g)
//
//	// Bind (no runtime arguments here) and evaluate.
//	if err := p.Bind(nil, nil); err != nil {
//	    ...
//	}
//	buf, err := p.Realize(rdag.Int32, 8, 8)
//
// # Expressions
//
// Expression trees are built from the package-level constructors (Var, Arg,
// Const, Add, Mul, Min, Clamp, Select, Cast and so on). Trees are immutable
// once attached to a stage via Define. Stage.At produces a call expression;
// callee identity is checked at build time, so stages from a different
// builder are rejected.
//
// # Scheduling
//
// Directives (Bound, Reorder, Unroll, Vectorize, Parallel) describe how a
// stage's loop nest is to be emitted. They are recorded in call order and
// replayed in that order during lowering; they never change the value a
// pipeline computes, only the shape of the generated code. Bound is the one
// directive with an observable effect at realize time: a bound dimension
// must be realized over exactly the declared region.
//
// # Validation
//
// Pipeline validation is performed during Build() and checks:
//
//   - **Definition**: Every declared stage has a body
//   - **Scoping**: Variables resolve to declared dimensions of their stage
//   - **Call Integrity**: Called stages belong to the builder and are passed
//     one coordinate per dimension
//   - **Cycle Detection**: Stage calls cannot form a cycle (uses DFS)
//   - **Reachability**: All stages must be reachable from the output
//   - **Schedule Consistency**: Directives name declared dimensions, reorders
//     are full permutations, bounds are positive and unique per dimension
//   - **Size Limits**: Prevents pathological graphs (MaxStages, MaxDims,
//     MaxDepth)
//
// All validation errors use sentinel errors (ErrCycleDetected,
// ErrUndefinedStage, ErrInvalidSchedule, ...) that can be checked with
// errors.Is().
//
// # Binding and Realization
//
// Bind attaches runtime arguments exactly once. Each argument carries a
// closure that is read at the start of every realization, so values assigned
// after binding are picked up without rebinding; RealizeWith layers explicit
// values over the bound ones for a single realization. Realize is a
// reference evaluator: it inlines all stage calls and computes in float64,
// quantizing at casts and final stores. Generated code is checked against
// its output.
//
// # Thread Safety
//
// IMPORTANT: Builder and Stage are NOT safe for concurrent use. All
// construction must happen on a single goroutine. A built Pipeline is
// immutable apart from the one-shot Bind; after Bind it may be realized
// from multiple goroutines concurrently.
package rdag
