package rdag

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestValidateBodies(t *testing.T) {
	t.Run("undefined stage", func(t *testing.T) {
		b := NewBuilder("p")
		f := b.MustStage("f", "x")

		_, err := b.Build(f)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrUndefinedStage))
		assert.True(t, strings.Contains(err.Error(), `"f"`))
	})

	t.Run("unknown dimension", func(t *testing.T) {
		b := NewBuilder("p")
		f := b.MustStage("f", "x")
		f.Define(Add(Var("x"), Var("y")))

		_, err := b.Build(f)
		assert.True(t, errors.Is(err, ErrUnknownDim))
		assert.True(t, strings.Contains(err.Error(), `"y"`))
	})

	t.Run("call into other builder", func(t *testing.T) {
		other := NewBuilder("other")
		foreign := other.MustStage("g", "x")
		foreign.Define(Var("x"))

		b := NewBuilder("p")
		f := b.MustStage("f", "x")
		f.Define(foreign.At(Var("x")))

		_, err := b.Build(f)
		assert.True(t, errors.Is(err, ErrUnknownStage))
	})

	t.Run("same name different builder", func(t *testing.T) {
		other := NewBuilder("other")
		foreign := other.MustStage("g", "x")
		foreign.Define(Var("x"))

		b := NewBuilder("p")
		g := b.MustStage("g", "x")
		g.Define(Var("x"))
		f := b.MustStage("f", "x")
		// Same name as a local stage, but the callee is the foreign one.
		f.Define(foreign.At(Var("x")))

		_, err := b.Build(f)
		assert.True(t, errors.Is(err, ErrUnknownStage))
	})

	t.Run("arity mismatch", func(t *testing.T) {
		b := NewBuilder("p")
		f := b.MustStage("f", "x", "y")
		f.Define(Add(Var("x"), Var("y")))
		g := b.MustStage("g", "x")
		g.Define(f.At(Var("x")))

		_, err := b.Build(g)
		assert.True(t, errors.Is(err, ErrArityMismatch))
	})

	t.Run("expression too deep", func(t *testing.T) {
		b := NewBuilder("p")
		f := b.MustStage("f", "x")
		e := Var("x")
		for i := 0; i <= MaxDepth; i++ {
			e = Add(e, ConstInt(1))
		}
		f.Define(e)

		_, err := b.Build(f)
		assert.True(t, errors.Is(err, ErrInvalidPipeline))
	})
}

func TestValidateGraph(t *testing.T) {
	t.Run("two stage cycle", func(t *testing.T) {
		b := NewBuilder("p")
		f := b.MustStage("f", "x")
		g := b.MustStage("g", "x")
		f.Define(g.At(Var("x")))
		g.Define(f.At(Var("x")))

		_, err := b.Build(g)
		assert.True(t, errors.Is(err, ErrCycleDetected))
	})

	t.Run("self cycle", func(t *testing.T) {
		b := NewBuilder("p")
		f := b.MustStage("f", "x")
		f.Define(f.At(Sub(Var("x"), ConstInt(1))))

		_, err := b.Build(f)
		assert.True(t, errors.Is(err, ErrCycleDetected))
	})

	t.Run("cycle error names the path", func(t *testing.T) {
		b := NewBuilder("p")
		f := b.MustStage("f", "x")
		g := b.MustStage("g", "x")
		h := b.MustStage("h", "x")
		f.Define(g.At(Var("x")))
		g.Define(h.At(Var("x")))
		h.Define(f.At(Var("x")))

		_, err := b.Build(f)
		assert.True(t, errors.Is(err, ErrCycleDetected))
		assert.True(t, strings.Contains(err.Error(), "->"))
	})

	t.Run("unreachable stages listed sorted", func(t *testing.T) {
		b := NewBuilder("p")
		f := b.MustStage("f", "x")
		f.Define(Var("x"))
		zeta := b.MustStage("zeta", "x")
		zeta.Define(Var("x"))
		alpha := b.MustStage("alpha", "x")
		alpha.Define(Var("x"))

		_, err := b.Build(f)
		assert.True(t, errors.Is(err, ErrUnreachableStage))
		assert.True(t, strings.Contains(err.Error(), "alpha, zeta"))
	})

	t.Run("diamond is fine", func(t *testing.T) {
		b := NewBuilder("p")
		f := b.MustStage("f", "x")
		f.Define(Var("x"))
		g := b.MustStage("g", "x")
		g.Define(f.At(Var("x")))
		h := b.MustStage("h", "x")
		h.Define(f.At(Add(Var("x"), ConstInt(1))))
		out := b.MustStage("out", "x")
		out.Define(Add(g.At(Var("x")), h.At(Var("x"))))

		_, err := b.Build(out)
		assert.NoError(t, err)
	})
}

func TestValidateSchedule(t *testing.T) {
	newStage := func(t *testing.T) (*Builder, *Stage) {
		t.Helper()
		b := NewBuilder("p")
		g := b.MustStage("g", "x", "y", "c")
		g.Define(Add(Var("x"), Add(Var("y"), Var("c"))))
		return b, g
	}

	t.Run("valid schedule", func(t *testing.T) {
		b, g := newStage(t)
		g.Bound("c", 0, 4).Reorder("c", "x", "y").Unroll("c").Vectorize("x", 0).Parallel("y")
		_, err := b.Build(g)
		assert.NoError(t, err)
	})

	t.Run("directive names unknown dim", func(t *testing.T) {
		b, g := newStage(t)
		g.Unroll("z")
		_, err := b.Build(g)
		assert.True(t, errors.Is(err, ErrInvalidSchedule))
		assert.True(t, strings.Contains(err.Error(), `"z"`))
	})

	t.Run("reorder must be a permutation", func(t *testing.T) {
		b, g := newStage(t)
		g.Reorder("c", "x")
		_, err := b.Build(g)
		assert.True(t, errors.Is(err, ErrInvalidSchedule))
	})

	t.Run("reorder repeats a dim", func(t *testing.T) {
		b, g := newStage(t)
		g.Reorder("c", "x", "x")
		_, err := b.Build(g)
		assert.True(t, errors.Is(err, ErrInvalidSchedule))
	})

	t.Run("bound extent must be positive", func(t *testing.T) {
		b, g := newStage(t)
		g.Bound("c", 0, 0)
		_, err := b.Build(g)
		assert.True(t, errors.Is(err, ErrInvalidSchedule))
	})

	t.Run("dim bound twice", func(t *testing.T) {
		b, g := newStage(t)
		g.Bound("c", 0, 4).Bound("c", 0, 8)
		_, err := b.Build(g)
		assert.True(t, errors.Is(err, ErrInvalidSchedule))
	})

	t.Run("negative vectorize lanes", func(t *testing.T) {
		b, g := newStage(t)
		g.Vectorize("x", -1)
		_, err := b.Build(g)
		assert.True(t, errors.Is(err, ErrInvalidSchedule))
	})
}
