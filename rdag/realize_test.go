package rdag

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func mustBound(t *testing.T, p *Pipeline) *Pipeline {
	t.Helper()
	assert.NoError(t, p.Bind(nil, nil))
	return p
}

func TestRealizeGradient(t *testing.T) {
	b := NewBuilder("gradient")
	f := b.MustStage("f", "x", "y")
	f.Define(Add(Var("x"), Var("y")))
	p := mustBound(t, b.MustBuild(f))

	buf, err := p.Realize(Int32, 4, 3)
	assert.NoError(t, err)
	assert.Equal(t, Int32, buf.Elem())
	assert.Equal(t, 2, buf.Rank())
	assert.Equal(t, []int{4, 3}, buf.Extents())
	assert.Equal(t, 0.0, buf.At(0, 0))
	assert.Equal(t, 5.0, buf.At(3, 2))
	assert.Equal(t, 12, len(buf.Data()))
}

func TestRealizeInlinesCalls(t *testing.T) {
	b := NewBuilder("p")
	f := b.MustStage("f", "x", "y")
	f.Define(Max(Var("x"), Var("y")))
	g := b.MustStage("g", "x", "y")
	g.Define(Mul(f.At(Var("x"), Var("y")), ConstInt(2)))
	p := mustBound(t, b.MustBuild(g))

	buf, err := p.Realize(Int32, 8, 8)
	assert.NoError(t, err)
	assert.Equal(t, 14.0, buf.At(3, 7))
	assert.Equal(t, 10.0, buf.At(5, 2))
}

func TestRealizeBoundChannels(t *testing.T) {
	b := NewBuilder("p")
	f := b.MustStage("f", "x", "y")
	f.Define(Max(Var("x"), Var("y")))
	g := b.MustStage("g", "x", "y", "c")
	g.Define(Cast(Int32, Mul(Mul(f.At(Var("x"), Var("y")), Var("c")), ConstInt(5))))
	g.Bound("c", 0, 3).Reorder("c", "x", "y").Unroll("c")
	p := mustBound(t, b.MustBuild(g))

	buf, err := p.Realize(Int32, 10, 10, 3)
	assert.NoError(t, err)
	assert.Equal(t, 70.0, buf.At(3, 7, 2))
	assert.Equal(t, 0.0, buf.At(0, 0, 0))
	assert.Equal(t, 45.0, buf.At(9, 1, 1))

	t.Run("bound extent enforced", func(t *testing.T) {
		_, err := p.Realize(Int32, 10, 10, 4)
		assert.True(t, errors.Is(err, ErrShape))
	})
}

func TestRealizeArgs(t *testing.T) {
	b := NewBuilder("p")
	f := b.MustStage("f", "x")
	f.Define(Mul(Var("x"), Arg("gain")))
	p := b.MustBuild(f)

	gain := 3.0
	err := p.Bind([]ArgSpec{{
		Name:    "gain",
		Type:    Float32,
		Current: func() float64 { return gain },
	}}, []ParamValue{{Name: "variant", Value: "test"}})
	assert.NoError(t, err)
	assert.True(t, p.Bound())
	assert.Equal(t, 1, len(p.Args()))
	assert.Equal(t, []ParamValue{{Name: "variant", Value: "test"}}, p.Params())

	buf, err := p.Realize(Float32, 5)
	assert.NoError(t, err)
	assert.Equal(t, 12.0, buf.At(4))

	// Argument values are read per realization, not captured at Bind.
	gain = 10.0
	buf, err = p.Realize(Float32, 5)
	assert.NoError(t, err)
	assert.Equal(t, 40.0, buf.At(4))

	t.Run("explicit values override for one realization", func(t *testing.T) {
		buf, err := p.RealizeWith(Float32, map[string]float64{"gain": 7}, 5)
		assert.NoError(t, err)
		assert.Equal(t, 28.0, buf.At(4))

		// The binding itself is untouched.
		buf, err = p.Realize(Float32, 5)
		assert.NoError(t, err)
		assert.Equal(t, 40.0, buf.At(4))
	})

	t.Run("unknown argument name", func(t *testing.T) {
		_, err := p.RealizeWith(Float32, map[string]float64{"nope": 1}, 5)
		assert.True(t, errors.Is(err, ErrUnknownArg))
	})
}

func TestBind(t *testing.T) {
	build := func(t *testing.T, body *Expr) *Pipeline {
		t.Helper()
		b := NewBuilder("p")
		f := b.MustStage("f", "x")
		f.Define(body)
		return b.MustBuild(f)
	}
	noop := func() float64 { return 0 }

	t.Run("realize before bind", func(t *testing.T) {
		p := build(t, Var("x"))
		_, err := p.Realize(Int32, 4)
		assert.True(t, errors.Is(err, ErrInvalidPipeline))
	})

	t.Run("bind twice", func(t *testing.T) {
		p := build(t, Var("x"))
		assert.NoError(t, p.Bind(nil, nil))
		err := p.Bind(nil, nil)
		assert.True(t, errors.Is(err, ErrAlreadyBound))
	})

	t.Run("undeclared argument", func(t *testing.T) {
		p := build(t, Arg("gain"))
		err := p.Bind(nil, nil)
		assert.True(t, errors.Is(err, ErrUnknownArg))
	})

	t.Run("argument declared twice", func(t *testing.T) {
		p := build(t, Var("x"))
		err := p.Bind([]ArgSpec{
			{Name: "a", Type: Float32, Current: noop},
			{Name: "a", Type: Float32, Current: noop},
		}, nil)
		assert.True(t, errors.Is(err, ErrInvalidPipeline))
	})

	t.Run("argument without value source", func(t *testing.T) {
		p := build(t, Var("x"))
		err := p.Bind([]ArgSpec{{Name: "a", Type: Float32}}, nil)
		assert.True(t, errors.Is(err, ErrInvalidPipeline))
	})

	t.Run("invalid argument name", func(t *testing.T) {
		p := build(t, Var("x"))
		err := p.Bind([]ArgSpec{{Name: "_a", Type: Float32, Current: noop}}, nil)
		assert.True(t, errors.Is(err, ErrInvalidName))
	})
}

func TestRealizeShape(t *testing.T) {
	b := NewBuilder("p")
	f := b.MustStage("f", "x", "y")
	f.Define(Var("x"))
	p := mustBound(t, b.MustBuild(f))

	t.Run("rank mismatch", func(t *testing.T) {
		_, err := p.Realize(Int32, 4)
		assert.True(t, errors.Is(err, ErrShape))
	})

	t.Run("non positive extent", func(t *testing.T) {
		_, err := p.Realize(Int32, 4, 0)
		assert.True(t, errors.Is(err, ErrShape))
	})
}

func TestQuantization(t *testing.T) {
	realize1D := func(t *testing.T, body *Expr, elem ScalarType, extent int) *Buffer {
		t.Helper()
		b := NewBuilder("p")
		f := b.MustStage("f", "x")
		f.Define(body)
		p := mustBound(t, b.MustBuild(f))
		buf, err := p.Realize(elem, extent)
		assert.NoError(t, err)
		return buf
	}

	t.Run("uint8 wraps modulo 256", func(t *testing.T) {
		buf := realize1D(t, Cast(UInt8, Add(Var("x"), ConstInt(250))), UInt8, 10)
		assert.Equal(t, 255.0, buf.At(5))
		assert.Equal(t, 3.0, buf.At(9))
	})

	t.Run("float to int truncates toward zero", func(t *testing.T) {
		buf := realize1D(t, Cast(Int32, Const(-2.7)), Int32, 1)
		assert.Equal(t, -2.0, buf.At(0))
	})

	t.Run("non finite becomes zero", func(t *testing.T) {
		buf := realize1D(t, Cast(Int32, Div(Const(1), Const(0))), Int32, 1)
		assert.Equal(t, 0.0, buf.At(0))
	})

	t.Run("float32 rounds through single precision", func(t *testing.T) {
		buf := realize1D(t, Const(0.1), Float32, 1)
		assert.Equal(t, float64(float32(0.1)), buf.At(0))
	})

	t.Run("store quantizes to element type", func(t *testing.T) {
		// No cast in the body; the final store still wraps to uint8.
		buf := realize1D(t, Add(Var("x"), ConstInt(250)), UInt8, 10)
		assert.Equal(t, 3.0, buf.At(9))
	})
}

func TestSelectAndClamp(t *testing.T) {
	b := NewBuilder("p")
	f := b.MustStage("f", "x")
	f.Define(Select(LT(Var("x"), ConstInt(5)),
		Clamp(Var("x"), ConstInt(2), ConstInt(4)),
		Neg(Var("x"))))
	p := mustBound(t, b.MustBuild(f))

	buf, err := p.Realize(Int32, 10)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, buf.At(0))
	assert.Equal(t, 3.0, buf.At(3))
	assert.Equal(t, 4.0, buf.At(4))
	assert.Equal(t, -7.0, buf.At(7))
}

func TestBufferAtPanics(t *testing.T) {
	buf, err := NewBuffer(Int32, 4, 3)
	assert.NoError(t, err)

	t.Run("wrong rank", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on rank mismatch")
			}
		}()
		buf.At(1)
	})

	t.Run("out of range", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on out of range coordinate")
			}
		}()
		buf.At(4, 0)
	})
}

func BenchmarkRealize(b *testing.B) {
	builder := NewBuilder("bench")
	f := builder.MustStage("f", "x", "y")
	f.Define(Add(Var("x"), Var("y")))
	g := builder.MustStage("g", "x", "y")
	g.Define(Cast(Int32, Mul(f.At(Var("x"), Var("y")), ConstInt(3))))
	p := builder.MustBuild(g)
	if err := p.Bind(nil, nil); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Realize(Int32, 64, 64); err != nil {
			b.Fatal(err)
		}
	}
}
