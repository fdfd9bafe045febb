package rastergen

import (
	"math"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/rastergen/rastergen/rdag"
)

func TestVerifyExample(t *testing.T) {
	ok, diag := Verify(newInstance("example", newExampleGen()))
	assert.True(t, ok, "%s", diag)
	assert.Equal(t, "verified 300 elements", diag)
}

func TestVerifyWithoutSelfTest(t *testing.T) {
	ok, diag := Verify(newInstance("bare", newBareGen()))
	assert.True(t, ok)
	assert.Equal(t, "no self-test declared", diag)
}

// wrongGen reuses the example generator but expects the wrong values.
type wrongGen struct{ *exampleGen }

func (g *wrongGen) SelfTest() SelfTest {
	st := g.exampleGen.SelfTest()
	st.Want = func(coords []int) float64 { return -1 }
	return st
}

// noWantGen declares a self test without an expectation.
type noWantGen struct{ *exampleGen }

func (g *noWantGen) SelfTest() SelfTest {
	return SelfTest{Shape: []int{1, 1, 1}}
}

// badKeyGen applies a parameter the generator never declared.
type badKeyGen struct{ *exampleGen }

func (g *badKeyGen) SelfTest() SelfTest {
	return SelfTest{
		CompileTime: map[string]any{"nope": 1},
		Shape:       []int{1, 1, 1},
		Want:        func([]int) float64 { return 0 },
	}
}

// failingTester carries a self test on a generator whose build fails.
type failingTester struct{ failGen }

func (g *failingTester) SelfTest() SelfTest {
	return SelfTest{Shape: []int{1}, Want: func([]int) float64 { return 0 }}
}

// sqrtGen stores float32 roots, so exact comparison against float64
// expectations must fail while a small tolerance passes.
type sqrtGen struct {
	Base
	tol float64
}

func (g *sqrtGen) Build() (*rdag.Pipeline, error) {
	b := rdag.NewBuilder("roots")
	f := b.MustStage("f", "x")
	f.Define(rdag.Cast(rdag.Float32, rdag.Sqrt(rdag.Var("x"))))
	return b.Build(f)
}

func (g *sqrtGen) SelfTest() SelfTest {
	return SelfTest{
		Shape: []int{16},
		Want:  func(coords []int) float64 { return math.Sqrt(float64(coords[0])) },
		Tol:   g.tol,
	}
}

func TestVerifyFailures(t *testing.T) {
	t.Run("wrong expectation names the first mismatch", func(t *testing.T) {
		example := newExampleGen().(*exampleGen)
		ok, diag := Verify(newInstance("example", &wrongGen{example}))
		assert.False(t, ok)
		assert.True(t, strings.HasPrefix(diag, "at ["))
	})

	t.Run("missing expectation", func(t *testing.T) {
		example := newExampleGen().(*exampleGen)
		ok, diag := Verify(newInstance("example", &noWantGen{example}))
		assert.False(t, ok)
		assert.Equal(t, "self-test declares no expectation", diag)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		example := newExampleGen().(*exampleGen)
		ok, diag := Verify(newInstance("example", &badKeyGen{example}))
		assert.False(t, ok)
		assert.True(t, strings.HasPrefix(diag, "set nope:"))
	})

	t.Run("build failure", func(t *testing.T) {
		ok, diag := Verify(newInstance("fail", &failingTester{}))
		assert.False(t, ok)
		assert.True(t, strings.HasPrefix(diag, "build:"))
	})

	t.Run("already built instance cannot verify", func(t *testing.T) {
		inst := newInstance("example", newExampleGen())
		_, err := inst.Build()
		assert.NoError(t, err)

		// The compile-time sets hit the sealed registry before Build would
		// report the double build.
		ok, diag := Verify(inst)
		assert.False(t, ok)
		assert.True(t, strings.Contains(diag, "immutable after build"))
	})
}

func TestVerifyTolerance(t *testing.T) {
	ok, diag := Verify(newInstance("roots", &sqrtGen{tol: 1e-6}))
	assert.True(t, ok, "%s", diag)

	ok, diag = Verify(newInstance("roots", &sqrtGen{}))
	assert.False(t, ok)
	assert.True(t, strings.HasPrefix(diag, "at ["))
}
