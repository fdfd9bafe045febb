package rastergen

import (
	"fmt"
	"math"
)

// SelfTest declares the functional check a generator ships with: parameter
// values to apply, a shape to realize, and the expected value at every
// coordinate.
type SelfTest struct {
	// CompileTime values are applied before Build, Runtime values after.
	CompileTime map[string]any
	Runtime     map[string]any
	// Shape gives the realization extents, innermost dimension first.
	Shape []int
	// Want computes the expected element at coords. Comparison is exact
	// unless Tol is positive.
	Want func(coords []int) float64
	Tol  float64
}

// SelfTester is implemented by generators that carry a self test.
type SelfTester interface {
	SelfTest() SelfTest
}

// Verify runs a generator's self test against a fresh instance: apply the
// compile-time values, build, apply the runtime values, realize the
// declared shape and compare every element. It reports success and a
// one-line diagnostic; generators without a self test verify trivially.
// Verify never panics on a misdeclared test, it reports the failure.
func Verify(inst *Instance) (bool, string) {
	st, ok := inst.Generator().(SelfTester)
	if !ok {
		return true, "no self-test declared"
	}
	test := st.SelfTest()
	if test.Want == nil {
		return false, "self-test declares no expectation"
	}

	for name, v := range test.CompileTime {
		if err := inst.SetParam(name, v); err != nil {
			return false, fmt.Sprintf("set %s: %v", name, err)
		}
	}
	p, err := inst.Build()
	if err != nil {
		return false, fmt.Sprintf("build: %v", err)
	}
	for name, v := range test.Runtime {
		if err := inst.SetParam(name, v); err != nil {
			return false, fmt.Sprintf("set %s: %v", name, err)
		}
	}

	buf, err := p.Realize(p.OutputType(), test.Shape...)
	if err != nil {
		return false, fmt.Sprintf("realize: %v", err)
	}

	coords := make([]int, len(test.Shape))
	for {
		got := buf.At(coords...)
		want := test.Want(coords)
		if !within(got, want, test.Tol) {
			return false, fmt.Sprintf("at %v: want %v, got %v", coords, want, got)
		}
		i := 0
		for ; i < len(coords); i++ {
			coords[i]++
			if coords[i] < test.Shape[i] {
				break
			}
			coords[i] = 0
		}
		if i == len(coords) {
			break
		}
	}
	return true, fmt.Sprintf("verified %d elements", len(buf.Data()))
}

func within(got, want, tol float64) bool {
	if tol <= 0 {
		return got == want
	}
	return math.Abs(got-want) <= tol
}
