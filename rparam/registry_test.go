package rparam

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestRegistry(t *testing.T) {
	t.Run("names are unique across kinds", func(t *testing.T) {
		r := NewRegistry()
		MustFloat(r, "factor", 1)

		_, err := Int(r, "factor", 1)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateName))

		_, err = Bool(r, "factor", true)
		assert.True(t, errors.Is(err, ErrDuplicateName))
	})

	t.Run("set on unknown name", func(t *testing.T) {
		r := NewRegistry()
		err := r.Set("nope", 1)
		assert.True(t, errors.Is(err, ErrUnknownParameter))

		_, err = r.Get("nope")
		assert.True(t, errors.Is(err, ErrUnknownParameter))
	})

	t.Run("names follow declaration order", func(t *testing.T) {
		r := NewRegistry()
		MustFloat(r, "compiletime_factor", 1)
		MustInt(r, "channels", 4)
		MustBool(r, "flag", true)
		MustFloat(r, "runtime_factor", 1, WithRuntime())

		assert.Equal(t, []string{"compiletime_factor", "channels", "flag", "runtime_factor"}, r.Names())

		var visited []string
		r.Visit(func(p Parameter) { visited = append(visited, p.Name()) })
		assert.Equal(t, r.Names(), visited)
	})

	t.Run("runtime params filter keeps order", func(t *testing.T) {
		r := NewRegistry()
		MustFloat(r, "a", 1, WithRuntime())
		MustInt(r, "b", 1)
		MustFloat(r, "c", 1, WithRuntime())

		rt := r.RuntimeParams()
		assert.Equal(t, 2, len(rt))
		assert.Equal(t, "a", rt[0].Name())
		assert.Equal(t, "c", rt[1].Name())
	})

	t.Run("get returns the typed value", func(t *testing.T) {
		r := NewRegistry()
		MustInt(r, "channels", 4)
		MustEnum(r, "enummy", "bar", map[string]int{"foo": 0, "bar": 1})

		v, err := r.Get("channels")
		assert.NoError(t, err)
		assert.Equal(t, int64(4), v.(int64))

		v, err = r.Get("enummy")
		assert.NoError(t, err)
		assert.Equal(t, 1, v.(int))
	})
}

func TestSeal(t *testing.T) {
	t.Run("compile-time params freeze", func(t *testing.T) {
		r := NewRegistry()
		factor := MustFloat(r, "compiletime_factor", 1)
		gain := MustFloat(r, "runtime_factor", 1, WithRuntime())

		assert.NoError(t, r.Set("compiletime_factor", 2.5))
		r.Seal()
		assert.True(t, r.Sealed())

		err := r.Set("compiletime_factor", 3)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrImmutableAfterBuild))
		assert.Equal(t, 2.5, factor.Value())

		// Runtime-bound parameters stay settable.
		assert.NoError(t, r.Set("runtime_factor", 2.0))
		assert.Equal(t, 2.0, gain.Value())
	})

	t.Run("set string respects the seal too", func(t *testing.T) {
		r := NewRegistry()
		MustInt(r, "channels", 4)
		r.Seal()
		err := r.SetString("channels", "3")
		assert.True(t, errors.Is(err, ErrImmutableAfterBuild))
	})

	t.Run("declarations after seal fail", func(t *testing.T) {
		r := NewRegistry()
		r.Seal()
		_, err := Int(r, "late", 1)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrImmutableAfterBuild))
	})
}

func TestCheckRequired(t *testing.T) {
	t.Run("aggregates every unset required param", func(t *testing.T) {
		r := NewRegistry()
		MustFloat(r, "a", 0, WithRequired())
		MustInt(r, "b", 0, WithRequired())
		MustBool(r, "c", false)

		err := r.CheckRequired()
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrRequired))
		assert.Contains(t, err.Error(), `"a"`)
		assert.Contains(t, err.Error(), `"b"`)
	})

	t.Run("explicitly set required params pass", func(t *testing.T) {
		r := NewRegistry()
		MustFloat(r, "a", 0, WithRequired())
		assert.NoError(t, r.Set("a", 0.0)) // setting to the default still counts
		assert.NoError(t, r.CheckRequired())
	})

	t.Run("no required params", func(t *testing.T) {
		r := NewRegistry()
		MustFloat(r, "a", 0)
		assert.NoError(t, r.CheckRequired())
	})
}

func TestDescribeRendering(t *testing.T) {
	r := NewRegistry()
	factor := MustFloat(r, "factor", 1.5, WithBounds(0, 100), WithDoc("scale factor"))
	mode := MustEnum(r, "mode", "foo", map[string]int{"foo": 0, "bar": 1})

	assert.Equal(t, "1.5", factor.ValueString())
	assert.Equal(t, "1.5", factor.DefaultString())
	assert.Equal(t, "[0, 100]", factor.Constraint())
	assert.Equal(t, "scale factor", factor.Doc())

	assert.Equal(t, "foo", mode.ValueString())
	assert.Equal(t, "one of [bar, foo]", mode.Constraint())
}
