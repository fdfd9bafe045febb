package paramfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/rastergen/rastergen"
	"github.com/rastergen/rastergen/rdag"
	"github.com/rastergen/rastergen/rparam"
)

type demoGen struct{ rastergen.Base }

func newDemoGen() rastergen.Generator {
	g := &demoGen{}
	r := g.Params()
	rparam.MustFloat(r, "factor", 1)
	rparam.MustInt(r, "channels", 4)
	rparam.MustBool(r, "fancy", false)
	rastergen.MustTypeParam(r, "output_type", rdag.Float32)
	return g
}

func (g *demoGen) Build() (*rdag.Pipeline, error) {
	b := rdag.NewBuilder("demo")
	f := b.MustStage("f", "x")
	f.Define(rdag.Var("x"))
	return b.Build(f)
}

func newDemoInstance(t *testing.T) *rastergen.Instance {
	t.Helper()
	reg := rastergen.NewRegistry()
	reg.MustRegister("demo", newDemoGen)
	inst, err := reg.Create("demo")
	assert.NoError(t, err)
	return inst
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.hcl")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("attributes come back in file order", func(t *testing.T) {
		as, err := Load(writeFile(t, "zeta = 1\nalpha = 2\nmid = 3\n"))
		assert.NoError(t, err)
		assert.Equal(t, 3, len(as))
		assert.Equal(t, "zeta", as[0].Name)
		assert.Equal(t, "alpha", as[1].Name)
		assert.Equal(t, "mid", as[2].Name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
		assert.True(t, errors.Is(err, ErrParse))
	})

	t.Run("duplicate attribute", func(t *testing.T) {
		_, err := Load(writeFile(t, "factor = 1\nfactor = 2\n"))
		assert.True(t, errors.Is(err, ErrParse))
	})

	t.Run("variables are rejected", func(t *testing.T) {
		_, err := Load(writeFile(t, "factor = other * 2\n"))
		assert.True(t, errors.Is(err, ErrParse))
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := Load(writeFile(t, "factor = = 2\n"))
		assert.True(t, errors.Is(err, ErrParse))
	})
}

func TestApply(t *testing.T) {
	t.Run("sets every declared kind", func(t *testing.T) {
		inst := newDemoInstance(t)
		as, err := Load(writeFile(t, `
factor      = 2.5
channels    = 3
fancy       = true
output_type = "int32"
`))
		assert.NoError(t, err)
		assert.NoError(t, as.Apply(inst))

		params := inst.Generator().Params()
		factor, err := params.Get("factor")
		assert.NoError(t, err)
		assert.Equal(t, 2.5, factor.(float64))
		channels, err := params.Get("channels")
		assert.NoError(t, err)
		assert.Equal(t, int64(3), channels.(int64))
		fancy, err := params.Get("fancy")
		assert.NoError(t, err)
		assert.Equal(t, true, fancy.(bool))
		typ, err := params.Get("output_type")
		assert.NoError(t, err)
		assert.Equal(t, rdag.Int32, typ.(rdag.ScalarType))
	})

	t.Run("whole numbers fit float parameters", func(t *testing.T) {
		inst := newDemoInstance(t)
		as, err := Load(writeFile(t, "factor = 3\n"))
		assert.NoError(t, err)
		assert.NoError(t, as.Apply(inst))

		factor, err := inst.Generator().Params().Get("factor")
		assert.NoError(t, err)
		assert.Equal(t, 3.0, factor.(float64))
	})

	t.Run("unknown parameter carries the position", func(t *testing.T) {
		inst := newDemoInstance(t)
		as, err := Load(writeFile(t, "factor = 1\nnope = 2\n"))
		assert.NoError(t, err)

		err = as.Apply(inst)
		assert.True(t, errors.Is(err, rparam.ErrUnknownParameter))
		assert.True(t, strings.Contains(err.Error(), "params.hcl:2"))
	})

	t.Run("kind mismatch names the parameter", func(t *testing.T) {
		inst := newDemoInstance(t)
		as, err := Load(writeFile(t, `channels = "three"`))
		assert.NoError(t, err)

		err = as.Apply(inst)
		assert.True(t, errors.Is(err, rparam.ErrTypeMismatch))
		assert.True(t, strings.Contains(err.Error(), "channels"))
	})

	t.Run("structured values are rejected", func(t *testing.T) {
		inst := newDemoInstance(t)
		as, err := Load(writeFile(t, "channels = [1, 2]\n"))
		assert.NoError(t, err)

		err = as.Apply(inst)
		assert.True(t, errors.Is(err, ErrBadValue))
	})

	t.Run("null is rejected", func(t *testing.T) {
		inst := newDemoInstance(t)
		as, err := Load(writeFile(t, "channels = null\n"))
		assert.NoError(t, err)

		err = as.Apply(inst)
		assert.True(t, errors.Is(err, ErrBadValue))
	})
}
