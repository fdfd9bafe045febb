// Package paramfile loads generator parameter assignments from HCL files.
//
// A parameter file is a flat list of attributes:
//
//	factor      = 2.5
//	output_type = "int32"
//	channels    = 3
//
// Values must be literal; expressions referencing variables or functions
// fail the load. This is driver-side configuration, the library core never
// reads files.
package paramfile

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/exp/slices"

	"github.com/rastergen/rastergen"
)

var (
	ErrParse    = errors.New("parameter file parse failed")
	ErrBadValue = errors.New("unsupported parameter value")
)

// Assignment is one `name = value` attribute from a parameter file.
type Assignment struct {
	Name  string
	Value cty.Value
	Range hcl.Range
}

// Assignments holds a file's attributes in source order.
type Assignments []Assignment

// Load parses an HCL parameter file of top-level attributes. Duplicate
// names are a parse error.
func Load(path string) (Assignments, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrParse, diags)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrParse, diags)
	}

	as := make(Assignments, 0, len(attrs))
	for _, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: %w", ErrParse, diags)
		}
		as = append(as, Assignment{Name: attr.Name, Value: val, Range: attr.Range})
	}
	// JustAttributes returns a map; restore file order.
	slices.SortFunc(as, func(a, b Assignment) bool {
		return a.Range.Start.Byte < b.Range.Start.Byte
	})
	return as, nil
}

// Apply sets every assignment on the instance in file order. The first
// failure aborts with the parameter name and file position.
func (as Assignments) Apply(inst *rastergen.Instance) error {
	for _, a := range as {
		v, err := goValue(a.Value)
		if err != nil {
			return fmt.Errorf("%s: parameter %q: %w", a.Range, a.Name, err)
		}
		if err := inst.SetParam(a.Name, v); err != nil {
			return fmt.Errorf("%s: %w", a.Range, err)
		}
	}
	return nil
}

// goValue maps literal cty values onto the types the parameter registry
// accepts. Whole numbers become int64 so they fit both int and float
// parameters; anything fractional stays float64.
func goValue(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, fmt.Errorf("%w: null", ErrBadValue)
	}
	switch v.Type() {
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			n, _ := bf.Int64()
			return n, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return v.True(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrBadValue, v.Type().FriendlyName())
	}
}
