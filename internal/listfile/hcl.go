package listfile

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

var (
	listSchema = &hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "line", LabelNames: []string{"name"}}},
	}
	lineSchema = &hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "file", LabelNames: []string{"unit"}}},
	}
)

// parseHCL reads line blocks holding one file block per sub-unit.
// Attribute expressions are evaluated without variables or functions.
func parseHCL(data []byte, _ []string) ([]*Record, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, "list.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ftmgmt.ErrInvalidConfig, diags.Error())
	}
	content, diags := file.Body.Content(listSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ftmgmt.ErrInvalidConfig, diags.Error())
	}

	records := make([]*Record, 0, len(content.Blocks))
	for _, lineBlock := range content.Blocks {
		rec := NewRecord(lineBlock.Labels[0])
		lineContent, diags := lineBlock.Body.Content(lineSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: %s", ftmgmt.ErrInvalidConfig, diags.Error())
		}
		for _, unitBlock := range lineContent.Blocks {
			fields, err := hclFields(unitBlock.Body)
			if err != nil {
				return nil, fmt.Errorf("line %s, file %s: %w", rec.Name, unitBlock.Labels[0], err)
			}
			rec.SetUnit(unitBlock.Labels[0], fields)
		}
		records = append(records, rec)
	}
	return records, nil
}

func hclFields(body hcl.Body) (*ftmgmt.Record, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ftmgmt.ErrInvalidConfig, diags.Error())
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, a := range attrs {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	fields := ftmgmt.NewRecord()
	for _, a := range ordered {
		val, diags := a.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: %s", ftmgmt.ErrInvalidConfig, diags.Error())
		}
		v, err := fromCty(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		fields.Set(a.Name, v)
	}
	return fields, nil
}

// fromCty converts a scalar cty value. Whole numbers become integers.
func fromCty(v cty.Value) (ftmgmt.Value, error) {
	if v.IsNull() || !v.IsKnown() {
		return ftmgmt.Value{}, nil
	}
	switch ty := v.Type(); ty {
	case cty.String:
		return ftmgmt.StringValue(v.AsString()), nil
	case cty.Bool:
		return ftmgmt.BoolValue(v.True()), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == 0 {
				return ftmgmt.IntValue(i), nil
			}
		}
		f, _ := bf.Float64()
		return ftmgmt.FloatValue(f), nil
	default:
		return ftmgmt.Value{}, fmt.Errorf("%w: unsupported value type %s", ftmgmt.ErrInvalidConfig, ty.FriendlyName())
	}
}
