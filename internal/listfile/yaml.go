package listfile

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// parseYAML reads the hierarchical format. The line table may sit under
// list.line, under line, or be the document itself; a line without a file
// key holds its sub-units directly. Columns are not used.
func parseYAML(data []byte, _ []string) ([]*Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ftmgmt.ErrInvalidConfig, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	lines := deref(doc.Content[0])
	if sub := childMapping(lines, "list"); sub != nil {
		lines = sub
	}
	if sub := childMapping(lines, "line"); sub != nil {
		lines = sub
	}
	if lines.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: list document must be a mapping (line %d)", ftmgmt.ErrInvalidConfig, lines.Line)
	}

	var records []*Record
	for i := 0; i+1 < len(lines.Content); i += 2 {
		name, body := lines.Content[i].Value, deref(lines.Content[i+1])
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %s must be a mapping (line %d)", ftmgmt.ErrInvalidConfig, name, body.Line)
		}
		if sub := childMapping(body, "file"); sub != nil {
			body = sub
		}

		rec := NewRecord(name)
		for j := 0; j+1 < len(body.Content); j += 2 {
			unit, fieldsNode := body.Content[j].Value, deref(body.Content[j+1])
			fields, err := decodeFields(name, unit, fieldsNode)
			if err != nil {
				return nil, err
			}
			rec.SetUnit(unit, fields)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeFields(line, unit string, node *yaml.Node) (*ftmgmt.Record, error) {
	fields := ftmgmt.NewRecord()
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return fields, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s.%s must map field names to values (line %d)",
			ftmgmt.ErrInvalidConfig, line, unit, node.Line)
	}
	for k := 0; k+1 < len(node.Content); k += 2 {
		var raw any
		if err := node.Content[k+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %s.%s.%s: %v", ftmgmt.ErrInvalidConfig, line, unit, node.Content[k].Value, err)
		}
		fields.Set(node.Content[k].Value, ftmgmt.ValueOf(raw))
	}
	return fields, nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func childMapping(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			if v := deref(m.Content[i+1]); v.Kind == yaml.MappingNode {
				return v
			}
		}
	}
	return nil
}
