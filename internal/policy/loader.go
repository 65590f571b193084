package policy

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// SectionKey is the top-level configuration key holding all policies.
const SectionKey = "filetype_metadata"

const (
	keyFilenamePattern = "filename_pattern"
	keyUnits           = "hdus"
	keyOverride        = "override"
)

// RawSource exposes the bytes of a parsed configuration document.
// config.Store satisfies it.
type RawSource interface {
	Raw() []byte
}

// FromStore parses the policy section of an already loaded configuration.
func FromStore(src RawSource) (*Model, error) {
	return Parse(src.Raw())
}

// Parse decodes the filetype_metadata section of a YAML configuration
// document. A document without the section yields an empty model.
func Parse(data []byte) (*Model, error) {
	model := &Model{types: make(map[string]*FileType)}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ftmgmt.ErrInvalidConfig, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return model, nil
	}
	root := deref(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, &PolicyError{
			Line:    root.Line,
			Message: "configuration document must be a mapping",
		}
	}

	section := lookupKey(root, SectionKey)
	if section == nil || isNull(section) {
		return model, nil
	}
	if section.Kind != yaml.MappingNode {
		return nil, &PolicyError{
			Line:    section.Line,
			Message: SectionKey + " must map file type ids to policies",
		}
	}

	err := eachPair(section, func(key, value *yaml.Node) error {
		id := key.Value
		lower := strings.ToLower(id)
		if _, dup := model.types[lower]; dup {
			return &PolicyError{FileType: id, Line: key.Line, Message: "duplicate file type"}
		}
		ft, err := parseFileType(id, value)
		if err != nil {
			return err
		}
		ft.Line = key.Line
		model.types[lower] = ft
		model.ids = append(model.ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return model, nil
}

func parseFileType(id string, node *yaml.Node) (*FileType, error) {
	ft := &FileType{ID: id}
	if isNull(node) {
		return ft, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, &PolicyError{FileType: id, Line: node.Line, Message: "file type policy must be a mapping"}
	}

	err := eachPair(node, func(key, value *yaml.Node) error {
		switch key.Value {
		case keyFilenamePattern:
			if isNull(value) || value.Value == "" {
				return nil
			}
			re, err := regexp.Compile(value.Value)
			if err != nil {
				return &PolicyError{
					FileType: id,
					Line:     value.Line,
					Column:   value.Column,
					Message:  fmt.Sprintf("invalid filename_pattern: %v", err),
					Hint:     "use RE2 syntax with named groups, e.g. '^(?P<visit>\\d{7})_(?P<ccd>\\d{3})\\.fits$'",
				}
			}
			ft.FilenamePattern = re
		case keyUnits:
			if isNull(value) {
				return nil
			}
			if value.Kind != yaml.MappingNode {
				return &PolicyError{FileType: id, Line: value.Line, Message: "hdus must map unit names to sections"}
			}
			return eachPair(value, func(ukey, uvalue *yaml.Node) error {
				if ft.Unit(ukey.Value) != nil {
					return &PolicyError{FileType: id, Unit: ukey.Value, Line: ukey.Line, Message: "duplicate unit"}
				}
				unit, err := parseUnit(id, ukey.Value, uvalue)
				if err != nil {
					return err
				}
				ft.Units = append(ft.Units, unit)
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ft, nil
}

func parseUnit(ftID, name string, node *yaml.Node) (*Unit, error) {
	unit := &Unit{Name: name}
	if isNull(node) {
		return unit, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, &PolicyError{FileType: ftID, Unit: name, Line: node.Line, Message: "unit must map section names to source kinds"}
	}

	err := eachPair(node, func(key, value *yaml.Node) error {
		if key.Value == keyOverride {
			ov, err := parseOverride(ftID, name, value)
			if err != nil {
				return err
			}
			unit.Override = ov
			return nil
		}
		sect, err := parseSection(ftID, name, key.Value, value)
		if err != nil {
			return err
		}
		unit.Sections = append(unit.Sections, sect)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func parseSection(ftID, unit, name string, node *yaml.Node) (*Section, error) {
	sect := &Section{Name: name}
	if isNull(node) {
		return sect, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, &PolicyError{FileType: ftID, Unit: unit, Line: node.Line,
			Message: fmt.Sprintf("section %s must map source kinds to fields", name)}
	}

	groups := make(map[ftmgmt.SourceKind]*Group)
	err := eachPair(node, func(key, value *yaml.Node) error {
		kind, ok := ftmgmt.ParseSourceKind(key.Value)
		if !ok {
			return &PolicyError{
				FileType: ftID,
				Unit:     unit,
				Line:     key.Line,
				Column:   key.Column,
				Message:  fmt.Sprintf("unknown source kind %q in section %s", key.Value, name),
				Hint:     "use one of f (filename), w (config), h (header), c (computed), p (copy from unit)",
			}
		}
		fields, err := parseFields(ftID, unit, kind, value)
		if err != nil {
			return err
		}
		g, ok := groups[kind]
		if !ok {
			g = &Group{Kind: kind}
			groups[kind] = g
		}
		g.Fields = append(g.Fields, fields...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, kind := range ftmgmt.SourceKinds {
		if g, ok := groups[kind]; ok {
			sect.Groups = append(sect.Groups, *g)
		}
	}
	return sect, nil
}

func parseFields(ftID, unit string, kind ftmgmt.SourceKind, node *yaml.Node) ([]FieldSource, error) {
	defaultField := func(name string, n *yaml.Node) FieldSource {
		fs := FieldSource{Field: name, Key: defaultKey(kind, name), Line: n.Line, Column: n.Column}
		if kind == ftmgmt.CopyFromUnit {
			fs.Unit = unit
		}
		return fs
	}

	switch {
	case isNull(node):
		return nil, nil
	case node.Kind == yaml.ScalarNode:
		var out []FieldSource
		for _, name := range strings.Split(node.Value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, defaultField(name, node))
			}
		}
		return out, nil
	case node.Kind == yaml.SequenceNode:
		out := make([]FieldSource, 0, len(node.Content))
		for _, item := range node.Content {
			item = deref(item)
			if item.Kind != yaml.ScalarNode || item.Value == "" {
				return nil, &PolicyError{FileType: ftID, Unit: unit, Line: item.Line, Column: item.Column,
					Message: fmt.Sprintf("%s field list must contain names", kind)}
			}
			out = append(out, defaultField(item.Value, item))
		}
		return out, nil
	case node.Kind != yaml.MappingNode:
		return nil, &PolicyError{FileType: ftID, Unit: unit, Line: node.Line,
			Message: fmt.Sprintf("%s fields must be a mapping, a list or a comma-separated string", kind)}
	}

	var out []FieldSource
	err := eachPair(node, func(key, value *yaml.Node) error {
		fs := defaultField(key.Value, key)
		switch {
		case isNull(value):
		case value.Kind == yaml.ScalarNode:
			if value.Value == "" {
				break
			}
			if kind == ftmgmt.CopyFromUnit {
				fs.Unit = value.Value
			} else {
				fs.Key = value.Value
			}
		case value.Kind == yaml.MappingNode:
			err := eachPair(value, func(dk, dv *yaml.Node) error {
				switch dk.Value {
				case "key":
					if dv.Value != "" {
						fs.Key = dv.Value
					}
				case "unit":
					if kind != ftmgmt.CopyFromUnit {
						return &PolicyError{FileType: ftID, Unit: unit, Field: fs.Field, Line: dk.Line, Column: dk.Column,
							Message: "only copy (p) descriptors take a unit",
							Hint:    "move the field under p: to copy it from another unit"}
					}
					if dv.Value != "" {
						fs.Unit = dv.Value
					}
				default:
					return &PolicyError{FileType: ftID, Unit: unit, Field: fs.Field, Line: dk.Line, Column: dk.Column,
						Message: fmt.Sprintf("unknown descriptor attribute %q", dk.Value),
						Hint:    "descriptors accept key and, for copy fields, unit"}
				}
				return nil
			})
			if err != nil {
				return err
			}
		default:
			return &PolicyError{FileType: ftID, Unit: unit, Field: fs.Field, Line: value.Line,
				Message: "descriptor must be empty, a string or a mapping"}
		}
		out = append(out, fs)
		return nil
	})
	return out, err
}

func parseOverride(ftID, unit string, node *yaml.Node) (*Override, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind == yaml.ScalarNode {
		return &Override{Func: node.Value}, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, &PolicyError{FileType: ftID, Unit: unit, Line: node.Line, Message: "override must be a function name or a mapping"}
	}

	ov := &Override{}
	err := eachPair(node, func(key, value *yaml.Node) error {
		switch key.Value {
		case "func":
			ov.Func = value.Value
		case "key":
			ov.Key = value.Value
		case "pattern":
			ov.Pattern = value.Value
		case "fields":
			names, err := parseFields(ftID, unit, ftmgmt.Computed, value)
			if err != nil {
				return err
			}
			for _, n := range names {
				ov.Fields = append(ov.Fields, n.Field)
			}
		case "consts":
			if value.Kind != yaml.MappingNode {
				return &PolicyError{FileType: ftID, Unit: unit, Line: value.Line, Message: "override consts must be a mapping"}
			}
			return eachPair(value, func(ck, cv *yaml.Node) error {
				var raw any
				if err := cv.Decode(&raw); err != nil {
					return &PolicyError{FileType: ftID, Unit: unit, Field: ck.Value, Line: cv.Line, Message: err.Error()}
				}
				ov.Consts = append(ov.Consts, Const{Name: ck.Value, Value: ftmgmt.ValueOf(raw)})
				return nil
			})
		default:
			return &PolicyError{FileType: ftID, Unit: unit, Line: key.Line, Column: key.Column,
				Message: fmt.Sprintf("unknown override attribute %q", key.Value),
				Hint:    "override accepts func, key, fields, pattern and consts"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ov.Func == "" {
		return nil, &PolicyError{FileType: ftID, Unit: unit, Line: node.Line, Message: "override requires func"}
	}
	return ov, nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	n = deref(n)
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func lookupKey(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return deref(m.Content[i+1])
		}
	}
	return nil
}

// eachPair walks a mapping node in document order.
func eachPair(m *yaml.Node, fn func(key, value *yaml.Node) error) error {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if err := fn(m.Content[i], deref(m.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}
