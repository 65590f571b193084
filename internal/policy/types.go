package policy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Model maps file type ids to their policies.
type Model struct {
	types map[string]*FileType
	ids   []string
}

// FileType looks up a file type by id, case-insensitively.
func (m *Model) FileType(id string) (*FileType, error) {
	if m != nil {
		if ft, ok := m.types[strings.ToLower(id)]; ok {
			return ft, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ftmgmt.ErrUnknownFileType, id)
}

// FileTypes returns the declared file type ids, sorted.
func (m *Model) FileTypes() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, len(m.ids))
	copy(ids, m.ids)
	sort.Strings(ids)
	return ids
}

// Len returns the number of file types.
func (m *Model) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// FileType is the policy of one file type.
type FileType struct {
	ID              string
	FilenamePattern *regexp.Regexp // nil when the file type declares none
	Units           []*Unit
	Line            int
}

// Unit returns the named unit, case-insensitively, or nil.
func (ft *FileType) Unit(name string) *Unit {
	for _, u := range ft.Units {
		if strings.EqualFold(u.Name, name) {
			return u
		}
	}
	return nil
}

// Fields lists every declared field name in declaration order, once each.
func (ft *FileType) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range ft.Units {
		for _, s := range u.Sections {
			for _, g := range s.Groups {
				for _, f := range g.Fields {
					if !seen[f.Field] {
						seen[f.Field] = true
						out = append(out, f.Field)
					}
				}
			}
		}
	}
	return out
}

// PatternGroups returns the named capture groups of the filename pattern.
func (ft *FileType) PatternGroups() []string {
	if ft.FilenamePattern == nil {
		return nil
	}
	var names []string
	for _, n := range ft.FilenamePattern.SubexpNames() {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Unit is a structural unit of a file, typically a FITS HDU.
type Unit struct {
	Name     string
	Override *Override
	Sections []*Section
}

// Section is a named status group (e.g. required, optional) within a unit.
type Section struct {
	Name   string
	Groups []Group
}

// Group holds the fields of one source kind within a section.
type Group struct {
	Kind   ftmgmt.SourceKind
	Fields []FieldSource
}

// FieldSource is one field and its source descriptor.
//
// Key meaning by kind: filename, the pattern group or builtin name;
// config, the dotted configuration path; header and copy, the header key;
// computed, the registered function name. Unit is only used by copy.
type FieldSource struct {
	Field  string
	Key    string
	Unit   string
	Line   int
	Column int
}

// Override describes the per-unit routine that derives several related
// fields at once before the computed group is evaluated.
type Override struct {
	Func    string
	Key     string
	Fields  []string
	Pattern string
	Consts  []Const
}

// Const is a fixed value added to an override's results.
type Const struct {
	Name  string
	Value ftmgmt.Value
}

// Provides reports whether the override declares field among its outputs.
func (o *Override) Provides(field string) bool {
	if o == nil {
		return false
	}
	for _, f := range o.Fields {
		if strings.EqualFold(f, field) {
			return true
		}
	}
	for _, c := range o.Consts {
		if strings.EqualFold(c.Name, field) {
			return true
		}
	}
	return false
}

// defaultKey returns the descriptor an empty declaration stands for.
func defaultKey(kind ftmgmt.SourceKind, field string) string {
	switch kind {
	case ftmgmt.FromHeader, ftmgmt.CopyFromUnit:
		return strings.ToUpper(field)
	case ftmgmt.Computed:
		return strings.ToLower(field)
	default:
		return field
	}
}
