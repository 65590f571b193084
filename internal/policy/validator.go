package policy

import (
	"strings"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// FunctionSet reports which computed and override functions are available.
// computed.Registry satisfies it.
type FunctionSet interface {
	HasFunc(name string) bool
	HasOverride(name string) bool
}

// BuiltinFilenameFields are derivable from any file name without a pattern.
var BuiltinFilenameFields = []string{"filename", "compression", "fullname", "path"}

// Validate checks that every descriptor in the model carries what its kind
// requires. Fields that can only fail at resolution time (unregistered
// functions, copy units the policy does not declare) are reported as
// warnings. A nil funcs skips the checks against the computed registry.
func Validate(m *Model, funcs FunctionSet) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}
	if m == nil {
		result.AddError("no policy loaded")
		return result
	}

	for _, id := range m.FileTypes() {
		ft, _ := m.FileType(id)
		groups := make(map[string]bool)
		for _, g := range ft.PatternGroups() {
			groups[strings.ToLower(g)] = true
		}

		for _, unit := range ft.Units {
			if unit.Override != nil && funcs != nil && !funcs.HasOverride(unit.Override.Func) {
				result.AddWarning("%s/%s: override function %q is not registered", ft.ID, unit.Name, unit.Override.Func)
			}
			for _, sect := range unit.Sections {
				for _, g := range sect.Groups {
					for _, f := range g.Fields {
						validateField(&result, ft, unit, g.Kind, f, groups, funcs)
					}
				}
			}
		}
	}
	return result
}

func validateField(result *ValidationResult, ft *FileType, unit *Unit, kind ftmgmt.SourceKind,
	f FieldSource, groups map[string]bool, funcs FunctionSet) {
	where := ft.ID + "/" + unit.Name + "/" + f.Field

	if strings.TrimSpace(f.Field) == "" {
		result.AddError("%s/%s: empty field name (line %d)", ft.ID, unit.Name, f.Line)
		return
	}

	switch kind {
	case ftmgmt.FromFilename:
		if !isBuiltinFilenameField(f.Key) && !groups[strings.ToLower(f.Key)] {
			result.AddError("%s: filename field %q is neither a builtin nor a named group of filename_pattern (line %d)",
				where, f.Key, f.Line)
		}
	case ftmgmt.FromConfig:
		if strings.TrimSpace(f.Key) == "" {
			result.AddError("%s: config field requires a configuration path (line %d)", where, f.Line)
		}
	case ftmgmt.FromHeader:
		if !validHeaderKey(f.Key) {
			result.AddError("%s: invalid header key %q (line %d)", where, f.Key, f.Line)
		}
	case ftmgmt.Computed:
		if funcs == nil || funcs.HasFunc(f.Key) {
			return
		}
		if ov := unit.Override; ov != nil && (ov.Func != "compound" || ov.Provides(f.Field)) {
			return
		}
		result.AddWarning("%s: computed function %q is not registered and no override provides it (line %d)",
			where, f.Key, f.Line)
	case ftmgmt.CopyFromUnit:
		if !validHeaderKey(f.Key) {
			result.AddError("%s: invalid header key %q (line %d)", where, f.Key, f.Line)
		}
		if f.Unit == "" {
			result.AddError("%s: copy field requires a source unit (line %d)", where, f.Line)
		} else if ft.Unit(f.Unit) == nil {
			result.AddWarning("%s: copy source unit %q is not declared in %s (line %d)", where, f.Unit, ft.ID, f.Line)
		}
	}
}

func isBuiltinFilenameField(name string) bool {
	for _, b := range BuiltinFilenameFields {
		if strings.EqualFold(b, name) {
			return true
		}
	}
	return false
}

// validHeaderKey accepts standard keywords and HIERARCH long keywords.
func validHeaderKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	if strings.HasPrefix(strings.ToUpper(key), "HIERARCH ") {
		return len(strings.TrimSpace(key[len("HIERARCH "):])) > 0
	}
	for _, r := range key {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
