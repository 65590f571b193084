package cmdline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/vvka-141/ftmgmt/internal/listfile"
	"github.com/vvka-141/ftmgmt/internal/vars"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Wrapper settings.
const (
	SettingPerFile = "per_file_cmdline"
	SettingAdd     = "add_cmdline"
	SettingBase    = "base_cmdline"
)

const (
	sectList = "list"
	sectFile = "file"
)

var joinPattern = regexp.MustCompile(`^'([^']*)'\.join\(([^)]+)\)`)

// Wrapper holds the templates of the configuration's wrapper section.
type Wrapper struct {
	PerFile string
	Add     string
	Base    string
}

// WrapperFromConfig reads wrapper.per_file_cmdline, wrapper.add_cmdline and
// wrapper.base_cmdline. Absent settings stay empty.
func WrapperFromConfig(cfg ftmgmt.ConfigStore) Wrapper {
	get := func(name string) string {
		v, err := cfg.Lookup("wrapper." + name)
		if err != nil || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
	return Wrapper{PerFile: get(SettingPerFile), Add: get(SettingAdd), Base: get(SettingBase)}
}

// Expander expands wrapper templates against list records.
type Expander struct {
	resolver *vars.Resolver
	lists    ListSource
	logger   ftmgmt.Logger
}

// New creates an Expander.
func New(resolver *vars.Resolver, lists ListSource, logger ftmgmt.Logger) *Expander {
	return &Expander{resolver: resolver, lists: lists, logger: logger}
}

// Build appends the wrapper's extra arguments to base. On error the base is
// returned unmodified together with the error.
func (e *Expander) Build(ctx context.Context, base string, w Wrapper) (string, error) {
	e.logger.Verbose("pre cmdline changes: %q", base)
	switch {
	case w.PerFile != "":
		frag, err := e.PerLine(ctx, w.PerFile)
		if err != nil {
			return base, err
		}
		if frag == "" {
			return base, nil
		}
		return base + " " + frag, nil
	case w.Add != "":
		add, err := e.resolver.ReplaceSingle(w.Add, vars.DefaultOptions())
		if err != nil {
			return base, &TemplateError{Setting: SettingAdd, Template: w.Add, Err: err}
		}
		e.logger.Verbose("add_cmdline = %s", add)
		joined, err := e.Join(ctx, add)
		if err != nil {
			return base, err
		}
		return base + joined, nil
	}
	return base, nil
}

// PerLine expands spec, of the form list.<list>.<unit>:<pattern>, once per
// list line and returns the space-joined fragments in file order. The
// pattern may use $(name) or ${name}; names resolve against the line's unit
// first and the configuration second.
func (e *Expander) PerLine(ctx context.Context, spec string) (string, error) {
	target, pattern, ok := strings.Cut(spec, ":")
	if !ok {
		return "", &TemplateError{Setting: SettingPerFile, Template: spec, Err: ftmgmt.ErrInvalidConfig,
			Hint: "use list.<list>.<unit>:<pattern>"}
	}
	keys := strings.Split(target, ".")
	switch {
	case strings.EqualFold(keys[0], sectFile):
		return "", &TemplateError{Setting: SettingPerFile, Template: spec, Err: ftmgmt.ErrNotImplemented,
			Hint: "per_file_cmdline works on list sections only"}
	case !strings.EqualFold(keys[0], sectList):
		return "", &TemplateError{Setting: SettingPerFile, Template: spec, Err: ftmgmt.ErrInvalidSection}
	case len(keys) != 3:
		return "", &TemplateError{Setting: SettingPerFile, Template: spec, Err: ftmgmt.ErrInvalidConfig,
			Hint: "name the list and the unit: list.<list>.<unit>"}
	}
	list, unit := keys[1], keys[2]

	records, err := e.lists.Records(ctx, list)
	if err != nil {
		return "", err
	}

	pattern = vars.ParensToBraces(pattern)
	frags := make([]string, 0, len(records))
	for _, rec := range records {
		fields, err := pickUnit(rec, unit, target)
		if err != nil {
			return "", err
		}
		frag, err := e.resolver.ReplaceSingle(pattern, vars.DefaultOptions().With(fields))
		if err != nil {
			return "", fmt.Errorf("%s %s: %w", SettingPerFile, rec.Name, err)
		}
		frags = append(frags, frag)
	}
	return strings.Join(frags, " "), nil
}

// Join evaluates '<sep>'.join(list.<list>.<unit>.<field>): the distinct
// values of field across all lines, sorted, joined with sep.
func (e *Expander) Join(ctx context.Context, template string) (string, error) {
	m := joinPattern.FindStringSubmatch(template)
	if m == nil {
		return "", &TemplateError{Setting: SettingAdd, Template: template, Err: ftmgmt.ErrNotImplemented,
			Hint: "only '<sep>'.join(list.<list>.<unit>.<field>) is supported"}
	}
	sep, what := m[1], m[2]

	keys := strings.Split(what, ".")
	switch {
	case strings.EqualFold(keys[0], sectFile):
		return "", &TemplateError{Setting: SettingAdd, Template: template, Err: ftmgmt.ErrNotImplemented,
			Hint: "add_cmdline works on list sections only"}
	case !strings.EqualFold(keys[0], sectList):
		return "", &TemplateError{Setting: SettingAdd, Template: template, Err: ftmgmt.ErrInvalidSection}
	case len(keys) != 4:
		return "", &TemplateError{Setting: SettingAdd, Template: template, Err: ftmgmt.ErrInvalidConfig,
			Hint: "name the list, the unit and the field: list.<list>.<unit>.<field>"}
	}
	list, unit, field := keys[1], keys[2], keys[3]
	e.logger.Verbose("list %s file %s value %s", list, unit, field)

	records, err := e.lists.Records(ctx, list)
	if err != nil {
		return "", err
	}

	seen := make(map[string]struct{})
	var values []ftmgmt.Value
	for _, rec := range records {
		fields, err := pickUnit(rec, unit, what)
		if err != nil {
			return "", err
		}
		v, ok := fields.Lookup(field)
		if !ok {
			return "", fmt.Errorf("%w: %s in %s of %s", ftmgmt.ErrFieldNotFound, field, unit, rec.Name)
		}
		key := v.Kind().String() + ":" + v.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		values = append(values, v)
	}
	sort.SliceStable(values, func(i, j int) bool { return values[i].Compare(values[j]) < 0 })

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	e.logger.Verbose("joinvals = %v", parts)
	return strings.Join(parts, sep), nil
}

// pickUnit selects the named sub-unit of a line, or its only sub-unit.
func pickUnit(rec *listfile.Record, unit, target string) (*ftmgmt.Record, error) {
	if fields, ok := rec.Unit(unit); ok {
		return fields, nil
	}
	units := rec.Units()
	if len(units) == 1 {
		fields, _ := rec.Unit(units[0])
		return fields, nil
	}
	return nil, fmt.Errorf("%w: cannot find file %s in %s of %s (units: %s)",
		ftmgmt.ErrAmbiguousUnit, unit, rec.Name, target, strings.Join(units, ", "))
}

// IsTemplateError reports whether err came from an unusable wrapper template.
func IsTemplateError(err error) bool {
	var te *TemplateError
	return errors.As(err, &te)
}
