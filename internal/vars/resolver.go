package vars

import (
	"errors"
	"fmt"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// SearchObject supplies values that take precedence over the configuration
// store, such as the fields of one list line. *ftmgmt.Record satisfies it.
type SearchObject interface {
	Lookup(name string) (ftmgmt.Value, bool)
}

// Options controls a substitution.
type Options struct {
	// ReplaceVars enables substitution; when false templates pass through untouched.
	ReplaceVars bool
	// Expand re-resolves substituted values that contain placeholders themselves.
	Expand bool
	// KeepVars leaves unresolvable placeholders as literal text instead of failing.
	KeepVars bool
	// SearchObj is consulted before the configuration store.
	SearchObj SearchObject
	// MaxDepth bounds recursive expansion; 0 means ftmgmt.DefaultExpandDepth.
	MaxDepth int
}

// DefaultOptions enables substitution with recursive expansion.
func DefaultOptions() Options {
	return Options{ReplaceVars: true, Expand: true}
}

// With returns a copy of o using obj as the search object.
func (o Options) With(obj SearchObject) Options {
	o.SearchObj = obj
	return o
}

// Resolver substitutes placeholders against a configuration store.
// Safe for concurrent use when the store is.
type Resolver struct {
	cfg ftmgmt.ConfigStore
}

// NewResolver creates a Resolver. cfg may be nil, in which case only search
// objects supply values.
func NewResolver(cfg ftmgmt.ConfigStore) *Resolver {
	return &Resolver{cfg: cfg}
}

// Replace substitutes every placeholder in template and returns all expansions.
func (r *Resolver) Replace(template string, opts Options) ([]string, error) {
	if !opts.ReplaceVars {
		return []string{template}, nil
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = ftmgmt.DefaultExpandDepth
	}
	return r.replace(template, opts, 0, maxDepth)
}

// ReplaceSingle is Replace for templates that must yield exactly one string.
func (r *Resolver) ReplaceSingle(template string, opts Options) (string, error) {
	out, err := r.Replace(template, opts)
	if err != nil {
		return "", err
	}
	if len(out) != 1 {
		return "", fmt.Errorf("%w: %q expanded to %d values", ftmgmt.ErrMultipleValues, template, len(out))
	}
	return out[0], nil
}

// Value resolves a single variable name to its typed value, consulting the
// search object and then the store. Missing names return ftmgmt.ErrKeyNotFound.
func (r *Resolver) Value(name string, obj SearchObject) (ftmgmt.Value, error) {
	vals, err := r.lookup(name, obj)
	if err != nil {
		return ftmgmt.Value{}, err
	}
	if len(vals) != 1 {
		return ftmgmt.Value{}, fmt.Errorf("%w: %s holds %d values", ftmgmt.ErrMultipleValues, name, len(vals))
	}
	return vals[0], nil
}

func (r *Resolver) replace(template string, opts Options, depth, maxDepth int) ([]string, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: %q after %d expansions", ftmgmt.ErrExpansionDepth, template, maxDepth)
	}
	placeholders := Detect(template)
	if len(placeholders) == 0 {
		return []string{template}, nil
	}

	results := []string{""}
	pos := 0
	for _, p := range placeholders {
		literal := template[pos:p.StartPos]
		pos = p.EndPos

		texts, err := r.substitute(p, template, opts, depth, maxDepth)
		if err != nil {
			return nil, err
		}

		next := make([]string, 0, len(results)*len(texts))
		for _, prefix := range results {
			for _, text := range texts {
				next = append(next, prefix+literal+text)
			}
		}
		results = next
	}
	for i := range results {
		results[i] += template[pos:]
	}
	return results, nil
}

// substitute returns the replacement texts for one placeholder.
func (r *Resolver) substitute(p Placeholder, template string, opts Options, depth, maxDepth int) ([]string, error) {
	vals, err := r.lookup(p.Name, opts.SearchObj)
	if err != nil {
		if !errors.Is(err, ftmgmt.ErrKeyNotFound) {
			return nil, err
		}
		switch {
		case p.Optional:
			return []string{""}, nil
		case opts.KeepVars:
			return []string{p.Raw}, nil
		}
		return nil, &UnresolvedError{
			Name:     p.Name,
			Template: template,
			Hint:     fmt.Sprintf("define %s in the configuration or pass --param %s=<value>", p.Name, p.Name),
		}
	}

	var texts []string
	for _, v := range vals {
		text := format(v, p.Width)
		if opts.Expand && HasPlaceholders(text) {
			expanded, err := r.replace(text, opts, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			texts = append(texts, expanded...)
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func (r *Resolver) lookup(name string, obj SearchObject) ([]ftmgmt.Value, error) {
	if obj != nil {
		if v, ok := obj.Lookup(name); ok {
			return []ftmgmt.Value{v}, nil
		}
	}
	if r.cfg == nil {
		return nil, fmt.Errorf("%w: %s", ftmgmt.ErrKeyNotFound, name)
	}
	raw, err := r.cfg.Lookup(name)
	if err != nil {
		return nil, err
	}
	switch t := raw.(type) {
	case []any:
		vals := make([]ftmgmt.Value, 0, len(t))
		for _, item := range t {
			if _, nested := item.(map[string]any); nested {
				return nil, fmt.Errorf("%w: %s contains a section, not a value", ftmgmt.ErrInvalidConfig, name)
			}
			vals = append(vals, ftmgmt.ValueOf(item))
		}
		if len(vals) == 0 {
			return nil, fmt.Errorf("%w: %s is an empty list", ftmgmt.ErrKeyNotFound, name)
		}
		return vals, nil
	case map[string]any:
		return nil, fmt.Errorf("%w: %s is a section, not a value", ftmgmt.ErrInvalidConfig, name)
	}
	return []ftmgmt.Value{ftmgmt.ValueOf(raw)}, nil
}

func format(v ftmgmt.Value, width int) string {
	if width > 0 {
		if i, ok := v.Int(); ok {
			if i < 0 {
				return "-" + fmt.Sprintf("%0*d", width, -i)
			}
			return fmt.Sprintf("%0*d", width, i)
		}
	}
	return v.String()
}
