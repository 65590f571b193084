// Package config loads the YAML configuration document and serves dotted-path
// lookups against it.
//
// The document is decoded into a generic tree (maps, slices, scalars) so every
// section stays addressable by path, whatever its shape:
//
//	filetype_metadata.raw_hsc.filename_pattern
//	list.visits.fullname
//	wrapper.per_file_cmdline
//
// Paths are evaluated with ojg JSONPath child expressions; a path starting
// with '$' is parsed as a full JSONPath expression instead.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ohler55/ojg/jp"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// DefaultFileName is the configuration document looked up when --config is not given.
const DefaultFileName = "ftmgmt.yaml"

// Store is an in-memory configuration tree. It implements ftmgmt.ConfigStore.
// A Store is safe for concurrent reads once overrides have been applied.
type Store struct {
	root map[string]any
	raw  []byte
}

// New wraps an existing tree. A nil root yields an empty store.
func New(root map[string]any) *Store {
	if root == nil {
		root = map[string]any{}
	}
	return &Store{root: root}
}

// Load reads and parses the configuration document at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML configuration document.
func Parse(data []byte) (*Store, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ftmgmt.ErrInvalidConfig, err)
	}
	if root == nil {
		root = map[string]any{}
	}
	s := New(normalize(root).(map[string]any))
	s.raw = data
	return s, nil
}

// Raw returns the document bytes the store was parsed from, if any.
// The policy loader re-reads them to keep declaration order.
func (s *Store) Raw() []byte {
	return s.raw
}

// Root returns the underlying tree.
func (s *Store) Root() map[string]any {
	return s.root
}

// Lookup returns the value at a dotted path. An exact match is tried first,
// then the lower-cased path. Missing paths return ftmgmt.ErrKeyNotFound.
func (s *Store) Lookup(path string) (any, error) {
	x, err := compile(path)
	if err != nil {
		return nil, err
	}
	if results := x.Get(s.root); len(results) > 0 {
		return results[0], nil
	}
	if lower := strings.ToLower(path); lower != path {
		if lx, err := compile(lower); err == nil {
			if results := lx.Get(s.root); len(results) > 0 {
				return results[0], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ftmgmt.ErrKeyNotFound, path)
}

// String returns the scalar at path rendered as a string.
func (s *Store) String(path string) (string, error) {
	v, err := s.Lookup(path)
	if err != nil {
		return "", err
	}
	switch v.(type) {
	case map[string]any, []any:
		return "", fmt.Errorf("%w: %s is not a scalar", ftmgmt.ErrInvalidConfig, path)
	}
	return ftmgmt.ValueOf(v).String(), nil
}

// StringOr returns String(path), or def when the path is absent.
func (s *Store) StringOr(path, def string) string {
	v, err := s.String(path)
	if err != nil {
		return def
	}
	return v
}

// Int returns the integer at path.
func (s *Store) Int(path string) (int, error) {
	v, err := s.Lookup(path)
	if err != nil {
		return 0, err
	}
	i, ok := ftmgmt.ValueOf(v).Int()
	if !ok {
		return 0, fmt.Errorf("%w: %s is not an integer", ftmgmt.ErrInvalidConfig, path)
	}
	return int(i), nil
}

// Section returns the mapping at path.
func (s *Store) Section(path string) (map[string]any, error) {
	v, err := s.Lookup(path)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a section", ftmgmt.ErrInvalidConfig, path)
	}
	return m, nil
}

// Set stores value at a dotted path, creating intermediate sections.
// JSONPath expressions are not accepted here.
func (s *Store) Set(path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("%w: empty path", ftmgmt.ErrInvalidConfig)
	}
	node := s.root
	for i, part := range parts[:len(parts)-1] {
		next, ok := node[part]
		if !ok {
			m := map[string]any{}
			node[part] = m
			node = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: cannot set %s, %s is not a section",
				ftmgmt.ErrInvalidConfig, path, strings.Join(parts[:i+1], "."))
		}
		node = m
	}
	return jp.C(parts[len(parts)-1]).Set(node, normalize(value))
}

// ApplyOverrides sets every key=value pair, decoding each value as a YAML
// scalar so "8" becomes an integer and "true" a boolean. Keys are applied in
// sorted order so that a parent and a child key resolve deterministically.
func (s *Store) ApplyOverrides(overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.Set(k, scalar(overrides[k])); err != nil {
			return err
		}
	}
	return nil
}

func scalar(raw string) any {
	if raw == "" {
		return raw
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case string, int, int64, float64, bool:
		return v
	}
	return raw
}

func compile(path string) (jp.Expr, error) {
	if strings.HasPrefix(path, "$") {
		x, err := jp.ParseString(path)
		if err != nil {
			return nil, fmt.Errorf("invalid config path '%s': %w", path, err)
		}
		return x, nil
	}
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty path", ftmgmt.ErrInvalidConfig)
	}
	x := jp.C(parts[0])
	for _, p := range parts[1:] {
		x = x.C(p)
	}
	return x, nil
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// normalize converts map[any]any nodes (non-string YAML keys) into
// map[string]any so path expressions can address every node.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if child != nil {
				t[k] = normalize(child)
			}
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, child := range t {
			if child != nil {
				child = normalize(child)
			}
			m[fmt.Sprint(k)] = child
		}
		return m
	case []any:
		for i, child := range t {
			if child != nil {
				t[i] = normalize(child)
			}
		}
		return t
	default:
		return v
	}
}
