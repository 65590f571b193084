// Package computed holds the functions that derive metadata values no single
// header card carries, and the per-unit override routines that derive several
// related values at once.
//
// Functions are registered explicitly by lower-cased name; Default returns a
// registry with the builtins.
package computed

import (
	"sort"
	"strings"
	"sync"

	"github.com/vvka-141/ftmgmt/internal/policy"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// OverrideFunc derives a set of field values for one unit of an open file.
// It may return partial results together with an error.
type OverrideFunc func(hdr ftmgmt.HeaderStore, unit string, spec *policy.Override) (map[string]ftmgmt.Value, error)

// Registry maps names to computed and override functions.
// Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	funcs     map[string]ftmgmt.ComputedFunc
	overrides map[string]OverrideFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs:     make(map[string]ftmgmt.ComputedFunc),
		overrides: make(map[string]OverrideFunc),
	}
}

// Default returns a registry with every builtin function and override.
func Default() *Registry {
	r := NewRegistry()
	r.Register("filename", Filename)
	r.Register("compression", Compression)
	r.Register("band", Band)
	r.Register("nite", Nite)
	r.Register("pointing", Pointing)
	r.Register("field", Field)
	r.Register("md5sum", MD5Sum)
	r.Register("filesize", FileSize)
	r.RegisterOverride("compound", Compound)
	return r
}

// Register adds or replaces a computed function.
func (r *Registry) Register(name string, fn ftmgmt.ComputedFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[strings.ToLower(name)] = fn
}

// RegisterOverride adds or replaces an override function.
func (r *Registry) RegisterOverride(name string, fn OverrideFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[strings.ToLower(name)] = fn
}

// Func looks up a computed function by name, case-insensitively.
func (r *Registry) Func(name string) (ftmgmt.ComputedFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[strings.ToLower(name)]
	return fn, ok
}

// Override looks up an override function by name, case-insensitively.
func (r *Registry) Override(name string) (OverrideFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.overrides[strings.ToLower(name)]
	return fn, ok
}

// HasFunc implements policy.FunctionSet.
func (r *Registry) HasFunc(name string) bool {
	_, ok := r.Func(name)
	return ok
}

// HasOverride implements policy.FunctionSet.
func (r *Registry) HasOverride(name string) bool {
	_, ok := r.Override(name)
	return ok
}

// Names returns the registered computed function names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
