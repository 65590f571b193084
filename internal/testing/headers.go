package testing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// FakeHeaders is an in-memory ftmgmt.HeaderStore.
// Units and keys are matched case-insensitively.
type FakeHeaders struct {
	units  []string
	values map[string]map[string]ftmgmt.Value
	extras map[string]map[string]ftmgmt.HeaderExtra

	mu     sync.Mutex
	closed int
}

// NewFakeHeaders creates an empty store.
func NewFakeHeaders() *FakeHeaders {
	return &FakeHeaders{
		values: make(map[string]map[string]ftmgmt.Value),
		extras: make(map[string]map[string]ftmgmt.HeaderExtra),
	}
}

// Set stores a card, deriving its extra from the value's kind.
func (h *FakeHeaders) Set(unit, key string, v ftmgmt.Value) *FakeHeaders {
	width := 8
	if v.Kind() == ftmgmt.KindString {
		width = len(v.String())
	}
	return h.SetExtra(unit, key, v, ftmgmt.HeaderExtra{Type: v.Kind(), Width: width})
}

// SetExtra stores a card with an explicit extra.
func (h *FakeHeaders) SetExtra(unit, key string, v ftmgmt.Value, extra ftmgmt.HeaderExtra) *FakeHeaders {
	u := strings.ToLower(unit)
	if _, ok := h.values[u]; !ok {
		h.units = append(h.units, unit)
		h.values[u] = make(map[string]ftmgmt.Value)
		h.extras[u] = make(map[string]ftmgmt.HeaderExtra)
	}
	h.values[u][strings.ToUpper(key)] = v
	h.extras[u][strings.ToUpper(key)] = extra
	return h
}

// AddUnit declares a unit with no cards.
func (h *FakeHeaders) AddUnit(unit string) *FakeHeaders {
	u := strings.ToLower(unit)
	if _, ok := h.values[u]; !ok {
		h.units = append(h.units, unit)
		h.values[u] = make(map[string]ftmgmt.Value)
		h.extras[u] = make(map[string]ftmgmt.HeaderExtra)
	}
	return h
}

func (h *FakeHeaders) Value(unit, key string) (ftmgmt.Value, error) {
	vals, ok := h.values[strings.ToLower(unit)]
	if !ok {
		return ftmgmt.Value{}, fmt.Errorf("%w: %s", ftmgmt.ErrUnitNotFound, unit)
	}
	v, ok := vals[strings.ToUpper(key)]
	if !ok {
		return ftmgmt.Value{}, fmt.Errorf("%w: %s in %s", ftmgmt.ErrKeyNotFound, key, unit)
	}
	return v, nil
}

func (h *FakeHeaders) Extra(unit, key string) (ftmgmt.HeaderExtra, error) {
	extras, ok := h.extras[strings.ToLower(unit)]
	if !ok {
		return ftmgmt.HeaderExtra{}, fmt.Errorf("%w: %s", ftmgmt.ErrUnitNotFound, unit)
	}
	e, ok := extras[strings.ToUpper(key)]
	if !ok {
		return ftmgmt.HeaderExtra{}, fmt.Errorf("%w: %s in %s", ftmgmt.ErrKeyNotFound, key, unit)
	}
	return e, nil
}

func (h *FakeHeaders) Units() []string {
	out := make([]string, len(h.units))
	copy(out, h.units)
	return out
}

func (h *FakeHeaders) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return nil
}

// Closed returns how many times Close was called.
func (h *FakeHeaders) Closed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// FakeOpener serves FakeHeaders by path. Unknown paths fail with ftmgmt.ErrFileNotFound.
type FakeOpener struct {
	mu    sync.Mutex
	files map[string]*FakeHeaders
	opens map[string]int
}

// NewFakeOpener creates an opener with no files.
func NewFakeOpener() *FakeOpener {
	return &FakeOpener{files: make(map[string]*FakeHeaders), opens: make(map[string]int)}
}

// Add registers headers for path.
func (o *FakeOpener) Add(path string, h *FakeHeaders) *FakeOpener {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files[path] = h
	return o
}

// Open implements ftmgmt.HeaderOpener.
func (o *FakeOpener) Open(path string) (ftmgmt.HeaderStore, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	h, ok := o.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ftmgmt.ErrFileNotFound, path)
	}
	o.opens[path]++
	return h, nil
}

// Opens returns how many times path was opened.
func (o *FakeOpener) Opens(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens[path]
}
