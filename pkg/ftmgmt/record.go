package ftmgmt

import (
	"bytes"
	"encoding/json"
	"strings"
)

// OrderedMap is a string-keyed map that remembers insertion order.
// Setting an existing key replaces its value in place.
// Not safe for concurrent mutation.
type OrderedMap[V any] struct {
	keys []string
	vals map[string]V
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{vals: make(map[string]V)}
}

// Set stores val under key, appending key on first insertion.
func (m *OrderedMap[V]) Set(key string, val V) {
	if m.vals == nil {
		m.vals = make(map[string]V)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = val
}

// Get returns the value stored under key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Lookup is a case-insensitive Get; an exact match wins.
func (m *OrderedMap[V]) Lookup(key string) (V, bool) {
	if v, ok := m.vals[key]; ok {
		return v, true
	}
	for _, k := range m.keys {
		if strings.EqualFold(k, key) {
			return m.vals[k], true
		}
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (m *OrderedMap[V]) Has(key string) bool {
	_, ok := m.vals[key]
	return ok
}

// Delete removes key.
func (m *OrderedMap[V]) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int { return len(m.keys) }

// Range calls fn for each entry in order until fn returns false.
func (m *OrderedMap[V]) Range(fn func(key string, val V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Merge copies every entry of o into m, in o's order. Later writes win.
func (m *OrderedMap[V]) Merge(o *OrderedMap[V]) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		m.Set(k, o.vals[k])
	}
}

// Clone returns a shallow copy of m.
func (m *OrderedMap[V]) Clone() *OrderedMap[V] {
	c := NewOrderedMap[V]()
	c.Merge(m)
	return c
}

// MarshalJSON encodes m as a JSON object with keys in insertion order.
func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Record is the resolved metadata of one file: field name to value,
// in the order fields were first resolved.
type Record = OrderedMap[Value]

// NewRecord returns an empty Record.
func NewRecord() *Record { return NewOrderedMap[Value]() }

// ProvenanceRecord parallels a Record with where each value came from.
type ProvenanceRecord = OrderedMap[Provenance]

// NewProvenanceRecord returns an empty ProvenanceRecord.
func NewProvenanceRecord() *ProvenanceRecord { return NewOrderedMap[Provenance]() }

// Provenance describes where and how a field value was obtained.
// Header-sourced fields carry the card's native type and width, which the
// ingestion layer uses to define columns.
type Provenance struct {
	Source  SourceKind `json:"source"`
	Unit    string     `json:"unit,omitempty"`
	Key     string     `json:"key,omitempty"`
	Type    ValueKind  `json:"type"`
	Width   int        `json:"width,omitempty"`
	Comment string     `json:"comment,omitempty"`
}
