package listfile

import (
	"bytes"
	"encoding/json"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// FlatUnit is the sub-unit name flat text lines are stored under.
const FlatUnit = "file"

// Record is one line of a list file: its sub-units in file order, each
// holding that unit's fields.
type Record struct {
	Name  string
	units *ftmgmt.OrderedMap[*ftmgmt.Record]
}

// NewRecord creates an empty line record.
func NewRecord(name string) *Record {
	return &Record{Name: name, units: ftmgmt.NewOrderedMap[*ftmgmt.Record]()}
}

// SetUnit stores the fields of one sub-unit.
func (r *Record) SetUnit(unit string, fields *ftmgmt.Record) {
	r.units.Set(unit, fields)
}

// Unit returns the fields of the named sub-unit.
func (r *Record) Unit(name string) (*ftmgmt.Record, bool) {
	return r.units.Get(name)
}

// Units returns the sub-unit names in file order.
func (r *Record) Units() []string {
	return r.units.Keys()
}

// MarshalJSON renders {"name": ..., "file": {unit: {field: value}}}.
func (r *Record) MarshalJSON() ([]byte, error) {
	units, err := r.units.MarshalJSON()
	if err != nil {
		return nil, err
	}
	name, err := json.Marshal(r.Name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"name":`)
	buf.Write(name)
	buf.WriteString(`,"file":`)
	buf.Write(units)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
