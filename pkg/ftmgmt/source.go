package ftmgmt

import "fmt"

// SourceKind is the origin category of a metadata field.
type SourceKind int

const (
	FromFilename SourceKind = iota
	FromConfig
	FromHeader
	Computed
	CopyFromUnit
)

// SourceKinds lists every kind in resolution precedence order.
var SourceKinds = []SourceKind{FromFilename, FromConfig, FromHeader, Computed, CopyFromUnit}

var sourceKindInfo = [...]struct {
	code string
	name string
}{
	FromFilename: {"f", "filename"},
	FromConfig:   {"w", "config"},
	FromHeader:   {"h", "header"},
	Computed:     {"c", "computed"},
	CopyFromUnit: {"p", "copy"},
}

func (k SourceKind) valid() bool { return k >= 0 && int(k) < len(sourceKindInfo) }

// Code returns the single-letter key used in policy documents.
func (k SourceKind) Code() string {
	if !k.valid() {
		return "?"
	}
	return sourceKindInfo[k].code
}

func (k SourceKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
	return sourceKindInfo[k].name
}

// MarshalText implements encoding.TextMarshaler.
func (k SourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseSourceKind maps a policy letter code or a kind name to its SourceKind.
func ParseSourceKind(s string) (SourceKind, bool) {
	for i, info := range sourceKindInfo {
		if s == info.code || s == info.name {
			return SourceKind(i), true
		}
	}
	return 0, false
}
