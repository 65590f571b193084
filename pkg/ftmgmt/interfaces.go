package ftmgmt

import "context"

// HeaderExtra is the native format of a header card: its value type,
// its width in characters (strings) or bytes (numbers), and its comment.
type HeaderExtra struct {
	Type    ValueKind
	Width   int
	Comment string
}

// HeaderStore gives read access to the headers of one opened file.
// Units are structural subdivisions of the file (HDUs for FITS).
type HeaderStore interface {
	// Value returns the value of key in unit.
	// Returns ErrKeyNotFound or ErrUnitNotFound when absent.
	Value(unit, key string) (Value, error)

	// Extra returns the native format descriptor of key in unit.
	Extra(unit, key string) (HeaderExtra, error)

	// Units lists the unit names in file order.
	Units() []string

	// Close releases the underlying file.
	Close() error
}

// HeaderOpener opens files for header access.
type HeaderOpener interface {
	Open(path string) (HeaderStore, error)
}

// ConfigStore is a hierarchical configuration lookup keyed by dotted paths.
type ConfigStore interface {
	// Lookup returns the raw value at path (scalar, []any or map[string]any).
	// Returns ErrKeyNotFound when absent.
	Lookup(path string) (any, error)
}

// ComputedFunc derives a field value from a file and its headers.
// It returns ErrNotDerivable (or ErrKeyNotFound) when this file's data does
// not support the computation.
type ComputedFunc func(path string, hdr HeaderStore, unit string) (Value, error)

// ExistenceStore answers which bare filenames already have a record downstream.
type ExistenceStore interface {
	// ExistingFilenames returns the subset of names present in the store.
	ExistingFilenames(ctx context.Context, names []string) (map[string]bool, error)

	// Close releases store resources.
	Close() error
}
