package listfile

import (
	"fmt"
	"strings"

	"github.com/vvka-141/ftmgmt/internal/files/filesystem"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Supported list formats.
const (
	FormatConfig = "config"
	FormatWCL    = "wcl"
	FormatYAML   = "yaml"
	FormatHCL    = "hcl"
	FormatCSV    = "textcsv"
	FormatTab    = "texttab"
	FormatSpace  = "textsp"
)

// DefaultFormat is used when a list section names no format.
const DefaultFormat = FormatSpace

type parser func(data []byte, columns []string) ([]*Record, error)

var parsers = map[string]parser{
	FormatConfig: parseYAML,
	FormatWCL:    parseYAML,
	FormatYAML:   parseYAML,
	FormatHCL:    parseHCL,
	FormatCSV:    delimited(","),
	FormatTab:    delimited("\t"),
	FormatSpace:  delimited(" "),
}

// Formats returns the supported format names.
func Formats() []string {
	return []string{FormatConfig, FormatWCL, FormatYAML, FormatHCL, FormatCSV, FormatTab, FormatSpace}
}

// Read loads the list file at path in one read and parses it.
func Read(fs filesystem.Provider, path, format string, columns []string) ([]*Record, error) {
	p, err := lookup(format)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read list file %s: %w", path, err)
	}
	records, err := p(data, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to parse list file %s: %w", path, err)
	}
	return records, nil
}

// ReadBytes parses list data already in memory.
func ReadBytes(data []byte, format string, columns []string) ([]*Record, error) {
	p, err := lookup(format)
	if err != nil {
		return nil, err
	}
	return p(data, columns)
}

func lookup(format string) (parser, error) {
	if format == "" {
		format = DefaultFormat
	}
	p, ok := parsers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			ftmgmt.ErrUnsupportedListFormat, format, strings.Join(Formats(), ", "))
	}
	return p, nil
}

// ParseColumns splits a column specification such as "filename, ccd" into
// names. Names are lower-cased unless keepCase is set.
func ParseColumns(spec string, keepCase bool) []string {
	fields := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !keepCase {
			f = strings.ToLower(f)
		}
		out = append(out, f)
	}
	return out
}

// LineName returns the record name of the n-th (1-based) flat line.
func LineName(n int) string {
	return fmt.Sprintf("line%05d", n)
}
