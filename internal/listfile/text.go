package listfile

import (
	"strings"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// delimited returns a parser for one-record-per-line text split on sep.
// Tokens are trimmed; for space separated lines runs of blanks count as one
// separator.
func delimited(sep string) parser {
	return func(data []byte, columns []string) ([]*Record, error) {
		var records []*Record
		text := strings.ReplaceAll(string(data), "\r\n", "\n")
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			fields := ftmgmt.NewRecord()
			for i, tok := range split(line, sep) {
				if i >= len(columns) {
					break
				}
				fields.Set(columns[i], ftmgmt.StringValue(tok))
			}
			rec := NewRecord(LineName(len(records) + 1))
			rec.SetUnit(FlatUnit, fields)
			records = append(records, rec)
		}
		return records, nil
	}
}

func split(line, sep string) []string {
	if sep == " " {
		return strings.Fields(line)
	}
	parts := strings.Split(line, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
