// Package filename splits archive file names into their conventional parts
// and applies a file type's naming pattern to them.
//
// A full name such as /archive/raw/HSC-0012345-042.fits.fz splits into
//
//	path        /archive/raw
//	filename    HSC-0012345-042.fits   (compression removed)
//	compression .fz
//
// and its bare filename, the record identity, is HSC-0012345-042 (path,
// compression suffix and FITS extension removed).
package filename

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// CompressionSuffixes are recognised compression extensions, longest match wins.
var CompressionSuffixes = []string{".fz", ".gz", ".bz2", ".zst", ".Z"}

// FITSExtensions are stripped when deriving the bare filename.
var FITSExtensions = []string{".fits", ".fit", ".fts"}

// Parts is a full name split into its conventional components.
type Parts struct {
	Fullname    string
	Path        string
	Filename    string
	Compression string
}

// Split separates the directory and the compression suffix from fullname.
func Split(fullname string) Parts {
	p := Parts{Fullname: fullname}
	dir, base := filepath.Split(fullname)
	p.Path = strings.TrimSuffix(dir, string(filepath.Separator))
	if p.Path == "" && dir != "" {
		p.Path = dir
	}
	p.Filename = base
	for _, suffix := range CompressionSuffixes {
		if strings.HasSuffix(base, suffix) && len(base) > len(suffix) {
			p.Filename = strings.TrimSuffix(base, suffix)
			p.Compression = suffix
			break
		}
	}
	return p
}

// Bare returns the record identity of fullname: the base name with compression
// suffix and FITS extension removed. Compressed and uncompressed variants of
// one file share a bare filename.
func Bare(fullname string) string {
	name := Split(fullname).Filename
	lower := strings.ToLower(name)
	for _, ext := range FITSExtensions {
		if strings.HasSuffix(lower, ext) && len(name) > len(ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// IsFITS reports whether fullname names a FITS file, compressed or not.
func IsFITS(fullname string) bool {
	return Bare(fullname) != Split(fullname).Filename
}

// Info is a parsed file name: its parts plus the named groups captured by a
// file type's filename pattern.
type Info struct {
	Parts
	Matched bool
	groups  map[string]string
}

// Parse splits fullname and applies pattern to its filename. A nil pattern
// yields only the builtin parts. Matched reports whether pattern matched.
func Parse(fullname string, pattern *regexp.Regexp) *Info {
	info := &Info{Parts: Split(fullname), groups: make(map[string]string)}
	if pattern == nil {
		return info
	}
	m := pattern.FindStringSubmatch(info.Filename)
	if m == nil {
		return info
	}
	info.Matched = true
	for i, name := range pattern.SubexpNames() {
		if name != "" && i < len(m) {
			info.groups[strings.ToLower(name)] = m[i]
		}
	}
	return info
}

// Value returns a builtin part or a captured group by name, case-insensitively.
// Captured groups shadow builtins of the same name.
func (i *Info) Value(name string) (ftmgmt.Value, bool) {
	key := strings.ToLower(name)
	if v, ok := i.groups[key]; ok {
		return ftmgmt.StringValue(v), true
	}
	switch key {
	case "filename":
		return ftmgmt.StringValue(i.Filename), true
	case "compression":
		if i.Compression == "" {
			return ftmgmt.Value{}, true
		}
		return ftmgmt.StringValue(i.Compression), true
	case "fullname":
		return ftmgmt.StringValue(i.Fullname), true
	case "path":
		return ftmgmt.StringValue(i.Path), true
	}
	return ftmgmt.Value{}, false
}
