package filesystem

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/vvka-141/ftmgmt/internal/filename"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
type FileInfo = fs.FileInfo

// File is one entry met while walking a directory.
type File interface {
	// Path returns the full path of the entry
	Path() string

	// RelativePath returns the path relative to the walk root
	RelativePath() string

	// Info returns entry metadata
	Info() FileInfo
}

// Provider is the file access used by list reading, input collection and
// configuration loading.
type Provider interface {
	// ReadFile reads a whole file. Missing files fail with ftmgmt.ErrFileNotFound.
	ReadFile(path string) ([]byte, error)

	// Stat returns file information for the given path
	Stat(path string) (FileInfo, error)

	// Exists reports whether path names an existing file or directory
	Exists(path string) bool

	// Walk visits root and everything below it in lexical order.
	// If fn returns an error, walking stops.
	Walk(root string, fn func(File, error) error) error
}

// CollectDataFiles expands the given paths into FITS data files. Files are
// kept as given; directories are walked and every FITS file below them is
// returned in lexical order. A missing path is an error.
func CollectDataFiles(p Provider, paths []string) ([]string, error) {
	var out []string
	for _, arg := range paths {
		info, err := p.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to access input %s: %w", arg, err)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}

		var found []string
		err = p.Walk(arg, func(f File, err error) error {
			if err != nil {
				return err
			}
			if !f.Info().IsDir() && filename.IsFITS(f.Path()) {
				found = append(found, f.Path())
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}
