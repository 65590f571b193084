package resolve

import (
	"context"
	"fmt"

	"github.com/vvka-141/ftmgmt/internal/filename"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Ingested reports for every fullname whether it is already recorded in the
// store. Archives key files either by filename (compression removed, FITS
// extension kept) or by bare filename (FITS extension removed as well); both
// forms are looked up and either one counts. Duplicates share one lookup and
// the store is queried in batches of ftmgmt.ExistenceBatchSize.
func Ingested(ctx context.Context, store ftmgmt.ExistenceStore, fullnames []string) (map[string]bool, error) {
	result := make(map[string]bool, len(fullnames))
	if len(fullnames) == 0 {
		return result, nil
	}

	seen := make(map[string]struct{}, 2*len(fullnames))
	names := make([]string, 0, 2*len(fullnames))
	for _, full := range fullnames {
		for _, name := range storedNames(full) {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	found := make(map[string]bool, len(names))
	for start := 0; start < len(names); start += ftmgmt.ExistenceBatchSize {
		end := min(start+ftmgmt.ExistenceBatchSize, len(names))
		batch, err := store.ExistingFilenames(ctx, names[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to query ingested filenames: %w", err)
		}
		for name, ok := range batch {
			if ok {
				found[name] = true
			}
		}
	}

	for _, full := range fullnames {
		for _, name := range storedNames(full) {
			if found[name] {
				result[full] = true
				break
			}
		}
		if !result[full] {
			result[full] = false
		}
	}
	return result, nil
}

// storedNames returns the forms under which fullname may be recorded:
// its filename and, when different, its bare filename.
func storedNames(fullname string) []string {
	name := filename.Split(fullname).Filename
	bare := filename.Bare(fullname)
	if bare == name {
		return []string{name}
	}
	return []string{name, bare}
}
