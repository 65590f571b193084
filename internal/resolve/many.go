package resolve

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Result is the outcome of resolving one file in a batch.
type Result struct {
	Path       string
	Record     *ftmgmt.Record
	Provenance *ftmgmt.ProvenanceRecord
	Err        error
}

// ResolveMany resolves paths concurrently with at most parallelism files in
// flight. Results are returned in input order; a failing file records its
// error in its Result and does not stop the batch. The returned error is
// non-nil only for an unknown file type or a cancelled context.
func (e *Engine) ResolveMany(ctx context.Context, paths []string, fileType string, parallelism int) ([]Result, error) {
	if _, err := e.Plan(fileType); err != nil {
		return nil, err
	}
	if parallelism <= 0 {
		parallelism = ftmgmt.DefaultResolveParallelism
	}

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			rec, prov, err := e.Resolve(gctx, path, fileType)
			results[i] = Result{Path: path, Record: rec, Provenance: prov, Err: err}
			if err != nil && gctx.Err() == nil {
				e.logger.Error("Failed to resolve %s: %v", path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
