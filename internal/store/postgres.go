package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/ftmgmt/internal/db"
	"github.com/vvka-141/ftmgmt/internal/retry"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// QueryAttempts bounds retries of one existence query.
const QueryAttempts = 3

// Postgres looks filenames up in a PostgreSQL table.
type Postgres struct {
	pool     *db.Pool
	query    string
	executor *retry.Executor
}

// NewPostgres wraps an open pool. The store owns the pool and closes it.
func NewPostgres(pool *db.Pool, table, column string, logger ftmgmt.Logger) *Postgres {
	col := pgx.Identifier{column}.Sanitize()
	tbl := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	return &Postgres{
		pool:  pool,
		query: fmt.Sprintf("SELECT %s FROM %s WHERE %s = ANY($1)", col, tbl, col),
		executor: retry.NewExecutor(retry.NewStoreErrorClassifier(), retry.NewExponentialBackoff(QueryAttempts)).
			WithLogger(logger, "existence query"),
	}
}

// ExistingFilenames returns the subset of names present in the table.
func (s *Postgres) ExistingFilenames(ctx context.Context, names []string) (map[string]bool, error) {
	if len(names) == 0 {
		return map[string]bool{}, nil
	}
	return retry.Do(ctx, s.executor, func(ctx context.Context) (map[string]bool, error) {
		rows, err := s.pool.Query(ctx, s.query, names)
		if err != nil {
			return nil, err
		}
		found, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, err
		}
		existing := make(map[string]bool, len(found))
		for _, name := range found {
			existing[name] = true
		}
		return existing, nil
	})
}

// Close closes the pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
