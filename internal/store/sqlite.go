package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// SQLite looks filenames up in a table of a local SQLite database.
type SQLite struct {
	db     *sql.DB
	table  string
	column string
}

// OpenSQLite opens path read-only and checks that it is reachable.
func OpenSQLite(ctx context.Context, path, table, column string) (*SQLite, error) {
	dsn := path
	if !strings.Contains(path, "?") && path != ":memory:" {
		// mode is only honoured in URI form.
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %v", ftmgmt.ErrStoreUnavailable, path, err)
	}
	db.SetMaxOpenConns(2)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: open sqlite %s: %v", ftmgmt.ErrStoreUnavailable, path, err)
	}
	return NewSQLite(db, table, column), nil
}

// NewSQLite wraps an open database handle. The store owns db and closes it.
func NewSQLite(db *sql.DB, table, column string) *SQLite {
	return &SQLite{db: db, table: quoteIdent(table), column: quoteIdent(column)}
}

// ExistingFilenames returns the subset of names present in the table.
func (s *SQLite) ExistingFilenames(ctx context.Context, names []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(names) == 0 {
		return existing, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)", s.column, s.table, s.column, placeholders)
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ftmgmt.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		existing[name] = true
	}
	return existing, rows.Err()
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
