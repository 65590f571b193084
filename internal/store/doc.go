// Package store implements ftmgmt.ExistenceStore: the lookup that tells
// which bare filenames already have a record in the downstream archive.
//
// Three backends are available:
//   - postgres: pgx connection pool, one ANY($1) query per batch
//   - sqlite: database/sql with the pure-Go modernc driver
//   - memory: a fixed set of names, for tests and dry runs
package store
