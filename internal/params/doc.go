// Package params collects configuration overrides from the command line and
// from .env-style params files.
//
// Overrides are dotted configuration paths mapped to string values:
//
//	resolve.parallelism=8
//	store.dsn=postgres://ops@db/archive
//
// Sources are layered with Merge; later layers win, so the CLI passes
// params files first and --param pairs last.
package params
