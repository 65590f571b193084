// Package db opens PostgreSQL connection pools for the existence store.
//
// Connection strings are accepted as PostgreSQL URIs, libpq keyword/value
// strings, or ADO.NET style "Host=...;Database=..." strings. When none is
// given, the standard libpq environment variables are consulted.
package db
