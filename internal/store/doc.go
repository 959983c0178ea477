// Package store persists media records and processed markers in SQLite.
//
// One table per media category holds the enriched records; processed_files
// holds the idempotency markers consulted before any expensive per-file work.
// Table names come from a fixed enum and every statement uses positional
// parameters, so no identifier ever originates from external input.
//
// There is no migration path. A fresh database receives the current schema;
// a database carrying a different schema_version is rejected with
// ErrSchemaMismatch and must be recreated.
package store
