// Package ingest drives a metadata scan over the configured source
// directories.
//
// For every category it walks the sources depth-first, skips files the
// processed guard already knows, resolves a capture date, sanitizes the
// metadata document into a payload and hands the reconciler's plan to a batch
// writer. Per-file problems are counted and logged; only context
// cancellation stops a run early.
package ingest
