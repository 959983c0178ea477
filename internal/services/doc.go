// Package services defines shared utilities consumed by the ingest pipeline
// and the external tool wrappers.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, categories, stages, and file paths
//     for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run counters (failed, skipped, unmatched).
//   - The Executor abstraction that makes command execution of exiftool,
//     rsync and touch testable.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across components.
package services
