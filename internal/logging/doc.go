// Package logging assembles structured slog loggers and formatting helpers used
// across mediasort.
//
// It owns the console and JSON handlers, tees console output into a per-run
// JSON log under paths.log_dir, and exposes context-aware helpers so pipeline
// code tags log lines with run IDs, categories and file paths. Console output
// is colorized only on terminals. A no-op logger serves tests and wiring code
// that cannot fail.
package logging
