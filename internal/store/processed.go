package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediasort/internal/media"
)

// Marker is a persisted "this path was processed" fact.
type Marker struct {
	Path        string
	Category    media.Category
	ProcessedAt time.Time
	RunID       string
}

// Guard answers and records whether a path was already processed. A nil
// Guard, or one without a store, reports nothing as processed and records
// nothing; the organizer runs that way when no database is configured.
type Guard struct {
	store *Store
}

// NewGuard returns a guard backed by s.
func NewGuard(s *Store) *Guard {
	return &Guard{store: s}
}

// Guard returns a ProcessedGuard over the store.
func (s *Store) Guard() *Guard {
	return NewGuard(s)
}

// IsProcessed reports whether path has a processed marker.
func (g *Guard) IsProcessed(ctx context.Context, path string) (bool, error) {
	if g == nil || g.store == nil {
		return false, nil
	}
	ctx = ensureContext(ctx)
	var processed int
	err := retryOnBusy(ctx, func() error {
		return g.store.db.QueryRowContext(ctx,
			"SELECT processed FROM processed_files WHERE file_path = ?", path,
		).Scan(&processed)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check processed marker: %w", err)
	}
	return processed != 0, nil
}

// MarkProcessed records path as processed. Re-marking refreshes the
// timestamp and run id.
func (g *Guard) MarkProcessed(ctx context.Context, path string, category media.Category, runID string) error {
	if g == nil || g.store == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := g.store.execWithRetry(ctx,
		`INSERT INTO processed_files (file_path, category, processed, processed_at, run_id)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			category = excluded.category,
			processed = 1,
			processed_at = excluded.processed_at,
			run_id = excluded.run_id`,
		path, string(category), now, nullableString(runID),
	)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// ProcessedCounts returns the number of processed markers per category.
func (s *Store) ProcessedCounts(ctx context.Context) (map[media.Category]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT category, COUNT(1) FROM processed_files WHERE processed = 1 GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("count processed markers: %w", err)
	}
	defer rows.Close()

	counts := make(map[media.Category]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[media.Category(category)] = n
	}
	return counts, rows.Err()
}

// RecentMarkers returns up to limit markers, newest first.
func (s *Store) RecentMarkers(ctx context.Context, limit int) ([]Marker, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT file_path, category, processed_at, run_id FROM processed_files ORDER BY processed_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list processed markers: %w", err)
	}
	defer rows.Close()

	var markers []Marker
	for rows.Next() {
		var (
			m        Marker
			category string
			at       string
			runID    sql.NullString
		)
		if err := rows.Scan(&m.Path, &category, &at, &runID); err != nil {
			return nil, err
		}
		m.Category = media.Category(category)
		m.RunID = runID.String
		if parsed, err := parseTimeString(at); err == nil {
			m.ProcessedAt = parsed
		}
		markers = append(markers, m)
	}
	return markers, rows.Err()
}
