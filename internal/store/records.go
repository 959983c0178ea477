package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mediasort/internal/media"
	"mediasort/internal/metadata"
	"mediasort/internal/services"
)

// Table is one of the fixed per-category record tables.
type Table string

const (
	TablePhotos    Table = "Photos"
	TableVideos    Table = "Videos"
	TableAudio     Table = "Audio"
	TableDocuments Table = "Documents"
)

var categoryTables = map[media.Category]Table{
	media.CategoryPhotos:    TablePhotos,
	media.CategoryVideos:    TableVideos,
	media.CategoryAudio:     TableAudio,
	media.CategoryDocuments: TableDocuments,
}

// statements holds the per-table templates built once from the fixed table
// enum and the closed field set.
type statements struct {
	lookup string
	count  string
}

var (
	recordColumns   = columnList()
	tableStatements = buildStatements()
)

func columnList() string {
	fields := metadata.Fields()
	cols := make([]string, 0, len(fields)+1)
	cols = append(cols, "id")
	for _, f := range fields {
		cols = append(cols, f.Column())
	}
	return strings.Join(cols, ", ")
}

func buildStatements() map[Table]statements {
	out := make(map[Table]statements, len(categoryTables))
	for _, table := range categoryTables {
		out[table] = statements{
			lookup: fmt.Sprintf("SELECT %s FROM %s WHERE file_name = ? ORDER BY id LIMIT 1", recordColumns, table),
			count:  fmt.Sprintf("SELECT COUNT(1) FROM %s", table),
		}
	}
	return out
}

// TableFor maps a category to its record table.
func TableFor(category media.Category) (Table, error) {
	table, ok := categoryTables[category]
	if !ok {
		return "", fmt.Errorf("no record table for category %q", category)
	}
	return table, nil
}

// Record is a stored row. Values holds the raw column values as returned by
// the driver (string, int64, float64 or nil) keyed by field.
type Record struct {
	ID       int64
	Category media.Category
	Values   map[metadata.Field]any
}

// Value returns the stored value for f; absent columns and NULL both yield nil.
func (r *Record) Value(f metadata.Field) any {
	if r == nil {
		return nil
	}
	return r.Values[f]
}

// Lookup returns the first record named fileName in the category table, or
// nil when none exists.
func (s *Store) Lookup(ctx context.Context, category media.Category, fileName string) (*Record, error) {
	ctx = ensureContext(ctx)
	table, err := TableFor(category)
	if err != nil {
		return nil, err
	}
	fields := metadata.Fields()
	raw := make([]any, len(fields))
	dest := make([]any, 0, len(fields)+1)
	var id int64
	dest = append(dest, &id)
	for i := range raw {
		dest = append(dest, &raw[i])
	}

	err = retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, tableStatements[table].lookup, fileName).Scan(dest...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s record %q: %w", table, fileName, err)
	}

	record := &Record{ID: id, Category: category, Values: make(map[metadata.Field]any, len(fields))}
	for i, f := range fields {
		if b, ok := raw[i].([]byte); ok {
			raw[i] = string(b)
		}
		record.Values[f] = raw[i]
	}
	return record, nil
}

// Insert writes a new record and returns its id. The payload must carry
// file_name.
func (s *Store) Insert(ctx context.Context, category media.Category, payload metadata.Payload) (int64, error) {
	table, err := TableFor(category)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(payload.Text(metadata.FieldFileName)) == "" {
		return 0, fmt.Errorf("insert %s record: file_name is required", table)
	}
	fields := payload.Fields()
	cols := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = f.Column()
		args[i] = payload[f].SQL()
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), makePlaceholders(len(cols)))
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s record: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s record id: %w", table, err)
	}
	return id, nil
}

// Update sets the payload fields on record id. An empty payload is a no-op.
func (s *Store) Update(ctx context.Context, category media.Category, id int64, payload metadata.Payload) error {
	table, err := TableFor(category)
	if err != nil {
		return err
	}
	fields := payload.Fields()
	if len(fields) == 0 {
		return nil
	}
	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets[i] = f.Column() + " = ?"
		args = append(args, payload[f].SQL())
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s record %d: %w", table, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update %s record %d: %w", table, id, services.ErrNotFound)
	}
	return nil
}

// RecordCounts returns the number of records per category.
func (s *Store) RecordCounts(ctx context.Context) (map[media.Category]int, error) {
	ctx = ensureContext(ctx)
	counts := make(map[media.Category]int, len(categoryTables))
	for category, table := range categoryTables {
		var n int
		if err := s.db.QueryRowContext(ctx, tableStatements[table].count).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s records: %w", table, err)
		}
		counts[category] = n
	}
	return counts, nil
}
