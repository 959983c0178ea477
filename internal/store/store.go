package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mediasort/internal/config"
)

// MemoryPath is reported by Path for stores that live only in memory.
const MemoryPath = ":memory:"

// ErrReadOnly is returned by write operations on a read-only store.
var ErrReadOnly = errors.New("store is read-only")

// Store manages record persistence backed by SQLite.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
}

// Options controls how Open connects.
type Options struct {
	// ReadOnly opens an existing database without write access. When the file
	// does not exist the store is created empty in memory instead.
	ReadOnly bool
	// BusyTimeout bounds how long SQLite waits on a locked database.
	BusyTimeout time.Duration
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	defaultBusyTimeout      = 5 * time.Second
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	if s.readOnly {
		return nil, ErrReadOnly
	}
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open connects to the database at path, creating it and its schema when
// missing. See Options for read-only behavior.
func Open(path string, opts Options) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store path is required")
	}
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}

	dsn := path
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
	}
	readOnly := opts.ReadOnly
	if readOnly {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return OpenMemory()
		} else if err != nil {
			return nil, fmt.Errorf("stat database: %w", err)
		}
		dsn = "file:" + path + "?mode=ro"
		pragmas = []string{
			"PRAGMA query_only = ON",
			fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	return open(dsn, path, readOnly, pragmas)
}

// OpenMemory returns an empty store held in memory. Dry runs use it when no
// database exists yet so lookups behave as on a fresh install.
func OpenMemory() (*Store, error) {
	return open(MemoryPath, MemoryPath, false, []string{"PRAGMA foreign_keys = ON"})
}

// OpenFromConfig opens the configured database.
func OpenFromConfig(cfg *config.Config, readOnly bool) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	return Open(cfg.Store.Path, Options{
		ReadOnly:    readOnly,
		BusyTimeout: time.Duration(cfg.Store.BusyTimeoutMS) * time.Millisecond,
	})
}

func open(dsn, path string, readOnly bool, pragmas []string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single handle keeps pragmas and in-memory contents on one connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, readOnly: readOnly}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file, or MemoryPath.
func (s *Store) Path() string { return s.path }

// ReadOnly reports whether writes are rejected.
func (s *Store) ReadOnly() bool { return s.readOnly }

// Ephemeral reports whether the store lives only in memory.
func (s *Store) Ephemeral() bool { return s.path == MemoryPath }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
