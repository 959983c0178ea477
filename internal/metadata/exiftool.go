package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mediasort/internal/logging"
	"mediasort/internal/services"
)

// Option configures an ExifTool extractor.
type Option func(*ExifTool)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(e *ExifTool) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithFallback sets the extractor consulted when exiftool fails or returns
// nothing for a file the fallback supports.
func WithFallback(fallback FallbackExtractor) Option {
	return func(e *ExifTool) {
		e.fallback = fallback
	}
}

// FallbackExtractor is an in-process extractor limited to some file types.
type FallbackExtractor interface {
	Extractor
	Supports(path string) bool
}

// ExifTool extracts metadata with `exiftool -j <path>`.
type ExifTool struct {
	binary   string
	exec     services.Executor
	fallback FallbackExtractor
	logger   *slog.Logger
}

// NewExifTool constructs an extractor around binary.
func NewExifTool(binary string, logger *slog.Logger, opts ...Option) (*ExifTool, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("exiftool binary required")
	}
	e := &ExifTool{
		binary: binary,
		exec:   services.CommandExecutor{},
		logger: logging.NewComponentLogger(logger, "exiftool"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract returns the document for path. On failure it returns an empty
// document together with an ErrExtraction error so callers can log and
// continue.
func (e *ExifTool) Extract(ctx context.Context, path string) (Document, error) {
	doc, err := e.run(ctx, path)
	if err == nil && len(doc) > 0 {
		return doc, nil
	}
	if e.fallback != nil && e.fallback.Supports(path) {
		fallbackDoc, fallbackErr := e.fallback.Extract(ctx, path)
		if fallbackErr == nil && len(fallbackDoc) > 0 {
			e.logger.Debug("using in-process exif reader",
				logging.String(logging.FieldFile, path),
				logging.Error(err),
			)
			return fallbackDoc, nil
		}
	}
	if err != nil {
		return Document{}, err
	}
	return Document{}, services.Wrap(services.ErrExtraction, "metadata", "exiftool", "empty document", nil)
}

func (e *ExifTool) run(ctx context.Context, path string) (Document, error) {
	out, err := services.Output(ctx, e.exec, e.binary, "-j", path)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "metadata", "exiftool", "run "+filepath.Base(path), err)
	}
	var docs []Document
	if err := json.Unmarshal([]byte(out), &docs); err != nil {
		return nil, services.Wrap(services.ErrExtraction, "metadata", "exiftool", "decode output", err)
	}
	if len(docs) == 0 {
		return nil, services.Wrap(services.ErrExtraction, "metadata", "exiftool", "no document", nil)
	}
	return docs[0], nil
}

// Available reports whether the configured binary resolves on PATH.
func (e *ExifTool) Available() bool {
	if filepath.IsAbs(e.binary) {
		info, err := os.Stat(e.binary)
		return err == nil && !info.IsDir()
	}
	_, err := lookPath(e.binary)
	return err == nil
}

func lookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", name, err)
	}
	return path, nil
}
