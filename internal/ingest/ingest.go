package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mediasort/internal/batch"
	"mediasort/internal/config"
	"mediasort/internal/dates"
	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/metadata"
	"mediasort/internal/reconcile"
	"mediasort/internal/services"
	"mediasort/internal/store"
)

// Options select what a run scans and how it behaves.
type Options struct {
	// Categories to scan, in order. Empty selects every category.
	Categories []media.Category
	// Sources overrides the configured source directories per category.
	Sources map[media.Category][]string
	DryRun  bool
	Verbose bool
	RunID   string
}

// Dependencies are the collaborators a Scanner uses.
type Dependencies struct {
	Store     *store.Store
	Extractor metadata.Extractor
	Catalog   *media.Catalog
	Resolver  *dates.Resolver
}

// CategoryReport is the outcome of scanning one category.
type CategoryReport struct {
	Category media.Category
	Counters batch.Counters
	Duration time.Duration
}

// Report is the outcome of a whole run.
type Report struct {
	Categories []CategoryReport
	Total      batch.Counters
}

// Scanner runs the ingest pipeline.
type Scanner struct {
	cfg        *config.Config
	deps       Dependencies
	opts       Options
	reconciler *reconcile.Reconciler
	sanitizers map[media.Category]*metadata.Sanitizer
	logger     *slog.Logger
}

// New validates the dependencies and builds one sanitizer per category from
// the catalog's field mappings.
func New(cfg *config.Config, deps Dependencies, opts Options, logger *slog.Logger) (*Scanner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if deps.Catalog == nil {
		deps.Catalog = media.DefaultCatalog()
	}
	if deps.Resolver == nil {
		deps.Resolver = dates.NewResolver(cfg.Ingest.DateFields, logger)
	}
	if len(opts.Categories) == 0 {
		opts.Categories = media.Categories()
	}
	sanitizers := make(map[media.Category]*metadata.Sanitizer, len(opts.Categories))
	for _, category := range opts.Categories {
		if !category.Valid() {
			return nil, fmt.Errorf("unknown category %q", category)
		}
		sanitizer, err := metadata.NewSanitizer(deps.Catalog.FieldMapping(category), logger)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "ingest", "field mapping", string(category), err)
		}
		sanitizers[category] = sanitizer
	}
	return &Scanner{
		cfg:        cfg,
		deps:       deps,
		opts:       opts,
		reconciler: reconcile.New(deps.Store, logger, reconcile.WithSimulate(opts.DryRun)),
		sanitizers: sanitizers,
		logger:     logging.NewComponentLogger(logger, "ingest"),
	}, nil
}

// Run scans every selected category in turn. The returned error is non-nil
// only when ctx is cancelled; the report then covers the work done so far.
func (s *Scanner) Run(ctx context.Context) (Report, error) {
	var report Report
	for _, category := range s.opts.Categories {
		started := time.Now()
		counters, err := s.scanCategory(ctx, category)
		report.Categories = append(report.Categories, CategoryReport{
			Category: category,
			Counters: counters,
			Duration: time.Since(started),
		})
		report.Total = report.Total.Add(counters)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (s *Scanner) sourcesFor(category media.Category) []string {
	if sources, ok := s.opts.Sources[category]; ok {
		return sources
	}
	return s.cfg.SourcesFor(category)
}

func (s *Scanner) scanCategory(ctx context.Context, category media.Category) (batch.Counters, error) {
	ctx = services.WithCategory(ctx, string(category))
	logger := logging.WithContext(ctx, s.logger)

	files, err := s.collect(ctx, logger, category)
	if err != nil {
		return batch.Counters{}, err
	}
	total := len(files)
	logger.Info(fmt.Sprintf("[%s] Total files: %d", category, total), logging.Int("total", total))

	guard := s.deps.Store.Guard()
	var writerOpts []batch.Option
	if !s.opts.DryRun {
		writerOpts = append(writerOpts, batch.WithSuccessHook(func(ctx context.Context, op batch.Op) error {
			return guard.MarkProcessed(ctx, op.Path, category, s.opts.RunID)
		}))
	}
	writer := batch.NewWriter(s.reconciler, s.cfg.Store.BatchSize, s.logger, writerOpts...)

	for idx, file := range files {
		if err := ctx.Err(); err != nil {
			logger.Info(fmt.Sprintf("[%s] Interrupted at %d/%d; flushing queued writes", category, idx, total),
				logging.Int("pending", writer.Pending()),
			)
			writer.Finish(context.WithoutCancel(ctx))
			return writer.Counters(), err
		}
		writer.Scanned()
		prefix := fmt.Sprintf("[%s] [%d/%d]", category, idx+1, total)
		if s.opts.Verbose {
			logger.Info(prefix+" Processing: "+file.Path, logging.String(logging.FieldFile, file.Path))
		} else {
			logger.Debug(prefix, logging.String(logging.FieldFile, file.Path))
		}
		s.processFile(ctx, writer, guard, file)
	}

	writer.Finish(ctx)
	counters := writer.Counters()
	logger.Info(fmt.Sprintf("[%s] Summary: %s", category, counters.String()),
		logging.EventType("ingest_summary"),
		logging.Int("scanned", counters.Scanned),
		logging.Int("inserted", counters.Inserted),
		logging.Int("updated", counters.Updated),
		logging.Int("skipped", counters.Skipped),
		logging.Int("unmatched", counters.Unmatched),
		logging.Int("failed", counters.Failed),
	)
	return counters, nil
}

// collect lists the category's files up front so progress lines carry a
// total. Missing sources are logged and skipped.
func (s *Scanner) collect(ctx context.Context, logger *slog.Logger, category media.Category) ([]media.File, error) {
	var files []media.File
	for _, source := range s.sourcesFor(category) {
		info, err := os.Stat(source)
		if err != nil || !info.IsDir() {
			logging.WarnWithContext(logger, "source directory unavailable", "source_unavailable",
				logging.String("source", source),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the ingest source paths in the config file"),
			)
			continue
		}
		err = filepath.WalkDir(source, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				logger.Debug("cannot read path", logging.String(logging.FieldFile, path), logging.Error(walkErr))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				logger.Debug("scanning", logging.String("dir", path))
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			file, ok := media.NewFile(path, s.deps.Catalog)
			if !ok || file.Category != category {
				logger.Debug("skipping unsupported", logging.String(logging.FieldFile, path))
				return nil
			}
			files = append(files, file)
			return nil
		})
		if err != nil {
			return files, err
		}
	}
	return files, nil
}

func (s *Scanner) processFile(ctx context.Context, writer *batch.Writer, guard *store.Guard, file media.File) {
	ctx = services.WithFile(ctx, file.Path)
	logger := logging.WithContext(ctx, s.logger)

	processed, err := guard.IsProcessed(ctx, file.Path)
	if err != nil {
		logging.WarnWithContext(logger, "processed check failed", "processed_check_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "file is scanned again"),
		)
	}
	if processed {
		logger.Debug("already processed")
		writer.Count(services.OutcomeSkipped)
		return
	}

	doc, err := s.deps.Extractor.Extract(ctx, file.Path)
	if err != nil {
		logger.Debug("metadata extraction failed", logging.Error(err))
		doc = metadata.Document{}
	}

	payload := s.sanitizers[file.Category].Sanitize(doc, file.Path)
	resolution := s.deps.Resolver.Resolve(doc, file.Name)
	if resolution.OK {
		payload[metadata.FieldDateTaken] = metadata.Time(resolution.Time)
		logger.Debug("capture date resolved",
			logging.String("source", resolution.Source),
			logging.String("date", dates.Format(resolution.Time)),
		)
	} else {
		delete(payload, metadata.FieldDateTaken)
		logger.Debug("no capture date")
		writer.Count(services.OutcomeUnmatched)
	}

	plan, err := s.reconciler.Plan(ctx, file.Category, file.Path, payload)
	if err != nil {
		logging.WarnWithContext(logger, "record lookup failed", "record_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the file is retried on the next run"),
		)
		writer.Count(services.Classify(err))
		return
	}

	switch plan.Action {
	case reconcile.ActionSkip:
		logging.WarnWithContext(logger, plan.Reason, "record_skipped",
			logging.String(logging.FieldImpact, "no record written for this file"),
		)
		writer.Count(services.OutcomeSkipped)
	case reconcile.ActionNoop:
		logger.Debug("record complete", logging.Int64("record_id", plan.RecordID))
		writer.Count(services.OutcomeSkipped)
		if !s.opts.DryRun {
			if err := guard.MarkProcessed(ctx, file.Path, file.Category, s.opts.RunID); err != nil {
				logger.Debug("mark processed failed", logging.Error(err))
			}
		}
	default:
		logger.Debug("queued", logging.String("action", plan.Action.String()))
		if _, err := writer.Enqueue(ctx, batch.Op{Path: file.Path, Plan: plan}); err != nil {
			writer.Count(services.OutcomeFailed)
			logger.Debug("enqueue rejected", logging.Error(err))
		}
	}
}
