package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediasort/internal/config"
	"mediasort/internal/dates"
	"mediasort/internal/fileutil"
	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/metadata"
	"mediasort/internal/services"
	"mediasort/internal/store"
)

// Target selects the destination tree(s).
type Target string

const (
	TargetLocal  Target = "local"
	TargetRemote Target = "remote"
	TargetBoth   Target = "both"
)

// ParseTarget validates a target name.
func ParseTarget(value string) (Target, error) {
	switch Target(strings.ToLower(strings.TrimSpace(value))) {
	case TargetLocal:
		return TargetLocal, nil
	case TargetRemote:
		return TargetRemote, nil
	case TargetBoth:
		return TargetBoth, nil
	default:
		return "", fmt.Errorf("unknown target %q (want local, remote or both)", value)
	}
}

// Outcome classifies what happened to one file.
type Outcome string

const (
	OutcomeMoved      Outcome = "moved"
	OutcomePlanned    Outcome = "planned"
	OutcomeExists     Outcome = "exists"
	OutcomeThumbnail  Outcome = "thumbnail"
	OutcomeProcessed  Outcome = "processed"
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeUndated    Outcome = "undated"
	OutcomeFailed     Outcome = "failed"
)

// Result describes one organized file.
type Result struct {
	Path         string
	Kind         Kind
	Date         time.Time
	Destinations []string
	Outcome      Outcome
	Stamp        StampResult
}

// Summary tallies a Run.
type Summary struct {
	Scanned    int
	Moved      int
	Planned    int
	Exists     int
	Skipped    int
	Unresolved int
	Undated    int
	Failed     int
}

// String renders the summary line body.
func (s Summary) String() string {
	return fmt.Sprintf("scanned=%d, moved=%d, planned=%d, exists=%d, skipped=%d, unresolved=%d, undated=%d, failed=%d",
		s.Scanned, s.Moved, s.Planned, s.Exists, s.Skipped, s.Unresolved, s.Undated, s.Failed)
}

// Options controls a run.
type Options struct {
	Target Target
	DryRun bool
	Stamp  bool
}

// Dependencies are the collaborators an Organizer uses. Guard may be nil when
// no store is available. A nil Catalog selects the built-in extension tables.
type Dependencies struct {
	Catalog   *media.Catalog
	Syncer    Syncer
	Stamper   *Stamper
	Extractor metadata.Extractor
	Resolver  *dates.Resolver
	Guard     *store.Guard
}

// Organizer routes files into the configured destination trees.
type Organizer struct {
	local  config.Roots
	remote config.Roots
	opts   Options
	deps   Dependencies
	logger *slog.Logger
}

// New builds an organizer from the configured roots.
func New(cfg *config.Config, deps Dependencies, opts Options, logger *slog.Logger) (*Organizer, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if deps.Syncer == nil {
		return nil, errors.New("syncer is required")
	}
	if deps.Resolver == nil {
		deps.Resolver = dates.NewResolver(cfg.Ingest.DateFields, logger)
	}
	if deps.Catalog == nil {
		deps.Catalog = media.DefaultCatalog()
	}
	if opts.Target == "" {
		opts.Target = TargetLocal
	}
	if _, err := ParseTarget(string(opts.Target)); err != nil {
		return nil, err
	}
	return &Organizer{
		local:  cfg.Organizer.Local,
		remote: cfg.Organizer.Remote,
		opts:   opts,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "organizer"),
	}, nil
}

// Run walks each source depth-first and organizes every regular file.
func (o *Organizer) Run(ctx context.Context, sources []string) (Summary, error) {
	var summary Summary
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		o.logger.Info("scanning source", logging.String("source", source), logging.String("target", string(o.opts.Target)))
		err := filepath.WalkDir(source, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				logging.WarnWithContext(o.logger, "cannot read path", "source_unreadable",
					logging.String(logging.FieldFile, path),
					logging.Error(walkErr),
				)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			summary.Scanned++
			res, err := o.Organize(ctx, path)
			if err != nil && res.Outcome == OutcomeFailed {
				logging.WarnWithContext(o.logger, "file not moved", "organize_failed",
					logging.String(logging.FieldFile, path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "the file stays at its source and is retried on the next run"),
				)
			}
			summary.add(res.Outcome)
			return nil
		})
		if err != nil {
			return summary, err
		}
	}
	o.logger.Info("organize summary", logging.String("summary", summary.String()), logging.EventType("organize_summary"))
	return summary, nil
}

func (s *Summary) add(outcome Outcome) {
	switch outcome {
	case OutcomeMoved:
		s.Moved++
	case OutcomePlanned:
		s.Planned++
	case OutcomeExists:
		s.Exists++
	case OutcomeThumbnail, OutcomeProcessed:
		s.Skipped++
	case OutcomeUnresolved:
		s.Unresolved++
	case OutcomeUndated:
		s.Undated++
	default:
		s.Failed++
	}
}

// Organize classifies, dates and transfers a single file.
func (o *Organizer) Organize(ctx context.Context, path string) (Result, error) {
	res := Result{Path: path}
	ctx = services.WithFile(ctx, path)
	logger := logging.WithContext(ctx, o.logger)

	if IsThumbnail(path) {
		res.Outcome = OutcomeThumbnail
		logger.Debug("skipping thumbnail")
		return res, nil
	}

	processed, err := o.deps.Guard.IsProcessed(ctx, path)
	if err != nil {
		res.Outcome = OutcomeFailed
		return res, err
	}
	if processed {
		res.Outcome = OutcomeProcessed
		logger.Debug("already processed")
		return res, nil
	}

	kind, ok := Classify(path, o.deps.Catalog)
	if !ok {
		res.Outcome = OutcomeUnresolved
		logger.Debug("no destination for file")
		return res, nil
	}
	res.Kind = kind

	date, ok := o.resolveDate(ctx, path)
	if !ok {
		res.Outcome = OutcomeUndated
		logging.WarnWithContext(logger, "no capture date; file not moved", "organize_undated",
			logging.String("kind", string(kind)),
			logging.String(logging.FieldErrorHint, "rename with a date or fix the file's metadata"),
		)
		return res, services.Wrap(services.ErrDateResolution, "organizer", "resolve date", "no capture date found", nil)
	}
	res.Date = date

	steps, err := o.plan(kind, path, date)
	if err != nil {
		res.Outcome = OutcomeFailed
		return res, err
	}
	if steps == nil {
		res.Outcome = OutcomeExists
		return res, nil
	}

	for _, step := range steps {
		res.Destinations = append(res.Destinations, step.dir)
		stepLogger := logger.With(
			logging.String("destination", step.dir),
			logging.Bool("remove_source", step.move),
		)
		if o.opts.DryRun {
			stepLogger.Info("dry run: would transfer")
			continue
		}
		if err := os.MkdirAll(step.dir, 0o755); err != nil {
			res.Outcome = OutcomeFailed
			return res, services.Wrap(services.ErrTransfer, "organizer", "create destination", step.dir, err)
		}
		if err := o.deps.Syncer.Transfer(ctx, path, step.dir, step.move); err != nil {
			res.Outcome = OutcomeFailed
			return res, services.Wrap(services.ErrTransfer, "organizer", "transfer", "sync tool failed", err)
		}
		stepLogger.Info("transferred", logging.String("kind", string(kind)))
		if o.opts.Stamp {
			stamp := o.deps.Stamper.Stamp(ctx, filepath.Join(step.dir, filepath.Base(path)), date)
			if !stamp.OK() {
				logging.WarnWithContext(stepLogger, "stamping failed", "stamp_failed",
					logging.Error(stamp.Err()),
					logging.String(logging.FieldImpact, "file moved; tags or file times keep their old values"),
				)
			}
			res.Stamp = stamp
		}
	}
	if o.opts.DryRun {
		res.Outcome = OutcomePlanned
	} else {
		res.Outcome = OutcomeMoved
	}
	return res, nil
}

type step struct {
	dir  string
	move bool
}

// plan returns the transfer steps, or nil when the final destination already
// holds a file of the same name. With TargetBoth an existing local copy only
// drops the local step.
func (o *Organizer) plan(kind Kind, path string, date time.Time) ([]step, error) {
	bucket := date.Format("2006-01-02")
	name := filepath.Base(path)
	var trees []config.Roots
	switch o.opts.Target {
	case TargetLocal:
		trees = []config.Roots{o.local}
	case TargetRemote:
		trees = []config.Roots{o.remote}
	case TargetBoth:
		trees = []config.Roots{o.local, o.remote}
	}

	var steps []step
	for i, roots := range trees {
		root := RootFor(roots, kind)
		if strings.TrimSpace(root) == "" {
			return nil, services.Wrap(services.ErrConfiguration, "organizer", "resolve root", fmt.Sprintf("no %s root configured", kind), nil)
		}
		dir := filepath.Join(root, bucket)
		final := i == len(trees)-1
		exists, err := fileutil.Exists(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if exists {
			o.logger.Info("destination exists; not overwriting",
				logging.String(logging.FieldFile, path),
				logging.String("destination", dir),
				logging.EventType("organize_exists"),
			)
			if final {
				return nil, nil
			}
			continue
		}
		steps = append(steps, step{dir: dir, move: final})
	}
	return steps, nil
}

func (o *Organizer) resolveDate(ctx context.Context, path string) (time.Time, bool) {
	name := filepath.Base(path)
	if t, ok := dates.FromDeviceName(name); ok {
		return t, true
	}
	if o.deps.Extractor == nil {
		return time.Time{}, false
	}
	doc, err := o.deps.Extractor.Extract(ctx, path)
	if err != nil {
		o.logger.Debug("metadata extraction failed", logging.String(logging.FieldFile, path), logging.Error(err))
	}
	res := o.deps.Resolver.Resolve(doc, name)
	return res.Time, res.OK
}
