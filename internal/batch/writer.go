package batch

import (
	"context"
	"fmt"
	"log/slog"

	"mediasort/internal/logging"
	"mediasort/internal/metadata"
	"mediasort/internal/reconcile"
	"mediasort/internal/services"
)

// DefaultSize is the queue length that triggers a flush.
const DefaultSize = 10

// Op is one queued mutation.
type Op struct {
	Path string
	Plan reconcile.Plan
	// Merged lists later files with the same record key whose payloads were
	// folded into this pending insert.
	Merged []MergedFile
}

// MergedFile is a file folded into a pending insert. Filled reports whether
// it contributed any field.
type MergedFile struct {
	Path   string
	Filled bool
}

// Applier executes a plan against the store.
type Applier interface {
	Apply(ctx context.Context, plan reconcile.Plan) error
}

// FlushResult reports one flush.
type FlushResult struct {
	Succeeded int
	Failed    int
}

// Add sums two results.
func (r FlushResult) Add(other FlushResult) FlushResult {
	return FlushResult{Succeeded: r.Succeeded + other.Succeeded, Failed: r.Failed + other.Failed}
}

// SuccessHook runs after an operation commits.
type SuccessHook func(ctx context.Context, op Op) error

// Writer owns the insert and update queues and the run counters.
type Writer struct {
	applier   Applier
	size      int
	inserts   []Op
	updates   []Op
	onSuccess SuccessHook
	counters  Counters
	logger    *slog.Logger
}

// Option customizes a Writer.
type Option func(*Writer)

// WithSuccessHook registers fn to run after each committed operation. Hook
// errors are logged; the operation still counts as a success.
func WithSuccessHook(fn SuccessHook) Option {
	return func(w *Writer) {
		w.onSuccess = fn
	}
}

// NewWriter builds a writer flushing every size operations. size <= 0 selects
// DefaultSize.
func NewWriter(applier Applier, size int, logger *slog.Logger, opts ...Option) *Writer {
	if size <= 0 {
		size = DefaultSize
	}
	w := &Writer{
		applier: applier,
		size:    size,
		inserts: make([]Op, 0, size),
		updates: make([]Op, 0, size),
		logger:  logging.NewComponentLogger(logger, "batch"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enqueue adds an insert or update and flushes its queue when full. Other
// plan actions are rejected. An insert whose (category, file_name) is already
// pending is folded into the pending one with the fill-only-blanks rule, so
// one run never writes two records for the same key.
func (w *Writer) Enqueue(ctx context.Context, op Op) (FlushResult, error) {
	switch op.Plan.Action {
	case reconcile.ActionInsert:
		if pending := w.pendingInsert(op.Plan); pending != nil {
			w.merge(ctx, pending, op)
			return FlushResult{}, nil
		}
		w.inserts = append(w.inserts, op)
		if len(w.inserts) >= w.size {
			return w.FlushInserts(ctx), nil
		}
	case reconcile.ActionUpdate:
		w.updates = append(w.updates, op)
		if len(w.updates) >= w.size {
			return w.FlushUpdates(ctx), nil
		}
	default:
		return FlushResult{}, fmt.Errorf("cannot queue %s plan for %s", op.Plan.Action, op.Path)
	}
	return FlushResult{}, nil
}

// Pending returns the number of queued operations.
func (w *Writer) Pending() int {
	return len(w.inserts) + len(w.updates)
}

func (w *Writer) pendingInsert(plan reconcile.Plan) *Op {
	for i := range w.inserts {
		queued := &w.inserts[i]
		if queued.Plan.Category == plan.Category && queued.Plan.FileName == plan.FileName {
			return queued
		}
	}
	return nil
}

func (w *Writer) merge(ctx context.Context, pending *Op, op Op) {
	if pending.Plan.Payload == nil {
		pending.Plan.Payload = make(metadata.Payload)
	}
	filled := reconcile.MergeBlank(pending.Plan.Payload, op.Plan.Payload)
	pending.Merged = append(pending.Merged, MergedFile{Path: op.Path, Filled: filled > 0})
	logging.WithContext(services.WithFile(ctx, op.Path), w.logger).Debug("folded into pending insert",
		logging.String("file_name", op.Plan.FileName),
		logging.String("pending_path", pending.Path),
		logging.Int("filled", filled),
	)
}

// FlushInserts executes and clears the insert queue.
func (w *Writer) FlushInserts(ctx context.Context) FlushResult {
	res := w.flush(ctx, "inserts", w.inserts, &w.counters.Inserted)
	w.inserts = w.inserts[:0]
	return res
}

// FlushUpdates executes and clears the update queue.
func (w *Writer) FlushUpdates(ctx context.Context) FlushResult {
	res := w.flush(ctx, "updates", w.updates, &w.counters.Updated)
	w.updates = w.updates[:0]
	return res
}

// Finish flushes both queues regardless of their length.
func (w *Writer) Finish(ctx context.Context) FlushResult {
	return w.FlushInserts(ctx).Add(w.FlushUpdates(ctx))
}

func (w *Writer) flush(ctx context.Context, queue string, ops []Op, success *int) FlushResult {
	var res FlushResult
	if len(ops) == 0 {
		return res
	}
	for _, op := range ops {
		opCtx := services.WithFile(ctx, op.Path)
		if err := w.applier.Apply(opCtx, op.Plan); err != nil {
			res.Failed += 1 + len(op.Merged)
			w.counters.Failed += 1 + len(op.Merged)
			logging.WarnWithContext(logging.WithContext(opCtx, w.logger), "store write failed", "store_write_failed",
				logging.String("queue", queue),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the file is retried on the next run"),
				logging.String(logging.FieldImpact, "record not written"),
			)
			continue
		}
		res.Succeeded += 1 + len(op.Merged)
		*success++
		w.afterCommit(opCtx, op)
		for _, merged := range op.Merged {
			if merged.Filled {
				w.counters.Updated++
			} else {
				w.counters.Skipped++
			}
			w.afterCommit(services.WithFile(ctx, merged.Path), Op{Path: merged.Path, Plan: op.Plan})
		}
	}
	w.logger.Debug("flushed batch",
		logging.String("queue", queue),
		logging.Int("succeeded", res.Succeeded),
		logging.Int("failed", res.Failed),
	)
	return res
}

func (w *Writer) afterCommit(ctx context.Context, op Op) {
	if w.onSuccess == nil {
		return
	}
	if err := w.onSuccess(ctx, op); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, w.logger), "post-write hook failed", "batch_hook_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "file may be reprocessed on the next run"),
		)
	}
}

// Counters returns a snapshot of the run counters.
func (w *Writer) Counters() Counters {
	return w.counters
}

// Count records a per-file outcome that does not pass through a queue.
func (w *Writer) Count(outcome services.Outcome) {
	w.counters.Record(outcome)
}

// Scanned records one discovered file.
func (w *Writer) Scanned() {
	w.counters.Scanned++
}
