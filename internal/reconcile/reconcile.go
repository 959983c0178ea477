package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/metadata"
	"mediasort/internal/services"
	"mediasort/internal/store"
)

// Action is what applying a plan does to the store.
type Action int

const (
	ActionNoop Action = iota
	ActionInsert
	ActionUpdate
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionUpdate:
		return "update"
	case ActionSkip:
		return "skip"
	default:
		return "noop"
	}
}

// ReasonMissingFileName explains a skip plan for a payload without file_name.
const ReasonMissingFileName = "skipped due to missing required metadata"

// Plan is the decided mutation for one file.
type Plan struct {
	Action   Action
	Category media.Category
	Path     string
	FileName string
	// RecordID is set for update and noop plans.
	RecordID int64
	// Payload is the full sanitized payload for inserts and only the blank
	// fields being filled for updates.
	Payload metadata.Payload
	Reason  string
}

// Store is the record access the reconciler needs.
type Store interface {
	Lookup(ctx context.Context, category media.Category, fileName string) (*store.Record, error)
	Insert(ctx context.Context, category media.Category, payload metadata.Payload) (int64, error)
	Update(ctx context.Context, category media.Category, id int64, payload metadata.Payload) error
}

// Reconciler plans and applies record mutations.
type Reconciler struct {
	store    Store
	simulate bool
	logger   *slog.Logger
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithSimulate makes Apply log the intended mutation instead of issuing it.
func WithSimulate(simulate bool) Option {
	return func(r *Reconciler) {
		r.simulate = simulate
	}
}

// New builds a reconciler over st.
func New(st Store, logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{store: st, logger: logging.NewComponentLogger(logger, "reconcile")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan looks up the record for payload's file_name and decides what to do.
// A missing record is the normal insert path, not an error.
func (r *Reconciler) Plan(ctx context.Context, category media.Category, path string, payload metadata.Payload) (Plan, error) {
	fileName := strings.TrimSpace(payload.Text(metadata.FieldFileName))
	plan := Plan{Category: category, Path: path, FileName: fileName}

	if fileName == "" {
		plan.Action = ActionSkip
		plan.Reason = ReasonMissingFileName
		return plan, nil
	}

	existing, err := r.store.Lookup(ctx, category, fileName)
	if err != nil {
		return plan, services.Wrap(services.ErrTransient, "reconcile", "lookup", "record lookup failed", err)
	}
	if existing == nil {
		plan.Action = ActionInsert
		plan.Payload = payload.Clone()
		return plan, nil
	}

	plan.RecordID = existing.ID
	fill := BlankFill(existing, payload)
	if len(fill) == 0 {
		plan.Action = ActionNoop
		return plan, nil
	}
	plan.Action = ActionUpdate
	plan.Payload = fill
	return plan, nil
}

// BlankFill returns the payload fields whose stored value in rec is blank.
// Candidate values that are blank themselves are left out so a fill never
// writes a value the next run would again consider missing.
func BlankFill(rec *store.Record, payload metadata.Payload) metadata.Payload {
	fill := make(metadata.Payload)
	for _, f := range payload.Fields() {
		candidate := payload[f]
		if candidate == nil || IsBlank(candidate.SQL()) {
			continue
		}
		if !IsBlank(rec.Value(f)) {
			continue
		}
		fill[f] = candidate
	}
	return fill
}

// MergeBlank copies into dst the non-blank fields of src that are blank or
// absent in dst and returns how many were copied. It applies the fill rule to
// a payload that has not been stored yet.
func MergeBlank(dst, src metadata.Payload) int {
	filled := 0
	for _, f := range src.Fields() {
		candidate := src[f]
		if candidate == nil || IsBlank(candidate.SQL()) {
			continue
		}
		if current, ok := dst[f]; ok && current != nil && !IsBlank(current.SQL()) {
			continue
		}
		dst[f] = candidate
		filled++
	}
	return filled
}

// IsBlank reports whether a stored value counts as missing: NULL, an empty or
// whitespace string, or numeric zero.
func IsBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []byte:
		return strings.TrimSpace(string(v)) == ""
	case int64:
		return v == 0
	case int:
		return v == 0
	case float64:
		return v == 0
	case bool:
		return !v
	default:
		return false
	}
}

// Apply executes plan. Skip and noop plans write nothing.
func (r *Reconciler) Apply(ctx context.Context, plan Plan) error {
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String("action", plan.Action.String()),
		logging.String("file_name", plan.FileName),
	)
	switch plan.Action {
	case ActionInsert:
		if r.simulate {
			logger.Info("dry run: would insert record", logging.String("fields", describe(plan.Payload)))
			return nil
		}
		id, err := r.store.Insert(ctx, plan.Category, plan.Payload)
		if err != nil {
			return services.Wrap(services.ErrStoreWrite, "reconcile", "insert", "insert record", err)
		}
		logger.Debug("inserted record", logging.Int64("record_id", id), logging.Int("fields", len(plan.Payload)))
		return nil
	case ActionUpdate:
		if r.simulate {
			logger.Info("dry run: would fill blank fields",
				logging.Int64("record_id", plan.RecordID),
				logging.String("fields", describe(plan.Payload)),
			)
			return nil
		}
		if err := r.store.Update(ctx, plan.Category, plan.RecordID, plan.Payload); err != nil {
			return services.Wrap(services.ErrStoreWrite, "reconcile", "update", "fill blank fields", err)
		}
		logger.Debug("filled blank fields", logging.Int64("record_id", plan.RecordID), logging.String("fields", describe(plan.Payload)))
		return nil
	case ActionSkip:
		return services.Wrap(services.ErrValidation, "reconcile", "insert", plan.Reason, nil)
	default:
		return nil
	}
}

func describe(payload metadata.Payload) string {
	parts := make([]string, 0, len(payload))
	for _, f := range payload.Fields() {
		parts = append(parts, fmt.Sprintf("%s=%s", f, payload[f].String()))
	}
	return strings.Join(parts, ", ")
}
