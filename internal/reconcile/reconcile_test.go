package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/metadata"
	"mediasort/internal/reconcile"
	"mediasort/internal/services"
	"mediasort/internal/store"
	"mediasort/internal/testsupport"
)

func TestPlanInsertForUnknownFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	r := reconcile.New(st, logging.NewNop())
	ctx := context.Background()

	payload := metadata.Payload{
		metadata.FieldFileName: metadata.Text("new.jpg"),
		metadata.FieldSize:     metadata.Int(10),
	}
	plan, err := r.Plan(ctx, media.CategoryPhotos, "/src/new.jpg", payload)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Action != reconcile.ActionInsert || len(plan.Payload) != 2 {
		t.Fatalf("unexpected plan %+v", plan)
	}
	if err := r.Apply(ctx, plan); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	rec, err := st.Lookup(ctx, media.CategoryPhotos, "new.jpg")
	if err != nil || rec == nil {
		t.Fatalf("Lookup = %#v, %v", rec, err)
	}
}

func TestPlanSkipsWithoutFileName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	r := reconcile.New(st, logging.NewNop())

	plan, err := r.Plan(context.Background(), media.CategoryPhotos, "/src/x", metadata.Payload{
		metadata.FieldFileLocation: metadata.Text("/src"),
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Action != reconcile.ActionSkip || plan.Reason != reconcile.ReasonMissingFileName {
		t.Fatalf("unexpected plan %+v", plan)
	}
	err = r.Apply(context.Background(), plan)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if services.Classify(err) != services.OutcomeSkipped {
		t.Fatalf("expected skipped outcome, got %s", services.Classify(err))
	}
}

func TestFillOnlyBlanks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	r := reconcile.New(st, logging.NewNop())
	ctx := context.Background()

	original := time.Date(2019, 7, 1, 8, 30, 0, 0, time.Local)
	testsupport.MustInsert(t, st, media.CategoryVideos, metadata.Payload{
		metadata.FieldFileName:  metadata.Text("holiday.mp4"),
		metadata.FieldDateTaken: metadata.Time(original),
	})

	duration, err := metadata.ParseDuration("1:02:03")
	if err != nil {
		t.Fatalf("ParseDuration failed: %v", err)
	}
	payload := metadata.Payload{
		metadata.FieldFileName:  metadata.Text("holiday.mp4"),
		metadata.FieldDateTaken: metadata.Time(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)),
		metadata.FieldDuration:  duration,
	}
	plan, err := r.Plan(ctx, media.CategoryVideos, "/src/holiday.mp4", payload)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Action != reconcile.ActionUpdate {
		t.Fatalf("expected update, got %s", plan.Action)
	}
	if _, ok := plan.Payload[metadata.FieldDateTaken]; ok {
		t.Fatal("date_taken must not be overwritten")
	}
	if _, ok := plan.Payload[metadata.FieldFileName]; ok {
		t.Fatal("file_name must not be rewritten")
	}
	if err := r.Apply(ctx, plan); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	rec, err := st.Lookup(ctx, media.CategoryVideos, "holiday.mp4")
	if err != nil || rec == nil {
		t.Fatalf("Lookup = %#v, %v", rec, err)
	}
	if got := rec.Value(metadata.FieldDateTaken); got != "2019-07-01 08:30:00" {
		t.Fatalf("date_taken = %#v", got)
	}
	if got := rec.Value(metadata.FieldDuration); got != float64(3723) {
		t.Fatalf("duration = %#v, want 3723", got)
	}

	again, err := r.Plan(ctx, media.CategoryVideos, "/src/holiday.mp4", payload)
	if err != nil {
		t.Fatalf("second Plan failed: %v", err)
	}
	if again.Action != reconcile.ActionNoop {
		t.Fatalf("expected noop on second plan, got %s", again.Action)
	}
}

func TestZeroCountsAsBlank(t *testing.T) {
	rec := &store.Record{Values: map[metadata.Field]any{
		metadata.FieldSize:     int64(0),
		metadata.FieldDuration: float64(0),
		metadata.FieldMimeType: "  ",
		metadata.FieldWidth:    int64(640),
	}}
	fill := reconcile.BlankFill(rec, metadata.Payload{
		metadata.FieldSize:     metadata.Int(100),
		metadata.FieldDuration: metadata.Float(2.5),
		metadata.FieldMimeType: metadata.Text("image/jpeg"),
		metadata.FieldWidth:    metadata.Int(1024),
		metadata.FieldFlash:    metadata.Bool(false),
	})
	if len(fill) != 3 {
		t.Fatalf("unexpected fill %v", fill)
	}
	if _, ok := fill[metadata.FieldWidth]; ok {
		t.Fatal("non-blank width must be kept")
	}
}

type recordingStore struct {
	inserts int
	updates int
	record  *store.Record
}

func (s *recordingStore) Lookup(context.Context, media.Category, string) (*store.Record, error) {
	return s.record, nil
}

func (s *recordingStore) Insert(context.Context, media.Category, metadata.Payload) (int64, error) {
	s.inserts++
	return 1, nil
}

func (s *recordingStore) Update(context.Context, media.Category, int64, metadata.Payload) error {
	s.updates++
	return nil
}

func TestSimulateIssuesNoWrites(t *testing.T) {
	st := &recordingStore{}
	r := reconcile.New(st, logging.NewNop(), reconcile.WithSimulate(true))
	ctx := context.Background()

	plan, err := r.Plan(ctx, media.CategoryPhotos, "/src/a.jpg", metadata.Payload{
		metadata.FieldFileName: metadata.Text("a.jpg"),
	})
	if err != nil || plan.Action != reconcile.ActionInsert {
		t.Fatalf("Plan = %+v, %v", plan, err)
	}
	if err := r.Apply(ctx, plan); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	st.record = &store.Record{ID: 7, Values: map[metadata.Field]any{metadata.FieldFileName: "a.jpg"}}
	plan, err = r.Plan(ctx, media.CategoryPhotos, "/src/a.jpg", metadata.Payload{
		metadata.FieldFileName: metadata.Text("a.jpg"),
		metadata.FieldSize:     metadata.Int(5),
	})
	if err != nil || plan.Action != reconcile.ActionUpdate {
		t.Fatalf("Plan = %+v, %v", plan, err)
	}
	if err := r.Apply(ctx, plan); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if st.inserts != 0 || st.updates != 0 {
		t.Fatalf("simulate wrote: inserts=%d updates=%d", st.inserts, st.updates)
	}
}
