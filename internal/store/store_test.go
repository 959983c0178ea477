package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediasort/internal/media"
	"mediasort/internal/metadata"
	"mediasort/internal/services"
	"mediasort/internal/store"
	"mediasort/internal/testsupport"
)

func TestInsertAndLookup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	taken := time.Date(2021, 5, 3, 9, 0, 0, 0, time.Local)
	id := testsupport.MustInsert(t, st, media.CategoryVideos, metadata.Payload{
		metadata.FieldFileName:     metadata.Text("clip.mp4"),
		metadata.FieldFileLocation: metadata.Text("/src"),
		metadata.FieldDateTaken:    metadata.Time(taken),
		metadata.FieldFlash:        metadata.Bool(true),
		metadata.FieldDuration:     metadata.Float(12.5),
	})
	if id == 0 {
		t.Fatal("expected record id")
	}

	rec, err := st.Lookup(ctx, media.CategoryVideos, "clip.mp4")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec == nil || rec.ID != id {
		t.Fatalf("unexpected record %#v", rec)
	}
	if got := rec.Value(metadata.FieldDateTaken); got != "2021-05-03 09:00:00" {
		t.Fatalf("date_taken = %#v", got)
	}
	if got := rec.Value(metadata.FieldFlash); got != int64(1) {
		t.Fatalf("flash = %#v", got)
	}
	if got := rec.Value(metadata.FieldDuration); got != 12.5 {
		t.Fatalf("duration = %#v", got)
	}
	if got := rec.Value(metadata.FieldSize); got != nil {
		t.Fatalf("size = %#v, want nil", got)
	}

	other, err := st.Lookup(ctx, media.CategoryPhotos, "clip.mp4")
	if err != nil {
		t.Fatalf("Lookup photos failed: %v", err)
	}
	if other != nil {
		t.Fatalf("expected no photo record, got %#v", other)
	}
}

func TestInsertRequiresFileName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	_, err := st.Insert(context.Background(), media.CategoryPhotos, metadata.Payload{
		metadata.FieldFileLocation: metadata.Text("/src"),
	})
	if err == nil {
		t.Fatal("expected error without file_name")
	}
}

func TestUpdateSetsOnlyGivenFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	id := testsupport.MustInsert(t, st, media.CategoryPhotos, metadata.Payload{
		metadata.FieldFileName:   metadata.Text("a.jpg"),
		metadata.FieldCameraMake: metadata.Text("Canon"),
	})
	if err := st.Update(ctx, media.CategoryPhotos, id, metadata.Payload{
		metadata.FieldSize: metadata.Int(2048),
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	rec, err := st.Lookup(ctx, media.CategoryPhotos, "a.jpg")
	if err != nil || rec == nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec.Value(metadata.FieldSize) != int64(2048) {
		t.Fatalf("size = %#v", rec.Value(metadata.FieldSize))
	}
	if rec.Value(metadata.FieldCameraMake) != "Canon" {
		t.Fatalf("camera_make = %#v", rec.Value(metadata.FieldCameraMake))
	}

	if err := st.Update(ctx, media.CategoryPhotos, id+100, metadata.Payload{
		metadata.FieldSize: metadata.Int(1),
	}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing record, got %v", err)
	}
}

func TestGuardMarksProcessed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	guard := st.Guard()

	done, err := guard.IsProcessed(ctx, "/src/a.jpg")
	if err != nil || done {
		t.Fatalf("IsProcessed = %v, %v", done, err)
	}
	if err := guard.MarkProcessed(ctx, "/src/a.jpg", media.CategoryPhotos, "run-1"); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}
	if err := guard.MarkProcessed(ctx, "/src/a.jpg", media.CategoryPhotos, "run-2"); err != nil {
		t.Fatalf("MarkProcessed again failed: %v", err)
	}
	done, err = guard.IsProcessed(ctx, "/src/a.jpg")
	if err != nil || !done {
		t.Fatalf("IsProcessed = %v, %v", done, err)
	}

	counts, err := st.ProcessedCounts(ctx)
	if err != nil {
		t.Fatalf("ProcessedCounts failed: %v", err)
	}
	if counts[media.CategoryPhotos] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	markers, err := st.RecentMarkers(ctx, 5)
	if err != nil {
		t.Fatalf("RecentMarkers failed: %v", err)
	}
	if len(markers) != 1 || markers[0].RunID != "run-2" {
		t.Fatalf("unexpected markers %#v", markers)
	}
}

func TestNilGuardIsInert(t *testing.T) {
	var guard *store.Guard
	done, err := guard.IsProcessed(context.Background(), "/x")
	if err != nil || done {
		t.Fatalf("IsProcessed = %v, %v", done, err)
	}
	if err := guard.MarkProcessed(context.Background(), "/x", media.CategoryPhotos, ""); err != nil {
		t.Fatalf("MarkProcessed = %v", err)
	}
}

func TestReadOnlyWithoutDatabaseUsesMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	st, err := store.Open(path, store.Options{ReadOnly: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	if !st.Ephemeral() {
		t.Fatal("expected in-memory store")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("database file should not be created, stat err=%v", err)
	}
	rec, err := st.Lookup(context.Background(), media.CategoryPhotos, "a.jpg")
	if err != nil || rec != nil {
		t.Fatalf("Lookup = %#v, %v", rec, err)
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	rw := testsupport.MustOpenStore(t, cfg)
	testsupport.MustInsert(t, rw, media.CategoryPhotos, metadata.Payload{
		metadata.FieldFileName: metadata.Text("a.jpg"),
	})
	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ro, err := store.OpenFromConfig(cfg, true)
	if err != nil {
		t.Fatalf("Open read-only failed: %v", err)
	}
	defer ro.Close()

	rec, err := ro.Lookup(context.Background(), media.CategoryPhotos, "a.jpg")
	if err != nil || rec == nil {
		t.Fatalf("Lookup = %#v, %v", rec, err)
	}
	_, err = ro.Insert(context.Background(), media.CategoryPhotos, metadata.Payload{
		metadata.FieldFileName: metadata.Text("b.jpg"),
	})
	if !errors.Is(err, store.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestRecordCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	for _, name := range []string{"a.mp3", "b.mp3"} {
		testsupport.MustInsert(t, st, media.CategoryAudio, metadata.Payload{
			metadata.FieldFileName: metadata.Text(name),
		})
	}
	counts, err := st.RecordCounts(context.Background())
	if err != nil {
		t.Fatalf("RecordCounts failed: %v", err)
	}
	if counts[media.CategoryAudio] != 2 || counts[media.CategoryPhotos] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
