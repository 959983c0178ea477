package organizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"mediasort/internal/config"
	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/metadata"
	"mediasort/internal/organizer"
	"mediasort/internal/services"
	"mediasort/internal/store"
	"mediasort/internal/testsupport"
)

type stubExecutor struct {
	calls [][]string
	err   error
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string, _ func(string)) error {
	s.calls = append(s.calls, append([]string{binary}, args...))
	return s.err
}

type stubExtractor struct {
	doc metadata.Document
}

func (s stubExtractor) Extract(context.Context, string) (metadata.Document, error) {
	return s.doc, nil
}

func newOrganizer(t *testing.T, cfg *config.Config, opts organizer.Options, deps organizer.Dependencies) *organizer.Organizer {
	t.Helper()
	if deps.Syncer == nil {
		deps.Syncer = organizer.NativeSyncer{}
	}
	if deps.Extractor == nil {
		deps.Extractor = stubExtractor{}
	}
	org, err := organizer.New(cfg, deps, opts, logging.NewNop())
	if err != nil {
		t.Fatalf("organizer.New: %v", err)
	}
	return org
}

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		kind organizer.Kind
		ok   bool
	}{
		{"/mnt/phone/abcdefghijklmnopqrstuvwxyz012345", organizer.KindSocial, true},
		{"/mnt/Novatek/FILE0001.MOV", organizer.KindDashcam, true},
		{"/mnt/sd/CARDV/2024.txt", organizer.KindDashcam, true},
		{"/mnt/phone/IMG_1.HEIC", organizer.KindPhoto, true},
		{"/mnt/phone/clip.mkv", organizer.KindVideo, true},
		{"/mnt/phone/notes.txt", "", false},
		{"/mnt/phone/abcdefghijklmnopqrstuvwxyz012345.mp4", organizer.KindVideo, true},
	}
	for _, tc := range cases {
		kind, ok := organizer.Classify(tc.path, nil)
		if ok != tc.ok || kind != tc.kind {
			t.Fatalf("Classify(%q) = %q, %v; want %q, %v", tc.path, kind, ok, tc.kind, tc.ok)
		}
	}
}

func TestClassifyUsesCatalogExtensions(t *testing.T) {
	catalog, err := media.NewCatalog(media.CatalogSpec{
		Extensions: map[media.Category][]string{
			media.CategoryPhotos: {"jxl"},
			media.CategoryVideos: {".braw"},
		},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if kind, ok := organizer.Classify("/mnt/cam/A001.braw", catalog); !ok || kind != organizer.KindVideo {
		t.Fatalf("Classify braw = %q, %v; want videos", kind, ok)
	}
	if kind, ok := organizer.Classify("/mnt/cam/shot.JXL", catalog); !ok || kind != organizer.KindPhoto {
		t.Fatalf("Classify jxl = %q, %v; want photos", kind, ok)
	}
	if _, ok := organizer.Classify("/mnt/cam/clip.mp4", catalog); ok {
		t.Fatal("mp4 is not in the catalog and should not be classified")
	}
}

func TestOrganizeRoutesByInjectedCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	catalog, err := media.NewCatalog(media.CatalogSpec{
		Extensions: map[media.Category][]string{media.CategoryVideos: {".braw"}},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	src := filepath.Join(testsupport.BaseDir(cfg), "card")
	path := filepath.Join(src, "A001_20230615_141055.braw")
	testsupport.WriteFile(t, path, "frames")
	org := newOrganizer(t, cfg, organizer.Options{Target: organizer.TargetLocal}, organizer.Dependencies{
		Catalog:   catalog,
		Extractor: stubExtractor{doc: metadata.Document{"CreateDate": "2023:06:15 14:10:55"}},
	})

	res, err := org.Organize(context.Background(), path)
	if err != nil {
		t.Fatalf("Organize: %v", err)
	}
	if res.Kind != organizer.KindVideo || res.Outcome != organizer.OutcomeMoved {
		t.Fatalf("unexpected result %+v", res)
	}
	want := filepath.Join(cfg.Organizer.Local.Videos, "2023-06-15", "A001_20230615_141055.braw")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected file at %s: %v", want, err)
	}
}

func TestIsThumbnail(t *testing.T) {
	if !organizer.IsThumbnail("/mnt/DCIM/.thumbnails/a.jpg") {
		t.Fatal("expected thumbnail cache path")
	}
	if organizer.IsThumbnail("/mnt/DCIM/a.jpg") {
		t.Fatal("regular path flagged as thumbnail")
	}
}

func TestOrganizeMovesIntoDateBucketAndStamps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(testsupport.BaseDir(cfg), "mnt", "phone", "PXL_20230615_141055123.jpg")
	testsupport.WriteFile(t, src, "")

	exec := &stubExecutor{}
	org := newOrganizer(t, cfg, organizer.Options{Target: organizer.TargetLocal, Stamp: true}, organizer.Dependencies{
		Stamper: &organizer.Stamper{Exiftool: "exiftool", Exec: exec},
	})

	res, err := org.Organize(context.Background(), src)
	if err != nil {
		t.Fatalf("Organize failed: %v", err)
	}
	if res.Outcome != organizer.OutcomeMoved {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	dst := filepath.Join(cfg.Organizer.Local.Photos, "2023-06-15", "PXL_20230615_141055123.jpg")
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	want := time.Date(2023, 6, 15, 14, 10, 55, 0, time.Local)
	if !info.ModTime().Equal(want) {
		t.Fatalf("mtime = %v, want %v", info.ModTime(), want)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source should be gone, stat err=%v", err)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("expected one exiftool call, got %v", exec.calls)
	}
	wantArgs := append([]string{"exiftool"}, organizer.TagArgs(dst, want)...)
	if !reflect.DeepEqual(exec.calls[0], wantArgs) {
		t.Fatalf("exiftool args = %v, want %v", exec.calls[0], wantArgs)
	}
}

func TestOrganizeNeverOverwrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(testsupport.BaseDir(cfg), "mnt", "phone", "PXL_20230615_141055123.jpg")
	testsupport.WriteFile(t, src, "")
	dst := filepath.Join(cfg.Organizer.Local.Photos, "2023-06-15", "PXL_20230615_141055123.jpg")
	testsupport.WriteFile(t, dst, "existing")

	org := newOrganizer(t, cfg, organizer.Options{Target: organizer.TargetLocal}, organizer.Dependencies{})
	res, err := org.Organize(context.Background(), src)
	if err != nil {
		t.Fatalf("Organize failed: %v", err)
	}
	if res.Outcome != organizer.OutcomeExists {
		t.Fatalf("outcome = %s, want exists", res.Outcome)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "existing" {
		t.Fatalf("destination changed: %q, %v", data, err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source must stay in place: %v", err)
	}
}

func TestOrganizeUndatedIsSkipped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(testsupport.BaseDir(cfg), "mnt", "phone", "holiday.jpg")
	testsupport.WriteFile(t, src, "")

	org := newOrganizer(t, cfg, organizer.Options{}, organizer.Dependencies{
		Extractor: stubExtractor{doc: metadata.Document{"CreateDate": "0000:00:00 00:00:00"}},
	})
	res, err := org.Organize(context.Background(), src)
	if !errors.Is(err, services.ErrDateResolution) {
		t.Fatalf("expected date resolution error, got %v", err)
	}
	if res.Outcome != organizer.OutcomeUndated {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source must stay in place: %v", err)
	}
}

func TestOrganizeUsesMetadataDate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(testsupport.BaseDir(cfg), "mnt", "cam", "clip.mov")
	testsupport.WriteFile(t, src, "")

	org := newOrganizer(t, cfg, organizer.Options{DryRun: true}, organizer.Dependencies{
		Extractor: stubExtractor{doc: metadata.Document{"CreateDate": "2022:02:03 04:05:06"}},
	})
	res, err := org.Organize(context.Background(), src)
	if err != nil {
		t.Fatalf("Organize failed: %v", err)
	}
	if res.Outcome != organizer.OutcomePlanned {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	wantDir := filepath.Join(cfg.Organizer.Local.Videos, "2022-02-03")
	if len(res.Destinations) != 1 || res.Destinations[0] != wantDir {
		t.Fatalf("destinations = %v, want %s", res.Destinations, wantDir)
	}
	if _, err := os.Stat(wantDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run created destination: %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("dry run moved source: %v", err)
	}
}

func TestOrganizeBothCopiesLocalThenMovesRemote(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(testsupport.BaseDir(cfg), "mnt", "phone", "VID_20240102_030405.mp4")
	testsupport.WriteFile(t, src, "")

	org := newOrganizer(t, cfg, organizer.Options{Target: organizer.TargetBoth}, organizer.Dependencies{})
	res, err := org.Organize(context.Background(), src)
	if err != nil {
		t.Fatalf("Organize failed: %v", err)
	}
	if res.Outcome != organizer.OutcomeMoved || len(res.Destinations) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	for _, root := range []string{cfg.Organizer.Local.Videos, cfg.Organizer.Remote.Videos} {
		if _, err := os.Stat(filepath.Join(root, "2024-01-02", "VID_20240102_030405.mp4")); err != nil {
			t.Fatalf("missing copy under %s: %v", root, err)
		}
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source should be removed by the final transfer, stat err=%v", err)
	}
}

func TestOrganizeSkipsProcessedFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	src := filepath.Join(testsupport.BaseDir(cfg), "mnt", "phone", "PXL_20230615_141055123.jpg")
	testsupport.WriteFile(t, src, "")
	if err := st.Guard().MarkProcessed(context.Background(), src, media.CategoryPhotos, "run"); err != nil {
		t.Fatal(err)
	}

	org := newOrganizer(t, cfg, organizer.Options{}, organizer.Dependencies{Guard: store.NewGuard(st)})
	res, err := org.Organize(context.Background(), src)
	if err != nil || res.Outcome != organizer.OutcomeProcessed {
		t.Fatalf("Organize = %+v, %v", res, err)
	}
}

func TestRunSummarizesSources(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := filepath.Join(testsupport.BaseDir(cfg), "mnt", "card")
	testsupport.WriteFile(t, filepath.Join(base, "DCIM", "IMG_20240101_101010.jpg"), "")
	testsupport.WriteFile(t, filepath.Join(base, "DCIM", ".thumbnails", "IMG_20240101_101010.jpg"), "")
	testsupport.WriteFile(t, filepath.Join(base, "notes.txt"), "")

	org := newOrganizer(t, cfg, organizer.Options{}, organizer.Dependencies{})
	summary, err := org.Run(context.Background(), []string{base})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Scanned != 3 || summary.Moved != 1 || summary.Skipped != 1 || summary.Unresolved != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRsyncArgs(t *testing.T) {
	s := &organizer.RsyncSyncer{Binary: "rsync"}
	got := s.Args("/mnt/a.jpg", "/dst/2024-01-01", true)
	want := []string{"-rlptD", "--remove-source-files", "/mnt/a.jpg", "/dst/2024-01-01/"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Args = %v, want %v", got, want)
	}
	exec := &stubExecutor{err: errors.New("exit status 23")}
	s.Exec = exec
	if err := s.Transfer(context.Background(), "/mnt/a.jpg", "/dst", false); err == nil {
		t.Fatal("expected rsync failure to surface")
	}
	if len(exec.calls) != 1 || exec.calls[0][1] != "-rlptD" || len(exec.calls[0]) != 4 {
		t.Fatalf("unexpected rsync call %v", exec.calls)
	}
}

func TestStampFailureIsReportedNotFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	testsupport.WriteFile(t, path, "")
	stamper := &organizer.Stamper{Exiftool: "exiftool", Exec: &stubExecutor{err: errors.New("boom")}}
	when := time.Date(2021, 1, 2, 3, 4, 5, 0, time.Local)

	res := stamper.Stamp(context.Background(), path, when)
	if res.OK() || !errors.Is(res.Tags, services.ErrStamping) {
		t.Fatalf("expected tag stamping failure, got %+v", res)
	}
	if res.Times != nil {
		t.Fatalf("times should still be set: %v", res.Times)
	}
	info, _ := os.Stat(path)
	if !info.ModTime().Equal(when) {
		t.Fatalf("mtime = %v", info.ModTime())
	}
}

func TestParseTarget(t *testing.T) {
	if got, err := organizer.ParseTarget(" Both "); err != nil || got != organizer.TargetBoth {
		t.Fatalf("ParseTarget = %q, %v", got, err)
	}
	if _, err := organizer.ParseTarget("cloud"); err == nil {
		t.Fatal("expected error for unknown target")
	}
}
