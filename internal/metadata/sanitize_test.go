package metadata_test

import (
	"testing"
	"time"

	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/metadata"
)

func TestParseSize(t *testing.T) {
	cases := []struct {
		raw  any
		want int64
	}{
		{"2.5 MB", 2621440},
		{"100 KB", 102400},
		{"512 B", 512},
		{"1 gb", 1073741824},
		{"100 kB", 102400},
		{float64(2048), 2048},
		{"4096", 4096},
		{"1234.0", 1234},
		{" 99.6 ", 100},
	}
	for _, tc := range cases {
		got, err := metadata.ParseSize(tc.raw)
		if err != nil {
			t.Fatalf("ParseSize(%v) returned error: %v", tc.raw, err)
		}
		if got != metadata.Int(tc.want) {
			t.Fatalf("ParseSize(%v)=%v want %d", tc.raw, got, tc.want)
		}
	}
	for _, raw := range []string{"huge", "NaN", "-12.5", "Inf"} {
		if _, err := metadata.ParseSize(raw); err == nil {
			t.Fatalf("expected error for size %q", raw)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		raw  any
		want metadata.Value
	}{
		{"01:02:03", metadata.Int(3723)},
		{"5:30", metadata.Int(330)},
		{"45", metadata.Float(45)},
		{"12.34 s", metadata.Float(12.34)},
		{"5.03 s (approx)", metadata.Float(5.03)},
		{float64(7.5), metadata.Float(7.5)},
	}
	for _, tc := range cases {
		got, err := metadata.ParseDuration(tc.raw)
		if err != nil {
			t.Fatalf("ParseDuration(%v) returned error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseDuration(%v)=%#v want %#v", tc.raw, got, tc.want)
		}
	}
	if _, err := metadata.ParseDuration("unknown"); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func newSanitizer(t *testing.T, category media.Category) *metadata.Sanitizer {
	t.Helper()
	s, err := metadata.NewSanitizer(media.DefaultCatalog().FieldMapping(category), logging.NewNop())
	if err != nil {
		t.Fatalf("NewSanitizer returned error: %v", err)
	}
	return s
}

func TestSanitizePhoto(t *testing.T) {
	s := newSanitizer(t, media.CategoryPhotos)
	doc := metadata.Document{
		"FileName":         "IMG_0001.JPG",
		"Directory":        "/src/dcim",
		"DateTimeOriginal": "2021:07:04 18:30:00+02:00",
		"Flash":            "Yes",
		"FileSize":         "2.5 MB",
		"ImageWidth":       float64(4032),
		"ImageHeight":      "3024",
		"Make":             "Google\x00",
		"Model":            "N/A",
		"MIMEType":         "image/jpeg",
	}
	payload := s.Sanitize(doc, "/src/dcim/IMG_0001.JPG")

	want := map[metadata.Field]metadata.Value{
		metadata.FieldFileName:     metadata.Text("IMG_0001.JPG"),
		metadata.FieldFileLocation: metadata.Text("/src/dcim"),
		metadata.FieldDateTaken:    metadata.Time(time.Date(2021, 7, 4, 18, 30, 0, 0, time.Local)),
		metadata.FieldFlash:        metadata.Bool(true),
		metadata.FieldSize:         metadata.Int(2621440),
		metadata.FieldWidth:        metadata.Int(4032),
		metadata.FieldHeight:       metadata.Int(3024),
		metadata.FieldCameraMake:   metadata.Text("Google"),
		metadata.FieldMimeType:     metadata.Text("image/jpeg"),
	}
	for field, value := range want {
		got, ok := payload.Get(field)
		if !ok {
			t.Fatalf("missing field %s", field)
		}
		if got.String() != value.String() || got.Kind() != value.Kind() {
			t.Fatalf("field %s = %v want %v", field, got, value)
		}
	}
	if _, ok := payload.Get(metadata.FieldCameraModel); ok {
		t.Fatal("expected N/A model to be skipped")
	}
}

func TestSanitizeIsolatesFieldErrors(t *testing.T) {
	s := newSanitizer(t, media.CategoryVideos)
	doc := metadata.Document{
		"CreateDate": "0000:00:00 00:00:00",
		"Duration":   "not a duration",
		"FileSize":   "10 KB",
	}
	payload := s.Sanitize(doc, "/videos/clip.mp4")
	if _, ok := payload.Get(metadata.FieldDateTaken); ok {
		t.Fatal("expected sentinel date skipped")
	}
	if _, ok := payload.Get(metadata.FieldDuration); ok {
		t.Fatal("expected bad duration dropped")
	}
	if got := payload.Text(metadata.FieldSize); got != "10240" {
		t.Fatalf("expected size kept, got %q", got)
	}
	if got := payload.Text(metadata.FieldFileName); got != "clip.mp4" {
		t.Fatalf("expected basename default, got %q", got)
	}
	if got := payload.Text(metadata.FieldFileLocation); got != "/videos" {
		t.Fatalf("expected dirname default, got %q", got)
	}
}

func TestSanitizeEmptyDocumentUsesPath(t *testing.T) {
	s := newSanitizer(t, media.CategoryDocuments)
	payload := s.Sanitize(metadata.Document{}, "/docs/Cafe\u0301.pdf")
	if got := payload.Text(metadata.FieldFileName); got != "Caf\u00e9.pdf" {
		t.Fatalf("expected NFC basename, got %q", got)
	}
	if fields := payload.Fields(); len(fields) != 2 {
		t.Fatalf("expected only name and location, got %v", fields)
	}
}

func TestSanitizeFlashTokens(t *testing.T) {
	s := newSanitizer(t, media.CategoryPhotos)
	cases := map[any]bool{
		"on":                true,
		"TRUE":              true,
		float64(1):          true,
		"Off, Did not fire": false,
		"No":                false,
		true:                true,
	}
	for raw, want := range cases {
		payload := s.Sanitize(metadata.Document{"Flash": raw}, "/p/a.jpg")
		if got, _ := payload.Get(metadata.FieldFlash); got != metadata.Bool(want) {
			t.Fatalf("flash %v = %v want %v", raw, got, want)
		}
	}
}

func TestNewSanitizerRejectsUnknownField(t *testing.T) {
	if _, err := metadata.NewSanitizer(map[string]string{"Rating": "stars"}, nil); err == nil {
		t.Fatal("expected error for unknown storage field")
	}
}
