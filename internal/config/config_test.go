package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediasort/internal/config"
	"mediasort/internal/media"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvDatabasePath, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "mediasort")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Store.Path != filepath.Join(wantState, "mediasort.db") {
		t.Fatalf("unexpected store path: %q", cfg.Store.Path)
	}
	if cfg.Store.BatchSize != 10 {
		t.Fatalf("unexpected batch size: %d", cfg.Store.BatchSize)
	}
	if cfg.Organizer.Local.Photos != filepath.Join(tempHome, "Pictures") {
		t.Fatalf("unexpected local photos root: %q", cfg.Organizer.Local.Photos)
	}
	if cfg.Organizer.Remote.Dashcam != "/multimedia/videos/DC" {
		t.Fatalf("unexpected remote dashcam root: %q", cfg.Organizer.Remote.Dashcam)
	}
	if cfg.Watch.Target != cfg.Organizer.Target {
		t.Fatalf("expected watch target to follow organizer target, got %q", cfg.Watch.Target)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mediasort.toml")

	type payload struct {
		Store struct {
			Path      string `toml:"path"`
			BatchSize int    `toml:"batch_size"`
		} `toml:"store"`
		Organizer struct {
			Target   string `toml:"target"`
			Transfer string `toml:"transfer"`
		} `toml:"organizer"`
		Ingest struct {
			Photos []string `toml:"photos"`
		} `toml:"ingest"`
	}
	custom := payload{}
	custom.Store.Path = filepath.Join(tempDir, "db", "media.db")
	custom.Store.BatchSize = 3
	custom.Organizer.Target = "Both"
	custom.Organizer.Transfer = "native"
	custom.Ingest.Photos = []string{tempDir, tempDir, " "}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Store.BatchSize != 3 {
		t.Fatalf("expected batch size 3, got %d", cfg.Store.BatchSize)
	}
	if cfg.Organizer.Target != "both" {
		t.Fatalf("expected target to be lowercased, got %q", cfg.Organizer.Target)
	}
	if got := cfg.SourcesFor(media.CategoryPhotos); len(got) != 1 || got[0] != tempDir {
		t.Fatalf("expected deduplicated photo sources, got %v", got)
	}
	if got := cfg.SourcesFor(media.CategoryAudio); len(got) != 0 {
		t.Fatalf("expected no audio sources, got %v", got)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mediasort.toml")
	if err := os.WriteFile(configPath, []byte("[store]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestEnvDatabasePathFillsEmptyStorePath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	want := filepath.Join(t.TempDir(), "env.db")
	t.Setenv(config.EnvDatabasePath, want)

	configPath := filepath.Join(t.TempDir(), "mediasort.toml")
	if err := os.WriteFile(configPath, []byte("[store]\npath = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Store.Path != want {
		t.Fatalf("expected store path from env, got %q", cfg.Store.Path)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[organizer.remote]") {
		t.Fatalf("sample config missing remote roots: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StateDir, "mediasort") {
		t.Fatalf("expected state dir to contain mediasort, got %q", cfg.Paths.StateDir)
	}
	if cfg.Store.BatchSize != 10 {
		t.Fatalf("expected sample batch size 10, got %d", cfg.Store.BatchSize)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"target", func(c *config.Config) { c.Organizer.Target = "cloud" }},
		{"transfer", func(c *config.Config) { c.Organizer.Transfer = "scp" }},
		{"batch", func(c *config.Config) { c.Store.BatchSize = 0 }},
		{"store path", func(c *config.Config) { c.Store.Path = "" }},
		{"remote root", func(c *config.Config) { c.Organizer.Remote.Social = "" }},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"retention", func(c *config.Config) { c.Logging.RetentionDays = -1 }},
	}
	for _, tc := range cases {
		cfg := config.Default()
		cfg.Store.Path = "/tmp/mediasort.db"
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	cfg := config.Default()
	cfg.Store.Path = "/tmp/mediasort.db"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestCatalogOverrideReplacesCategory(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	doc := `extensions:
  Photos: ["jpg", ".heic"]
fields:
  Photos:
    FileName: file_name
    CreateDate: date_taken
`
	if err := os.WriteFile(catalogPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	cfg := config.Default()
	cfg.Ingest.CatalogPath = catalogPath

	catalog, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog returned error: %v", err)
	}
	if got := catalog.Extensions(media.CategoryPhotos); len(got) != 2 || got[0] != ".heic" || got[1] != ".jpg" {
		t.Fatalf("unexpected photo extensions: %v", got)
	}
	if catalog.Has(media.CategoryPhotos, ".png") {
		t.Fatal("expected override to replace default photo extensions")
	}
	if !catalog.Has(media.CategoryVideos, ".mp4") {
		t.Fatal("expected untouched categories to keep defaults")
	}
	if catalog.FieldMapping(media.CategoryPhotos)["CreateDate"] != "date_taken" {
		t.Fatal("expected overridden field mapping")
	}
}

func TestCatalogOverrideRejectsUnknownCategory(t *testing.T) {
	catalogPath := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(catalogPath, []byte("extensions:\n  Slides: [\".ppt\"]\n"), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	cfg := config.Default()
	cfg.Ingest.CatalogPath = catalogPath
	if _, err := cfg.Catalog(); err == nil {
		t.Fatal("expected error for unknown category")
	}
}
