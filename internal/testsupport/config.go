package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mediasort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Every source and destination root lives under the same temp base.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Store.Path = filepath.Join(base, "state", "mediasort.db")
	cfgVal.Ingest.Photos = []string{filepath.Join(base, "sources", "Photos")}
	cfgVal.Ingest.Videos = []string{filepath.Join(base, "sources", "Videos")}
	cfgVal.Ingest.Audio = []string{filepath.Join(base, "sources", "Audio")}
	cfgVal.Ingest.Documents = []string{filepath.Join(base, "sources", "Documents")}
	cfgVal.Organizer.CandidateRoots = []string{filepath.Join(base, "mnt")}
	cfgVal.Organizer.Local = config.Roots{
		Photos:  filepath.Join(base, "local", "Pictures"),
		Videos:  filepath.Join(base, "local", "Videos"),
		Dashcam: filepath.Join(base, "local", "Videos", "DC"),
		Social:  filepath.Join(base, "local", "Videos", "TikTok"),
	}
	cfgVal.Organizer.Remote = config.Roots{
		Photos:  filepath.Join(base, "remote", "photos"),
		Videos:  filepath.Join(base, "remote", "videos"),
		Dashcam: filepath.Join(base, "remote", "videos", "DC"),
		Social:  filepath.Join(base, "remote", "videos", "TikTok"),
	}
	cfgVal.Organizer.Transfer = "native"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTarget sets the organizer target on the test config.
func WithTarget(target string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organizer.Target = target
	}
}

// WithBatchSize overrides the store batch size.
func WithBatchSize(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.BatchSize = n
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default mediasort external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"exiftool", "rsync", "touch"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
