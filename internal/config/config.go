package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"mediasort/internal/media"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state and log directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Store contains configuration for the SQLite record store.
type Store struct {
	Path          string `toml:"path"`
	BatchSize     int    `toml:"batch_size"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
}

// Ingest contains configuration for metadata ingestion.
type Ingest struct {
	Photos      []string `toml:"photos"`
	Videos      []string `toml:"videos"`
	Audio       []string `toml:"audio"`
	Documents   []string `toml:"documents"`
	DateFields  []string `toml:"date_fields"`
	CatalogPath string   `toml:"catalog_path"`
	NativeEXIF  bool     `toml:"native_exif"`
}

// Roots lists the category roots of one destination tree.
type Roots struct {
	Photos  string `toml:"photos"`
	Videos  string `toml:"videos"`
	Dashcam string `toml:"dashcam"`
	Social  string `toml:"social"`
}

// Organizer contains configuration for moving files into date trees.
type Organizer struct {
	Target         string   `toml:"target"`
	Transfer       string   `toml:"transfer"`
	Stamp          bool     `toml:"stamp"`
	Sources        []string `toml:"sources"`
	CandidateRoots []string `toml:"candidate_roots"`
	Local          Roots    `toml:"local"`
	Remote         Roots    `toml:"remote"`
}

// Tools names the external binaries.
type Tools struct {
	Exiftool string `toml:"exiftool"`
	Rsync    string `toml:"rsync"`
	Touch    string `toml:"touch"`
}

// Watch contains configuration for the hotplug watcher.
type Watch struct {
	Subsystem     string `toml:"subsystem"`
	DevType       string `toml:"devtype"`
	SettleSeconds int    `toml:"settle_seconds"`
	Target        string `toml:"target"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for mediasort.
//
// Configuration sections by subsystem:
//   - Paths: state (database, run lock) and log directories
//   - Store: SQLite location, batch size and busy timeout
//   - Ingest: per-category source directories, date fields, catalog override
//   - Organizer: destination trees, transfer method, candidate mount roots
//   - Tools: exiftool, rsync and touch binaries
//   - Watch: removable media hotplug settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Store     Store     `toml:"store"`
	Ingest    Ingest    `toml:"ingest"`
	Organizer Organizer `toml:"organizer"`
	Tools     Tools     `toml:"tools"`
	Watch     Watch     `toml:"watch"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediasort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, filepath.Dir(c.Store.Path)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the run lock file shared by every mutating command.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "mediasort.lock")
}

// SourcesFor returns the configured ingest source directories for category.
func (c *Config) SourcesFor(category media.Category) []string {
	switch category {
	case media.CategoryPhotos:
		return append([]string(nil), c.Ingest.Photos...)
	case media.CategoryVideos:
		return append([]string(nil), c.Ingest.Videos...)
	case media.CategoryAudio:
		return append([]string(nil), c.Ingest.Audio...)
	case media.CategoryDocuments:
		return append([]string(nil), c.Ingest.Documents...)
	default:
		return nil
	}
}

// ExiftoolBinary returns the metadata tool executable name.
func (c *Config) ExiftoolBinary() string {
	return c.Tools.Exiftool
}

// RsyncBinary returns the rsync executable name.
func (c *Config) RsyncBinary() string {
	return c.Tools.Rsync
}

// TouchBinary returns the touch executable name.
func (c *Config) TouchBinary() string {
	return c.Tools.Touch
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	pathValue = os.ExpandEnv(pathValue)
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
