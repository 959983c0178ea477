package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	if err := c.normalizeIngest(); err != nil {
		return err
	}
	if err := c.normalizeOrganizer(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeWatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() error {
	c.Store.Path = strings.TrimSpace(c.Store.Path)
	if c.Store.Path == "" {
		if value, ok := os.LookupEnv(EnvDatabasePath); ok {
			c.Store.Path = strings.TrimSpace(value)
		}
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.Paths.StateDir, defaultDatabaseName)
	}
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	if c.Store.BatchSize <= 0 {
		c.Store.BatchSize = defaultBatchSize
	}
	if c.Store.BusyTimeoutMS <= 0 {
		c.Store.BusyTimeoutMS = defaultBusyTimeoutMS
	}
	return nil
}

func (c *Config) normalizeIngest() error {
	var err error
	lists := []struct {
		key   string
		value *[]string
	}{
		{"ingest.photos", &c.Ingest.Photos},
		{"ingest.videos", &c.Ingest.Videos},
		{"ingest.audio", &c.Ingest.Audio},
		{"ingest.documents", &c.Ingest.Documents},
	}
	for _, list := range lists {
		if *list.value, err = expandPaths(*list.value); err != nil {
			return fmt.Errorf("%s: %w", list.key, err)
		}
	}
	fields := make([]string, 0, len(c.Ingest.DateFields))
	for _, field := range c.Ingest.DateFields {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}
	c.Ingest.DateFields = fields
	if c.Ingest.CatalogPath, err = expandPath(strings.TrimSpace(c.Ingest.CatalogPath)); err != nil {
		return fmt.Errorf("ingest.catalog_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeOrganizer() error {
	c.Organizer.Target = strings.ToLower(strings.TrimSpace(c.Organizer.Target))
	if c.Organizer.Target == "" {
		c.Organizer.Target = defaultTarget
	}
	c.Organizer.Transfer = strings.ToLower(strings.TrimSpace(c.Organizer.Transfer))
	if c.Organizer.Transfer == "" {
		c.Organizer.Transfer = defaultTransfer
	}
	var err error
	if c.Organizer.Sources, err = expandPaths(c.Organizer.Sources); err != nil {
		return fmt.Errorf("organizer.sources: %w", err)
	}
	if c.Organizer.CandidateRoots, err = expandPaths(c.Organizer.CandidateRoots); err != nil {
		return fmt.Errorf("organizer.candidate_roots: %w", err)
	}
	if err := expandRoots("organizer.local", &c.Organizer.Local); err != nil {
		return err
	}
	return expandRoots("organizer.remote", &c.Organizer.Remote)
}

func (c *Config) normalizeTools() {
	c.Tools.Exiftool = strings.TrimSpace(c.Tools.Exiftool)
	if c.Tools.Exiftool == "" {
		c.Tools.Exiftool = defaultExiftool
	}
	c.Tools.Rsync = strings.TrimSpace(c.Tools.Rsync)
	if c.Tools.Rsync == "" {
		c.Tools.Rsync = defaultRsync
	}
	c.Tools.Touch = strings.TrimSpace(c.Tools.Touch)
	if c.Tools.Touch == "" {
		c.Tools.Touch = defaultTouch
	}
}

func (c *Config) normalizeWatch() {
	c.Watch.Subsystem = strings.TrimSpace(c.Watch.Subsystem)
	if c.Watch.Subsystem == "" {
		c.Watch.Subsystem = defaultWatchSubsystem
	}
	c.Watch.DevType = strings.TrimSpace(c.Watch.DevType)
	c.Watch.Target = strings.ToLower(strings.TrimSpace(c.Watch.Target))
	if c.Watch.Target == "" {
		c.Watch.Target = c.Organizer.Target
	}
	if c.Watch.SettleSeconds < 0 {
		c.Watch.SettleSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func expandPaths(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		expanded, err := expandPath(value)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[expanded]; dup {
			continue
		}
		seen[expanded] = struct{}{}
		out = append(out, expanded)
	}
	return out, nil
}

func expandRoots(section string, roots *Roots) error {
	fields := []struct {
		key   string
		value *string
	}{
		{"photos", &roots.Photos},
		{"videos", &roots.Videos},
		{"dashcam", &roots.Dashcam},
		{"social", &roots.Social},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s.%s: %w", section, field.key, err)
		}
		*field.value = expanded
	}
	return nil
}
