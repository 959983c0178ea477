package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateOrganizer(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStore() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path must be set (or set %s)", EnvDatabasePath)
	}
	return ensurePositiveMap(map[string]int{
		"store.batch_size":      c.Store.BatchSize,
		"store.busy_timeout_ms": c.Store.BusyTimeoutMS,
	})
}

func (c *Config) validateOrganizer() error {
	if !validTarget(c.Organizer.Target) {
		return fmt.Errorf("organizer.target must be local, remote, or both (got %q)", c.Organizer.Target)
	}
	switch c.Organizer.Transfer {
	case "rsync", "native":
	default:
		return fmt.Errorf("organizer.transfer must be rsync or native (got %q)", c.Organizer.Transfer)
	}
	if err := requireRoots("organizer.local", c.Organizer.Local); err != nil {
		return err
	}
	return requireRoots("organizer.remote", c.Organizer.Remote)
}

func (c *Config) validateWatch() error {
	if !validTarget(c.Watch.Target) {
		return fmt.Errorf("watch.target must be local, remote, or both (got %q)", c.Watch.Target)
	}
	if strings.TrimSpace(c.Watch.Subsystem) == "" {
		return errors.New("watch.subsystem must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func validTarget(target string) bool {
	switch target {
	case "local", "remote", "both":
		return true
	}
	return false
}

func requireRoots(section string, roots Roots) error {
	for key, value := range map[string]string{
		"photos":  roots.Photos,
		"videos":  roots.Videos,
		"dashcam": roots.Dashcam,
		"social":  roots.Social,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s.%s must be set", section, key)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
