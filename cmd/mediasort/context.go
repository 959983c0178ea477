package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/logging"
	"mediasort/internal/metadata"
	"mediasort/internal/runlock"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

type runOptions struct {
	dryRun bool
	debug  bool
	// exclusive takes the run lock unless dryRun is set.
	exclusive bool
}

// runEnv is the per-invocation wiring shared by the mutating commands.
type runEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	logPath string
	runID   string
	lock    *runlock.Lock
}

func (c *commandContext) startRun(opts runOptions) (*runEnv, error) {
	loaded, err := c.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := *loaded
	if opts.dryRun || opts.debug {
		cfg.Logging.Level = "debug"
	}

	started := time.Now()
	runID := uuid.NewString()
	logger, logPath, err := logging.NewFromConfig(&cfg, started)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldRunID, runID))
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)

	env := &runEnv{cfg: &cfg, logger: logger, logPath: logPath, runID: runID}
	if opts.exclusive && !opts.dryRun {
		lock, err := runlock.Acquire(cfg.LockPath())
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		env.lock = lock
	}
	if opts.dryRun {
		logger.Info("dry run: no database or file changes will be made")
	}
	return env, nil
}

func (e *runEnv) close() {
	if e == nil {
		return
	}
	if err := e.lock.Release(); err != nil {
		e.logger.Warn("release run lock", logging.Error(err))
	}
}

// newExtractor builds the exiftool extractor with the in-process EXIF reader
// as fallback when enabled.
func newExtractor(cfg *config.Config, logger *slog.Logger) (*metadata.ExifTool, error) {
	var opts []metadata.Option
	if cfg.Ingest.NativeEXIF {
		opts = append(opts, metadata.WithFallback(metadata.NativeEXIF{}))
	}
	extractor, err := metadata.NewExifTool(cfg.ExiftoolBinary(), logger, opts...)
	if err != nil {
		return nil, err
	}
	if !extractor.Available() {
		logging.WarnWithContext(logger, "metadata tool unavailable", "exiftool_missing",
			logging.String("binary", cfg.ExiftoolBinary()),
			logging.String(logging.FieldErrorHint, "install exiftool or set tools.exiftool"),
			logging.String(logging.FieldImpact, "capture dates come from file names and embedded EXIF only"),
		)
	}
	return extractor, nil
}
