package main

import (
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mediasort/internal/batch"
	"mediasort/internal/config"
	"mediasort/internal/ingest"
	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/preflight"
	"mediasort/internal/store"
)

type ingestFlags struct {
	photos    bool
	videos    bool
	audio     bool
	documents bool
	all       bool
	dryRun    bool
	verbose   bool
	debug     bool
	moveOnly  bool
	target    string
	sources   []string
}

func (f ingestFlags) categories() []media.Category {
	if f.all {
		return media.Categories()
	}
	var out []media.Category
	if f.photos {
		out = append(out, media.CategoryPhotos)
	}
	if f.videos {
		out = append(out, media.CategoryVideos)
	}
	if f.audio {
		out = append(out, media.CategoryAudio)
	}
	if f.documents {
		out = append(out, media.CategoryDocuments)
	}
	if len(out) == 0 {
		return media.Categories()
	}
	return out
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var flags ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Scan sources and record capture metadata in the database",
		Long: "Scan the configured (or given) source directories, resolve each file's capture date\n" +
			"and insert or complete its metadata record. Files already processed are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.moveOnly {
				return runMove(cmd, ctx, moveFlags{
					target:  flags.target,
					sources: flags.sources,
					dryRun:  flags.dryRun,
					debug:   flags.debug,
				})
			}
			return runIngest(cmd, ctx, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.photos, "photos", false, "Scan photo sources")
	cmd.Flags().BoolVar(&flags.videos, "videos", false, "Scan video sources")
	cmd.Flags().BoolVar(&flags.audio, "audio", false, "Scan audio sources")
	cmd.Flags().BoolVar(&flags.documents, "documents", false, "Scan document sources")
	cmd.Flags().BoolVar(&flags.all, "all", false, "Scan every category (default when none is selected)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Log intended changes without writing to the database")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log every processed file")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringSliceVar(&flags.sources, "sources", nil, "Source directories (overrides the configured ones)")
	cmd.Flags().BoolVar(&flags.moveOnly, "move-only", false, "Organize files instead of ingesting (same as `mediasort move`)")
	cmd.Flags().StringVar(&flags.target, "target", "", "Destination tree for --move-only: local, remote or both")
	return cmd
}

func runIngest(cmd *cobra.Command, ctx *commandContext, flags ingestFlags) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flags.dryRun {
		flags.verbose = true
	}
	env, err := ctx.startRun(runOptions{dryRun: flags.dryRun, debug: flags.debug, exclusive: true})
	if err != nil {
		return err
	}
	defer env.close()
	cfg, logger := env.cfg, env.logger

	categories := flags.categories()
	sources := make(map[media.Category][]string, len(categories))
	var scoped []string
	for _, category := range categories {
		dirs := cfg.SourcesFor(category)
		if len(flags.sources) > 0 {
			dirs = expandAll(flags.sources)
		}
		sources[category] = dirs
		scoped = append(scoped, dirs...)
	}

	if err := preflight.FirstFailure(preflight.RunAll(cfg, preflight.Scope{Sources: scoped})); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}

	st, err := store.OpenFromConfig(cfg, flags.dryRun)
	if err != nil {
		logger.Error("open database", logging.Error(err), logging.String("path", cfg.Store.Path))
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	catalog, err := cfg.Catalog()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	extractor, err := newExtractor(cfg, logger)
	if err != nil {
		return err
	}

	scanner, err := ingest.New(cfg, ingest.Dependencies{
		Store:     st,
		Extractor: extractor,
		Catalog:   catalog,
	}, ingest.Options{
		Categories: categories,
		Sources:    sources,
		DryRun:     flags.dryRun,
		Verbose:    flags.verbose,
		RunID:      env.runID,
	}, logger)
	if err != nil {
		return err
	}

	report, runErr := scanner.Run(signalCtx)
	out := cmd.OutOrStdout()
	printIngestReport(out, report, shouldColorize(out))
	if env.logPath != "" {
		fmt.Fprintf(out, "Run log: %s\n", env.logPath)
	}
	return runErr
}

func printIngestReport(out io.Writer, report ingest.Report, colorize bool) {
	headers := []string{"Category", "Scanned", "Inserted", "Updated", "Skipped", "Unmatched", "Failed", "Time"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
	rows := make([][]string, 0, len(report.Categories)+1)
	for _, cat := range report.Categories {
		rows = append(rows, counterRow(string(cat.Category), cat.Counters, cat.Duration.Round(10*time.Millisecond).String(), colorize))
	}
	if len(report.Categories) > 1 {
		rows = append(rows, counterRow("Total", report.Total, "", colorize))
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns, colorize))
}

func counterRow(label string, c batch.Counters, elapsed string, colorize bool) []string {
	failed := strconv.Itoa(c.Failed)
	if c.Failed > 0 {
		failed = paint(failed, ansiRed, colorize)
	}
	unmatched := strconv.Itoa(c.Unmatched)
	if c.Unmatched > 0 {
		unmatched = paint(unmatched, ansiYellow, colorize)
	}
	return []string{
		label,
		strconv.Itoa(c.Scanned),
		strconv.Itoa(c.Inserted),
		strconv.Itoa(c.Updated),
		strconv.Itoa(c.Skipped),
		unmatched,
		failed,
		elapsed,
	}
}

// expandAll expands ~ and $VARS in user-supplied paths, keeping any entry
// that fails to expand as given.
func expandAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		expanded, err := config.ExpandPath(value)
		if err != nil || expanded == "" {
			expanded = value
		}
		out = append(out, expanded)
	}
	return out
}
