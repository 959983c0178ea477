package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/logging"
	"mediasort/internal/organizer"
	"mediasort/internal/preflight"
	"mediasort/internal/sources"
	"mediasort/internal/store"
	"mediasort/internal/textutil"
)

type moveFlags struct {
	target  string
	sources []string
	dryRun  bool
	debug   bool
	noStamp bool
}

func newMoveCommand(ctx *commandContext) *cobra.Command {
	var flags moveFlags

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move media into date-bucketed destination trees",
		Long: "Classify every file under the selected sources and move it into\n" +
			"<root>/<YYYY-MM-DD>/ of the local tree, the remote tree, or both.\n" +
			"Without --sources the configured sources are used; when none are\n" +
			"configured you are asked to pick from the candidate mount roots.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(cmd, ctx, flags)
		},
	}

	cmd.Flags().StringVar(&flags.target, "target", "", "Destination tree: local, remote or both (default from config)")
	cmd.Flags().StringSliceVar(&flags.sources, "sources", nil, "Source directories to organize")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Log intended moves without touching files")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&flags.noStamp, "no-stamp", false, "Skip writing capture dates back after a move")
	return cmd
}

func runMove(cmd *cobra.Command, ctx *commandContext, flags moveFlags) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env, err := ctx.startRun(runOptions{dryRun: flags.dryRun, debug: flags.debug, exclusive: true})
	if err != nil {
		return err
	}
	defer env.close()
	cfg, logger := env.cfg, env.logger

	targetValue := strings.TrimSpace(flags.target)
	if targetValue == "" {
		targetValue = cfg.Organizer.Target
	}
	target, err := organizer.ParseTarget(targetValue)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	selected, err := resolveMoveSources(cfg, flags.sources, cmd.InOrStdin(), out)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		fmt.Fprintln(out, "No sources selected.")
		return nil
	}

	if !flags.dryRun {
		scope := preflight.Scope{Sources: selected, Trees: treesFor(cfg, target)}
		if err := preflight.FirstFailure(preflight.RunAll(cfg, scope)); err != nil {
			return fmt.Errorf("preflight: %w", err)
		}
	}

	org, closeStore, err := buildOrganizer(cfg, target, flags.dryRun, !flags.noStamp && cfg.Organizer.Stamp, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	fmt.Fprintf(out, "Target: %s\n", textutil.Title(string(target)))
	summary, runErr := org.Run(signalCtx, selected)
	printMoveSummary(out, summary, shouldColorize(out))
	if env.logPath != "" {
		fmt.Fprintf(out, "Run log: %s\n", env.logPath)
	}
	return runErr
}

// resolveMoveSources picks the sources for a move: explicit flags first, then
// the configured list, then an interactive pick over the candidate roots.
func resolveMoveSources(cfg *config.Config, explicit []string, in io.Reader, out io.Writer) ([]string, error) {
	if len(explicit) > 0 {
		return expandAll(explicit), nil
	}
	if len(cfg.Organizer.Sources) > 0 {
		return append([]string(nil), cfg.Organizer.Sources...), nil
	}
	candidates, err := sources.Discover(cfg.Organizer.CandidateRoots)
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}
	return sources.Pick(candidates, in, out)
}

// buildOrganizer wires the organizer. The processed guard is backed by the
// database when one exists; the organizer only reads it, so the store is
// always opened read-only.
func buildOrganizer(cfg *config.Config, target organizer.Target, dryRun, stamp bool, logger *slog.Logger) (*organizer.Organizer, func(), error) {
	syncer, err := organizer.NewSyncer(cfg.Organizer.Transfer, cfg.RsyncBinary())
	if err != nil {
		return nil, nil, err
	}
	extractor, err := newExtractor(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	closeStore := func() {}
	var guard *store.Guard
	st, err := store.OpenFromConfig(cfg, true)
	if err != nil {
		logging.WarnWithContext(logger, "processed markers unavailable", "store_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "files are organized without the processed check"),
		)
	} else {
		guard = st.Guard()
		closeStore = func() { _ = st.Close() }
	}

	org, err := organizer.New(cfg, organizer.Dependencies{
		Catalog:   catalog,
		Syncer:    syncer,
		Stamper:   organizer.NewStamper(cfg.ExiftoolBinary(), cfg.TouchBinary()),
		Extractor: extractor,
		Guard:     guard,
	}, organizer.Options{Target: target, DryRun: dryRun, Stamp: stamp}, logger)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return org, closeStore, nil
}

func treesFor(cfg *config.Config, target organizer.Target) []config.Roots {
	switch target {
	case organizer.TargetRemote:
		return []config.Roots{cfg.Organizer.Remote}
	case organizer.TargetBoth:
		return []config.Roots{cfg.Organizer.Local, cfg.Organizer.Remote}
	default:
		return []config.Roots{cfg.Organizer.Local}
	}
}

func printMoveSummary(out io.Writer, s organizer.Summary, colorize bool) {
	failed := strconv.Itoa(s.Failed)
	if s.Failed > 0 {
		failed = paint(failed, ansiRed, colorize)
	}
	moved := strconv.Itoa(s.Moved)
	if s.Moved > 0 {
		moved = paint(moved, ansiGreen, colorize)
	}
	rows := [][]string{
		{"Scanned", strconv.Itoa(s.Scanned)},
		{"Moved", moved},
		{"Planned (dry run)", strconv.Itoa(s.Planned)},
		{"Already at destination", strconv.Itoa(s.Exists)},
		{"Skipped", strconv.Itoa(s.Skipped)},
		{"Unrecognized", strconv.Itoa(s.Unresolved)},
		{"No capture date", strconv.Itoa(s.Undated)},
		{"Failed", failed},
	}
	fmt.Fprintln(out, renderTable([]string{"Outcome", "Files"}, rows, []columnAlignment{alignLeft, alignRight}, colorize))
}

// runMoveOnce organizes sources without a command; watch uses it per device.
func runMoveOnce(ctx context.Context, cfg *config.Config, target organizer.Target, selected []string, logger *slog.Logger) (organizer.Summary, error) {
	org, closeStore, err := buildOrganizer(cfg, target, false, cfg.Organizer.Stamp, logger)
	if err != nil {
		return organizer.Summary{}, err
	}
	defer closeStore()
	return org.Run(ctx, selected)
}
