package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mediasort/internal/logging"
	"mediasort/internal/organizer"
	"mediasort/internal/runlock"
	"mediasort/internal/sources"
)

const mountsTable = "/proc/self/mounts"

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Move media from removable devices as they are plugged in",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			env, err := ctx.startRun(runOptions{debug: debug})
			if err != nil {
				return err
			}
			defer env.close()
			cfg, logger := env.cfg, env.logger

			targetValue := strings.TrimSpace(cfg.Watch.Target)
			if targetValue == "" {
				targetValue = cfg.Organizer.Target
			}
			target, err := organizer.ParseTarget(targetValue)
			if err != nil {
				return err
			}
			settle := time.Duration(cfg.Watch.SettleSeconds) * time.Second

			handler := func(ctx context.Context, device string) {
				deviceLogger := logger.With(logging.String("device", device))
				if settle > 0 {
					select {
					case <-ctx.Done():
						return
					case <-time.After(settle):
					}
				}
				mounts, err := sources.MountPoints(mountsTable, device)
				if err != nil || len(mounts) == 0 {
					logging.WarnWithContext(deviceLogger, "device is not mounted", "watch_not_mounted",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "mount the device or raise watch.settle_seconds"),
					)
					return
				}
				lock, err := runlock.Acquire(cfg.LockPath())
				if err != nil {
					logging.WarnWithContext(deviceLogger, "skipping device", "watch_locked", logging.Error(err))
					return
				}
				defer lock.Release()
				summary, err := runMoveOnce(ctx, cfg, target, mounts, deviceLogger)
				if err != nil {
					deviceLogger.Error("organize device", logging.Error(err))
					return
				}
				deviceLogger.Info("device organized",
					logging.String("summary", summary.String()),
					logging.EventType("watch_device_done"),
				)
			}

			monitor := sources.NewMonitor(cfg.Watch, logger, handler)
			if err := monitor.Start(signalCtx); err != nil {
				return fmt.Errorf("start hotplug monitor: %w", err)
			}
			defer monitor.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching for removable media (target %s). Press Ctrl+C to stop.\n", target)
			<-signalCtx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}
