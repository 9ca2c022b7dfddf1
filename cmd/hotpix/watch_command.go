package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"hotpix/internal/config"
	"hotpix/internal/importer"
	"hotpix/internal/logging"
	"hotpix/internal/photos"
	"hotpix/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch for the configured camera card and import it automatically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTracker(func(cfg *config.Config, tracker *importer.Tracker, _ *photos.Store) error {
				if !cfg.Watch.Enabled {
					return errors.New("watching is disabled; set watch.enabled = true in the configuration")
				}

				lockPath := filepath.Join(cfg.Paths.LogDir, "hotpix-watch.lock")
				lock := flock.New(lockPath)
				ok, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire watch lock: %w", err)
				}
				if !ok {
					return errors.New("another hotpix watch instance is already running")
				}
				defer func() { _ = lock.Unlock() }()

				logFile, err := logging.OpenLogFile(cfg.Paths.LogDir, "hotpix-watch.log")
				if err != nil {
					return err
				}
				defer logFile.Close()

				logger, err := logging.New(logging.Options{
					Level:  cfg.Logging.Level,
					Format: cfg.Logging.Format,
					Output: io.MultiWriter(os.Stderr, logFile),
				})
				if err != nil {
					return err
				}

				handler := func(ctx context.Context, mountPoint string) (*photos.ImportSession, error) {
					return tracker.StartImport(ctx, mountPoint)
				}
				monitor := watch.NewMonitor(cfg, logger, handler)
				if monitor == nil {
					return errors.New("watch.device must be configured")
				}

				runCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer cancel()

				if err := monitor.Start(runCtx); err != nil {
					return err
				}
				defer monitor.Stop()

				fmt.Fprintf(cmd.OutOrStdout(), "Watching %s; imports go to %s\n",
					cfg.Watch.Device, cfg.Paths.LibraryDir)
				<-runCtx.Done()
				return nil
			})
		},
	}
}
