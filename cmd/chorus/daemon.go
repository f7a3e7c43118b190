package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chorusd/chorus/internal/backup"
	"github.com/chorusd/chorus/internal/config"
	"github.com/chorusd/chorus/internal/coordinator"
	"github.com/chorusd/chorus/internal/store"

	"github.com/spf13/cobra"
)

const defaultStaleLockTTL = "24h"

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Hold the project open and run scheduled backups",
	Long:  `Keeps the project store locked and runs the backup schedule until interrupted. Useful on a machine that should own the project's event log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		// A previous daemon that died without unlocking would block this one
		// forever; clear its lock before opening the store.
		projectID, _ := cmd.Flags().GetString("project")
		forceUnlock, _ := cmd.Flags().GetBool("force-unlock")
		staleTTL, err := config.DurationOrDefault(
			cmd.Flag("stale-lock-ttl").Value.String(), defaultStaleLockTTL)
		if err != nil {
			return err
		}
		if err := store.CleanupStaleLocks(projectID, cfg.Store.RootPath, staleTTL, forceUnlock); err != nil {
			slog.Warn("Failed to clean up stale lock", "project", projectID, "error", err)
		}

		return executeWithProject(cmd, func(ctx context.Context, p *coordinator.Project) error {
			if !cfg.Backup.Enabled {
				return fmt.Errorf("backup.enabled is false; the daemon has nothing to schedule")
			}

			engine, err := backup.NewEngine(p.Store(), cfg.Backup)
			if err != nil {
				return err
			}

			handler := NewSignalHandler(ctx)
			handler.Start()
			defer handler.Stop()

			engine.Start(handler.Context())
			defer engine.Stop()

			slog.Info("Daemon running", "project", p.ID(), "schedule", cfg.Backup.Schedule)
			handler.Wait()
			slog.Info("Daemon stopped", "project", p.ID())
			return nil
		})
	},
}

func init() {
	daemonCmd.Flags().Bool("force-unlock", false, "remove a stale project lock left by a crashed process")
	daemonCmd.Flags().String("stale-lock-ttl", defaultStaleLockTTL, "minimum age before a lock counts as stale")
	rootCmd.AddCommand(daemonCmd)
}
