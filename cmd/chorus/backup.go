package main

import (
	"context"
	"fmt"

	"github.com/chorusd/chorus/internal/backup"
	"github.com/chorusd/chorus/internal/coordinator"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage event log backups",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Take a backup snapshot now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithProject(cmd, func(ctx context.Context, p *coordinator.Project) error {
			engine, err := backup.NewEngine(p.Store(), cfg.Backup)
			if err != nil {
				return err
			}

			path, err := engine.RunOnce()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "snapshot written: %s\n", path)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithProject(cmd, func(ctx context.Context, p *coordinator.Project) error {
			engine, err := backup.NewEngine(p.Store(), cfg.Backup)
			if err != nil {
				return err
			}

			names, err := engine.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backups found")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupRunCmd)
	backupCmd.AddCommand(backupListCmd)
}
