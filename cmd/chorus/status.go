package main

import (
	"context"
	"fmt"

	"github.com/chorusd/chorus/internal/coordinator"
	"github.com/chorusd/chorus/internal/state"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the reconstructed project state",
	RunE: func(cmd *cobra.Command, args []string) error {
		formatter, err := resolveFormatter(cmd)
		if err != nil {
			return err
		}
		atID, _ := cmd.Flags().GetUint64("at")

		return executeWithProject(cmd, func(ctx context.Context, p *coordinator.Project) error {
			var st state.ProjectState
			var err error
			if atID > 0 {
				st, err = p.StateAt(atID)
			} else {
				st, err = p.State()
			}
			if err != nil {
				return err
			}

			out, err := formatter.FormatState(st)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Uint64("at", 0, "reconstruct state as of this event id")
}
