package main

import (
	"context"
	"fmt"

	"github.com/chorusd/chorus/internal/coordinator"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record project events",
	Long:  `Record milestones, file changes, and corrections into the project's event log.`,
}

var milestoneCmd = &cobra.Command{
	Use:   "milestone [title]",
	Short: "Record a project milestone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		return executeWithProject(cmd, func(ctx context.Context, p *coordinator.Project) error {
			evt, err := p.RecordMilestone(resolveActor(cmd), args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "milestone recorded as event %d\n", evt.ID)
			return nil
		})
	},
}

var fileChangeCmd = &cobra.Command{
	Use:   "file-change [path]",
	Short: "Record a file change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		changeType, _ := cmd.Flags().GetString("change")
		summary, _ := cmd.Flags().GetString("summary")

		return executeWithProject(cmd, func(ctx context.Context, p *coordinator.Project) error {
			evt, err := p.RecordFileChange(resolveActor(cmd), args[0], changeType, summary)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "file change recorded as event %d\n", evt.ID)
			return nil
		})
	},
}

var correctionCmd = &cobra.Command{
	Use:   "correction [note]",
	Short: "Record a correction referencing an earlier event",
	Long:  `Record a correction note. The referenced event stays in the log and keeps its effect on state; the correction is an audit annotation.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refID, _ := cmd.Flags().GetUint64("ref")
		if refID == 0 {
			return fmt.Errorf("--ref is required")
		}

		return executeWithProject(cmd, func(ctx context.Context, p *coordinator.Project) error {
			evt, err := p.RecordCorrection(resolveActor(cmd), refID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "correction recorded as event %d (ref %d)\n", evt.ID, refID)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.AddCommand(milestoneCmd)
	recordCmd.AddCommand(fileChangeCmd)
	recordCmd.AddCommand(correctionCmd)

	recordCmd.PersistentFlags().String("actor", "", "actor recorded on the event (default: user)")
	milestoneCmd.Flags().String("description", "", "milestone description")
	fileChangeCmd.Flags().String("change", "modified", "change type (created, modified, deleted)")
	fileChangeCmd.Flags().String("summary", "", "short summary of the change")
	correctionCmd.Flags().Uint64("ref", 0, "id of the event being corrected")
}
