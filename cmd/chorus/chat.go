package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/chorusd/chorus/internal/coordinator"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Send a prompt to the active provider and record the turn",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.Join(args, " ")

		return executeWithProject(cmd, func(ctx context.Context, p *coordinator.Project) error {
			report, err := p.SubmitTurn(ctx, resolveActor(cmd), prompt)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.Response)

			if report.Compliance != nil && !report.Compliance.Compliant {
				fmt.Fprintf(cmd.OutOrStdout(), "\n[compliance] score %d: %s\n",
					report.Compliance.Score, report.Compliance.Feedback)
				for _, v := range report.Compliance.Violations {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s (%s): %s\n", v.Category, v.Severity, v.Description)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("actor", "", "initiator recorded in the turn payload (default: user)")
}
