package main

import (
	"context"
	"fmt"

	"github.com/chorusd/chorus/internal/coordinator"
	"github.com/chorusd/chorus/internal/event"

	"github.com/spf13/cobra"
)

var switchCmd = &cobra.Command{
	Use:   "switch",
	Short: "Switch the active role, provider, or model",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		provider, _ := cmd.Flags().GetString("provider")
		modelName, _ := cmd.Flags().GetString("model")
		reason, _ := cmd.Flags().GetString("reason")

		if role == "" && provider == "" && modelName == "" {
			return fmt.Errorf("nothing to switch: pass --role, --provider, or --model")
		}

		return executeWithProject(cmd, func(ctx context.Context, p *coordinator.Project) error {
			appended, err := p.SwitchConfig(resolveActor(cmd), coordinator.SwitchRequest{
				Role:     role,
				Provider: provider,
				Model:    modelName,
				Reason:   reason,
			})
			if err != nil {
				return err
			}

			for _, evt := range appended {
				sw, err := event.DecodeConfigSwitch(evt)
				if err != nil {
					continue
				}
				switch evt.Type {
				case event.TypeRoleSwitch:
					fmt.Fprintf(cmd.OutOrStdout(), "role: %s -> %s\n", sw.FromRole, sw.ToRole)
				case event.TypeProviderSwitch:
					fmt.Fprintf(cmd.OutOrStdout(), "provider: %s/%s -> %s/%s\n",
						sw.FromProvider, sw.FromModel, sw.ToProvider, sw.ToModel)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(switchCmd)
	switchCmd.Flags().String("role", "", "target role name")
	switchCmd.Flags().String("provider", "", "target provider name")
	switchCmd.Flags().String("model", "", "target model name")
	switchCmd.Flags().String("reason", "", "reason recorded on the switch events")
	switchCmd.Flags().String("actor", "", "actor recorded on the events (default: user)")
}
