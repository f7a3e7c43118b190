package main

import (
	"fmt"

	"github.com/chorusd/chorus/internal/catalog"

	"github.com/spf13/cobra"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the roles in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		formatter, err := resolveFormatter(cmd)
		if err != nil {
			return err
		}

		cat, err := catalog.Load(cfg.Catalog)
		if err != nil {
			return err
		}

		out, err := formatter.FormatRoles(cat.Roles())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the provider/model pairs in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		formatter, err := resolveFormatter(cmd)
		if err != nil {
			return err
		}

		cat, err := catalog.Load(cfg.Catalog)
		if err != nil {
			return err
		}

		out, err := formatter.FormatModels(cat.ProviderModels())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(modelsCmd)
}
