package main

import (
	"fmt"
	"os"

	"github.com/chorusd/chorus/internal/config"
	"github.com/chorusd/chorus/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chorus",
	Short: "Chorus project engine",
	Long:  `Chorus keeps multi-AI project collaboration in an append-only event log and reconstructs project state by replaying it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Logging.Level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chorus/config.yaml)")
	rootCmd.PersistentFlags().StringP("project", "p", config.DefaultProjectID, "project id")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().String("logging.level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
}
