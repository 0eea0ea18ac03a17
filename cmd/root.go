package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repohealth/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "repohealth",
	Short: "Repository health monitor",
	Long: `repohealth periodically pulls commit activity for monitored GitHub
repositories, asks an AI model for a qualitative review, and records a
weighted health score for each repository as a history of reports.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: environment and .env)")

	rootCmd.AddCommand(serveCmd, analyzeCmd, sweepCmd, migrateCmd, userCmd)
}

// syncConfigFlagToEnv hands --config to the config loader, which reads CONFIG_FILE.
func syncConfigFlagToEnv() {
	if cfgFile != "" {
		_ = os.Setenv("CONFIG_FILE", cfgFile)
	}
}
