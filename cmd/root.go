// Package cmd implements the dynrestore command-line interface.
package cmd

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/edwinbulter/quote-lambda-tf/internal/config"
	"github.com/edwinbulter/quote-lambda-tf/internal/logger"
)

// Shared state across commands, set by Execute.
var (
	cfg *config.Config
	log logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dynrestore",
	Short: "Point-in-time restore for the quote-lambda DynamoDB tables",
	Long: `dynrestore restores the quote-lambda DynamoDB table set to a chosen
point in time using the provider's continuous backups.

The restore runs as a pipeline: validate the restore point, restore each
table into a temporary table named after the restore point, wait for the
restored tables to become ACTIVE, compare item counts, swap the restored
data into the production tables, and delete the temporary tables.

A failed or interrupted run can be re-run with the same restore point;
restore tables from the earlier attempt are picked up where they are
instead of being restored again.

Examples:
  # Restore the dev tables to a point two hours ago
  dynrestore restore --restore-point 2026-08-29T10:00:00Z --environment dev

  # Preview what a production restore would do
  dynrestore restore --restore-point 2026-08-29T10:00:00Z --environment prod --dry-run

  # Inspect recent runs
  dynrestore status`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagRegion != "" {
			cfg.Region = flagRegion
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = flagLogLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = flagLogFormat
		}
		if flagDebug {
			cfg.Debug = true
			cfg.LogLevel = "debug"
		}
		if flagNoColor {
			cfg.NoColor = true
			color.NoColor = true
		}
		log = logger.New(cfg.LogLevel, cfg.LogFormat)
	},
}

var (
	flagRegion    string
	flagLogLevel  string
	flagLogFormat string
	flagDebug     bool
	flagNoColor   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRegion, "region", "", "AWS region (default from AWS_REGION, else "+config.DefaultRegion+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
}

// Execute runs the root command with the given configuration and logger.
func Execute(ctx context.Context, c *config.Config, l logger.Logger) error {
	cfg = c
	log = l
	return rootCmd.ExecuteContext(ctx)
}
