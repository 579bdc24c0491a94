package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/edwinbulter/quote-lambda-tf/internal/dynamo"
	"github.com/edwinbulter/quote-lambda-tf/internal/logger"
	"github.com/edwinbulter/quote-lambda-tf/internal/restore"
)

var (
	flagRestorePoint   string
	flagEnvironment    string
	flagTimeoutMinutes int
	flagLockFile       string
	flagDryRun         bool
	flagVerbose        bool
	flagLogFile        string
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the table set to a point in time",
	Long: `Restore the quote-lambda DynamoDB tables to the given point in time.

The restore point accepts ISO 8601 timestamps. A timestamp without a
timezone is interpreted in the default zone (` + "`--help`" + ` of the root
command lists the environment overrides). The point must lie within the
provider's 35-day recovery window and not in the future.

The production tables themselves are never deleted or recreated; their
contents are replaced with the restored data, so streams, triggers and
IAM references stay intact.

Examples:
  dynrestore restore --restore-point 2026-08-29T10:00:00Z --environment dev
  dynrestore restore --restore-point "2026-08-29T12:00:00" --environment prod --timeout-minutes 60
  dynrestore restore --restore-point 2026-08-29T10:00:00Z --environment dev --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRestore(cmd.Context(), cmd.Flags().Changed("log-file"))
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVar(&flagRestorePoint, "restore-point", "", "Point in time to restore to (ISO 8601)")
	restoreCmd.Flags().StringVar(&flagEnvironment, "environment", "", "Target environment (dev, prod)")
	restoreCmd.Flags().IntVar(&flagTimeoutMinutes, "timeout-minutes", 0, "Minutes to wait for restored tables to become ACTIVE")
	restoreCmd.Flags().StringVar(&flagLockFile, "lock-file", "", "Path of the execution lock file")
	restoreCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Log the planned operations without changing anything")
	restoreCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose output (debug level)")
	restoreCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Log file path (auto-named when omitted, empty string disables)")

	restoreCmd.MarkFlagRequired("restore-point")
	restoreCmd.MarkFlagRequired("environment")
}

func runRestore(ctx context.Context, logFileSet bool) error {
	cfg.Environment = strings.ToLower(flagEnvironment)
	if flagTimeoutMinutes > 0 {
		cfg.TimeoutMinutes = flagTimeoutMinutes
	}
	if flagLockFile != "" {
		cfg.LockFile = flagLockFile
	}
	cfg.DryRun = flagDryRun

	if flagVerbose {
		cfg.LogLevel = "debug"
	}

	// Every real run also logs to a file. Omitted flag means an auto-named
	// file next to the status records; an explicitly empty flag disables
	// file logging.
	switch {
	case logFileSet:
		cfg.LogFile = flagLogFile
	case cfg.LogFile == "":
		name := fmt.Sprintf("dynamodb_restore_%s.log", time.Now().Format("20060102_150405"))
		cfg.LogFile = filepath.Join(cfg.StatusDir, name)
	}

	if cfg.LogFile != "" {
		var err error
		log, err = logger.NewWithFile(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		log.Info("Logging to file", "path", cfg.LogFile)
	} else if flagVerbose {
		log = logger.New(cfg.LogLevel, cfg.LogFormat)
	}

	client, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return err
	}

	return restore.New(cfg, client, log).Run(ctx, flagRestorePoint)
}
