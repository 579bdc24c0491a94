package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/edwinbulter/quote-lambda-tf/internal/status"
)

var (
	flagStatusLimit  int
	flagStatusFormat string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent restore runs",
	Long: `Show the status records of recent restore runs, newest first.

Each run writes a JSON status file into the status directory
(RESTORE_STATUS_DIR, default current directory). The record is updated
as the run moves through its lifecycle, so a crashed run is visible as
a record stuck in INITIALIZING.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&flagStatusLimit, "limit", 10, "Maximum number of runs to show")
	statusCmd.Flags().StringVar(&flagStatusFormat, "format", "table", "Output format (table, json)")
}

func runStatus() error {
	records, err := status.NewWriter(cfg.StatusDir).List()
	if err != nil {
		return fmt.Errorf("failed to read status records: %w", err)
	}
	if flagStatusLimit > 0 && len(records) > flagStatusLimit {
		records = records[:flagStatusLimit]
	}

	if flagStatusFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Printf("No restore runs found in %s\n", cfg.StatusDir)
		return nil
	}

	fmt.Printf("%-42s %-12s %-22s %-6s %s\n", "RUN", "STATUS", "RESTORE POINT", "ENV", "STARTED")
	for _, rec := range records {
		fmt.Printf("%-42s %-12s %-22s %-6s %s\n",
			rec.RunID,
			colorizeState(rec.State),
			rec.RestorePoint,
			rec.Environment,
			rec.StartedAt.Local().Format(time.RFC3339),
		)
		if rec.ErrorMessage != "" {
			fmt.Printf("  %s %s\n", color.RedString("error:"), rec.ErrorMessage)
		}
	}
	return nil
}

func colorizeState(state string) string {
	if cfg.NoColor {
		return state
	}
	switch state {
	case status.StateCompleted:
		return color.GreenString(state)
	case status.StateFailed:
		return color.RedString(state)
	default:
		return color.YellowString(state)
	}
}
