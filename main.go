// dynrestore — point-in-time restore orchestrator for the quote-lambda
// DynamoDB tables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/edwinbulter/quote-lambda-tf/cmd"
	"github.com/edwinbulter/quote-lambda-tf/internal/config"
	"github.com/edwinbulter/quote-lambda-tf/internal/logger"
)

// Build information (set by ldflags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	// Cancel the run on interrupt so the execution lock is released and the
	// status file records where the run stopped.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.New()
	cfg.Version = version
	cfg.BuildTime = buildTime
	cfg.GitCommit = gitCommit

	logLevel := cfg.LogLevel
	if cfg.Debug && logLevel != "debug" {
		logLevel = "debug"
	}
	log := logger.New(logLevel, cfg.LogFormat)

	if err := cmd.Execute(ctx, cfg, log); err != nil {
		log.Error("Restore failed", "error", err)
		os.Exit(1)
	}
}
