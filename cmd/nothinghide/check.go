package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nothinghide/nothinghide/internal/config"
	"github.com/nothinghide/nothinghide/internal/history"
	"github.com/nothinghide/nothinghide/internal/model"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [email...]",
		Short: "Check email addresses against breach data sources",
		Long: `Check queries every configured breach data source concurrently and
correlates the findings into a single deduplicated breach list with a
0-100 risk score.

A breach reported by multiple independent sources earns higher
confidence than a single-source report. Sources that fail or time out
are listed separately; the check succeeds as long as at least one
source responds.

Examples:
  # Check a single address
  nothinghide check user@example.com

  # Check several addresses concurrently
  nothinghide check a@example.com b@example.com

  # Check addresses from a file, three at a time
  nothinghide check --list emails.txt --batch 3

  # JSON output written to a file
  nothinghide check --json --output report.json user@example.com

  # Save the result to the local history database
  nothinghide check --save user@example.com

Configuration file (.nothinghide) example:
  sources:
    EmailRep:
      disabled: true
    XposedOrNot:
      apiKey: "xon-key-here"
      requestsPerMinute: 30`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheckCmd,
	}

	addCheckFlags(cmd)
	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runCheck(ctx, cfg, logger)
}

// runCheck executes the email checks and writes the report.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ag := buildAgent(cfg, logger)

	writer, cleanup, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var db *history.DB
	if cfg.SaveToDB {
		db, err = history.Open(cfg.DBDir, history.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Info("history database opened", "dir", cfg.DBDir)
	}

	start := time.Now()

	var results []*model.CorrelatedResult
	if len(cfg.Targets) == 1 {
		result, err := ag.Check(ctx, cfg.Targets[0])
		if err != nil {
			return err
		}
		results = []*model.CorrelatedResult{result}
	} else {
		fmt.Fprintf(os.Stderr, "Checking %d addresses (concurrency: %d)...\n",
			len(cfg.Targets), cfg.BatchSize)
		results = ag.CheckBatch(ctx, cfg.Targets, cfg.BatchSize)
	}

	if _, err := writer.WriteBatch(results); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if db != nil {
		saveResults(ctx, db, results, logger)
	}

	logger.Info("check finished",
		"targets", len(cfg.Targets),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// saveResults persists successful results, skipping batch failure markers.
func saveResults(ctx context.Context, db *history.DB, results []*model.CorrelatedResult, logger *slog.Logger) {
	for _, result := range results {
		if result == nil || result.Error != "" {
			continue
		}
		if _, err := db.SaveResult(ctx, result); err != nil {
			logger.Error("failed to save result", "email", result.Email, "error", err)
		}
	}
}
