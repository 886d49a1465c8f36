package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nothinghide/nothinghide/internal/config"
	"github.com/nothinghide/nothinghide/internal/history"
	"github.com/nothinghide/nothinghide/internal/model"
	"github.com/nothinghide/nothinghide/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [email]",
		Short: "Show previously saved check results",
		Long: `History lists check results previously saved with 'check --save'.

Without arguments it lists recent checks across all addresses. With an
email address it shows that address's stored results, newest first.

Examples:
  # Recent checks across all addresses
  nothinghide history

  # Full stored results for one address
  nothinghide history user@example.com

  # Latest stored result as JSON
  nothinghide history --latest --json user@example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum entries to list")
	cmd.Flags().Bool("latest", false, "Show only the most recent result for the address")
	cmd.Flags().BoolP("json", "j", false, "Output JSON instead of text")
	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	db, err := history.Open(config.XDGDataDir(), history.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no history found (run 'nothinghide check --save' first): %w", err)
	}
	defer db.Close()

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	if len(args) == 0 {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}
		checks, err := db.RecentChecks(ctx, limit)
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSONResult(checks)
		}
		printCheckList(checks)
		return nil
	}

	email := args[0]
	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}

	if latest {
		result, err := db.LatestCheck(ctx, email)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("no stored checks for %s", email)
		}
		return printStoredResults(jsonOut, result)
	}

	results, err := db.ChecksForEmail(ctx, email)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no stored checks for %s", email)
	}
	return printStoredResults(jsonOut, results...)
}

func printCheckList(checks []history.CheckMetadata) {
	if len(checks) == 0 {
		fmt.Println("No stored checks.")
		return
	}

	fmt.Printf("%-6s %-32s %-10s %-8s %-6s %s\n", "ID", "EMAIL", "BREACHED", "COUNT", "RISK", "DATE")
	for _, c := range checks {
		breached := "no"
		if c.Breached {
			breached = "yes"
		}
		fmt.Printf("%-6d %-32s %-10s %-8d %-6.0f %s\n",
			c.ID, c.Email, breached, c.BreachCount, c.RiskScore,
			c.Timestamp.Format("2006-01-02 15:04"))
	}
}

func printStoredResults(jsonOut bool, results ...*model.CorrelatedResult) error {
	if jsonOut {
		if len(results) == 1 {
			return writeJSONResult(results[0])
		}
		return writeJSONResult(results)
	}

	writer := report.NewSimpleWriter(os.Stdout)
	_, err := writer.WriteBatch(results)
	return err
}
