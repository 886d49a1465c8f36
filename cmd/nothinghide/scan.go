package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nothinghide/nothinghide/internal/model"
	"github.com/nothinghide/nothinghide/internal/password"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <email>",
		Short: "Combined email and password exposure scan",
		Long: `Scan runs an email breach check and a password exposure check together
and reports the overall risk for the credential pair. The password is
prompted interactively and checked via the k-anonymity protocol; it
never leaves this machine.

The combined risk level weighs both signals: an exposed password for a
breached address is critical, while either alone ranks lower.

Examples:
  # Full scan (password prompted, input hidden)
  nothinghide scan user@example.com

  # Email-only scan
  nothinghide scan --no-password user@example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	addCheckFlags(cmd)
	cmd.Flags().Bool("no-password", false, "Skip the password check")
	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
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

	skipPassword, err := cmd.Flags().GetBool("no-password")
	if err != nil {
		return err
	}

	// Prompt before any network activity so the user is not interrupted
	// mid-check.
	var pw string
	if !skipPassword {
		pw, err = promptPassword("Password to check (input hidden, leave empty to skip): ")
		if err != nil {
			return err
		}
	}

	ag := buildAgent(cfg, logger)

	emailResult, err := ag.Check(ctx, cfg.Targets[0])
	if err != nil {
		return err
	}

	writer, cleanup, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := writer.Write(emailResult); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	var passwordExposed bool
	var exposureCount int
	if pw != "" {
		pwResult, err := password.NewChecker().Strength(ctx, pw)
		if err != nil {
			return err
		}
		passwordExposed = pwResult.Exposed
		exposureCount = pwResult.Count

		fmt.Println()
		printStrengthResult(pwResult)
	}

	level := model.CalculateRiskLevel(
		emailResult.Breached, passwordExposed,
		emailResult.BreachCount, exposureCount,
	)
	fmt.Printf("\nOverall risk: %s - %s\n", level, level.Description())
	return nil
}
