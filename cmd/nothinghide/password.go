package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nothinghide/nothinghide/internal/password"
)

// NewPasswordCmd creates the password command.
func NewPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Check whether a password appears in known breaches",
		Long: `Password checks a password against known breach corpora using the
k-anonymity range protocol. The password is hashed locally with SHA-1
and only the first five characters of the hash are transmitted; the
password itself never leaves this machine.

The password is read interactively (or from stdin when piped) so it
never appears in shell history or process listings.

Examples:
  # Interactive prompt (input is hidden)
  nothinghide password

  # From a pipe
  printf 'hunter2' | nothinghide password

  # Include trivial variant lookups and strength analysis as JSON
  nothinghide password --variants --json`,
		Args: cobra.NoArgs,
		RunE: runPasswordCmd,
	}

	cmd.Flags().Bool("variants", true,
		"Also check trivial variants (lowercase form, \"1\" and \"!\" suffixes)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON instead of text")

	return cmd
}

// runPasswordCmd executes the password command.
func runPasswordCmd(cmd *cobra.Command, _ []string) error {
	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	pw, err := promptPassword("Password to check (input hidden): ")
	if err != nil {
		return err
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	variants, err := cmd.Flags().GetBool("variants")
	if err != nil {
		return err
	}

	checker := password.NewChecker()

	if variants {
		result, err := checker.Strength(ctx, pw)
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSONResult(result)
		}
		printStrengthResult(result)
		return nil
	}

	result, err := checker.Check(ctx, pw)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSONResult(result)
	}
	printExposureResult(result)
	return nil
}

func writeJSONResult(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printExposureResult(result *password.Result) {
	if result.Exposed {
		fmt.Printf("[!] EXPOSED - this password appears %d time(s) in known breaches\n", result.Count)
		fmt.Println("    Do not use it anywhere. Choose a unique replacement.")
		return
	}
	fmt.Println("[+] Not found in known breaches")
}

func printStrengthResult(result *password.StrengthResult) {
	printExposureResult(&result.Result)
	fmt.Printf("\nStrength: %s (score %d/7)\n", result.Strength, result.Score)
	if len(result.Feedback) > 0 {
		fmt.Println("Suggestions:")
		for _, f := range result.Feedback {
			fmt.Printf("  - %s\n", f)
		}
	}
}
