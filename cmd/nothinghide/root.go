package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for NothingHide.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nothinghide",
		Short: "Breach and exposure intelligence for emails and passwords",
		Long: `NothingHide checks email addresses against multiple public breach data
sources concurrently, correlates the findings into a single deduplicated
breach list, and computes a 0-100 risk score.

Password checks use the k-anonymity range protocol: the password never
leaves this machine, only the first five characters of its SHA-1 hash
are sent.

API keys are read from the environment (or a .env file in the current
directory). Set XON_API_KEY to authenticate XposedOrNot requests.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Best effort: a missing .env file is the normal case.
			_ = godotenv.Load()
		},
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewPasswordCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewSourcesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
