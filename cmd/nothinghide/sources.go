package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nothinghide/nothinghide/internal/config"
)

// NewSourcesCmd creates the sources command.
func NewSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List configured breach data sources and their status",
		Long: `Sources lists every configured breach data source with its priority
and current availability. Sources requiring an API key that is not set
are reported as unavailable.

Examples:
  nothinghide sources
  nothinghide sources --json`,
		Args: cobra.NoArgs,
		RunE: runSourcesCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output JSON instead of text")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .nothinghide in current or home directory)")
	return cmd
}

// runSourcesCmd executes the sources command.
func runSourcesCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildSourcesConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ag := buildAgent(cfg, logger)
	status := ag.SourceStatus()

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	// Stable order: priority descending matches query order.
	type row struct {
		name     string
		priority int
	}
	rows := make([]row, 0, len(status))
	for name, st := range status {
		rows = append(rows, row{name, st.Priority})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].priority > rows[j].priority })

	fmt.Printf("%-24s %-10s %-12s %s\n", "SOURCE", "PRIORITY", "AVAILABLE", "STATUS")
	for _, r := range rows {
		st := status[r.name]
		avail := "yes"
		if !st.Available {
			avail = "no"
		}
		fmt.Printf("%-24s %-10d %-12s %s\n", r.name, st.Priority, avail, st.Health.Status)
	}
	return nil
}

// buildSourcesConfig builds a minimal config for the sources command, which
// has no targets.
func buildSourcesConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cfg.Sources, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else {
		cfg.Sources = &config.File{Sources: make(map[string]config.SourceConfig)}
	}

	cfg.XposedOrNotAPIKey = os.Getenv("XON_API_KEY")
	return cfg, nil
}
