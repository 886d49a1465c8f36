package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nothinghide/nothinghide/internal/agent"
	"github.com/nothinghide/nothinghide/internal/config"
	"github.com/nothinghide/nothinghide/internal/log"
	"github.com/nothinghide/nothinghide/internal/model"
	"github.com/nothinghide/nothinghide/internal/ratelimit"
	"github.com/nothinghide/nothinghide/internal/report"
	"github.com/nothinghide/nothinghide/internal/source"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger based on verbosity setting.
// The secure handler redacts passwords, hashes, and API keys in all output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// addCheckFlags registers the flags shared by the check and scan commands.
func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each source request")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries,
		"Retries per source after a failed request")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent email checks")
	cmd.Flags().StringP("list", "l", "",
		"File with one email address per line")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .nothinghide in current or home directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("save", "s", false,
		"Save results to the local history database")
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxRetries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load source configurations from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Sources, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Sources = &config.File{
			Sources: make(map[string]config.SourceConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.SaveToDB, err = cmd.Flags().GetBool("save")
	if err != nil {
		return nil, err
	}
	if cfg.SaveToDB {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.XposedOrNotAPIKey = os.Getenv("XON_API_KEY")

	// Positional arguments plus --list file contents
	cfg.Targets = args
	listFile, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}
	if listFile != "" {
		fromFile, err := readTargetList(listFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, fromFile...)
	}

	return cfg, nil
}

// readTargetList reads email addresses from a file, one per line.
// Blank lines and lines starting with '#' are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open list file: %w", err)
	}
	defer f.Close()

	var targets []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list file: %w", err)
	}
	return targets, nil
}

// buildAgent assembles the agent from configuration: per-source overrides
// from the config file, the shared rate limiter, and the secure logger.
func buildAgent(cfg *config.Config, logger *slog.Logger) *agent.Agent {
	agentCfg := agent.Config{
		Timeout:              cfg.Timeout,
		MaxConcurrentSources: cfg.MaxConcurrentSources,
		MaxRetriesPerSource:  cfg.MaxRetries,
		XposedOrNotAPIKey:    cfg.XposedOrNotAPIKey,
		UserAgent:            cfg.UserAgent,
	}

	opts := []agent.Option{agent.WithLogger(logger)}

	if clients, limiter, ok := buildSources(cfg, logger); ok {
		opts = append(opts, agent.WithSources(clients...))
		opts = append(opts, agent.WithLimiter(limiter))
	}

	return agent.New(agentCfg, opts...)
}

// buildSources constructs the source set honoring config file overrides.
// Returns ok=false when no overrides exist, letting the agent use its
// defaults.
func buildSources(cfg *config.Config, logger *slog.Logger) ([]source.Client, *ratelimit.Limiter, bool) {
	if cfg.Sources == nil || (len(cfg.Sources.Sources) == 0 && cfg.Sources.Defaults == (config.SourceConfig{})) {
		return nil, nil, false
	}

	type entry struct {
		name  string
		build func(...source.Option) source.Client
	}
	// Priority order.
	entries := []entry{
		{"LeakCheck", func(o ...source.Option) source.Client { return source.NewLeakCheck(o...) }},
		{"XposedOrNot", func(o ...source.Option) source.Client { return source.NewXposedOrNot(o...) }},
		{"HackCheck", func(o ...source.Option) source.Client { return source.NewHackCheck(o...) }},
		{"XposedOrNot Analytics", func(o ...source.Option) source.Client { return source.NewXposedOrNotAnalytics(o...) }},
		{"EmailRep", func(o ...source.Option) source.Client { return source.NewEmailRep(o...) }},
		{"DeXpose", func(o ...source.Option) source.Client { return source.NewDeXpose(o...) }},
	}

	limiterOpts := []ratelimit.LimiterOption{ratelimit.WithLimiterLogger(logger)}

	var clients []source.Client
	for _, e := range entries {
		sc := cfg.Sources.SourceConfig(e.name)
		if sc.Disabled {
			logger.Info("source disabled by configuration", "source", e.name)
			continue
		}

		srcOpts := []source.Option{
			source.WithTimeout(cfg.Timeout),
		}
		if cfg.UserAgent != "" {
			srcOpts = append(srcOpts, source.WithUserAgent(cfg.UserAgent))
		}
		if sc.BaseURL != "" {
			srcOpts = append(srcOpts, source.WithBaseURL(sc.BaseURL))
		}
		apiKey := sc.APIKey
		if apiKey == "" && strings.HasPrefix(e.name, "XposedOrNot") {
			apiKey = cfg.XposedOrNotAPIKey
		}
		if apiKey != "" {
			srcOpts = append(srcOpts, source.WithAPIKey(apiKey))
		}
		if sc.RequestsPerMinute > 0 {
			limiterOpts = append(limiterOpts, ratelimit.WithSourceBudget(e.name, sc.RequestsPerMinute))
		}

		clients = append(clients, e.build(srcOpts...))
	}

	limiter := ratelimit.NewLimiter(cfg.MaxConcurrentSources, limiterOpts...)
	return clients, limiter, true
}

// newReportWriter creates the report writer for the requested format and
// destination. The caller must call the returned cleanup function.
func newReportWriter(cfg *config.Config) (report.Writer, func(), error) {
	output := os.Stdout
	cleanup := func() {}

	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may contain sensitive information that should only be
		// readable by the owner.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		output = f
		cleanup = func() { _ = f.Close() }
	}

	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint()), cleanup, nil
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output), cleanup, nil
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose)), cleanup, nil
	}
}

// promptPassword reads a password without echoing it to the terminal.
// Falls back to a plain line read when stdin is not a terminal (pipes).
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", &model.ValidationError{Field: "password", Message: "no password provided on stdin"}
	}
	return strings.TrimRight(sc.Text(), "\r\n"), nil
}
