package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nothinghide/nothinghide/internal/config"
	"github.com/nothinghide/nothinghide/internal/password"
	"github.com/nothinghide/nothinghide/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve exposes the checking engine over a JSON HTTP API.

Endpoints:
  POST /api/v1/check-email     {"email": "..."}
  POST /api/v1/check-password  {"password": "..."}
  POST /api/v1/check-batch     {"emails": ["...", "..."]}
  POST /api/v1/scan            {"email": "...", "password": "..."}
  GET  /api/v1/sources
  GET  /api/v1/metrics
  GET  /healthz

Examples:
  nothinghide serve
  nothinghide serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultServeAddr, "Listen address")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .nothinghide in current or home directory)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each source request")
	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildSourcesConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	cfg.ServeAddr, err = cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	ag := buildAgent(cfg, logger)
	srv := server.New(ag, password.NewChecker(),
		server.WithLogger(logger),
		server.WithVersion(getVersion()),
	)

	fmt.Fprintf(os.Stderr, "Listening on %s\n", cfg.ServeAddr)
	return srv.ListenAndServe(ctx, cfg.ServeAddr)
}
