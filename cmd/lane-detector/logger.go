package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ironsheep/lane-detector/internal/config"
)

// setupLogger creates a text logger on w. Logs never go to stdout, which
// carries results and, for serve, the MCP protocol.
func setupLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(w, opts)
	return slog.New(handler)
}

// getVerboseFlag returns the value of the persistent --verbose flag.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// loadConfig resolves the configuration for cmd from --config, the
// default search locations and the environment. It also returns the file
// that was used, or "" for the built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path = ""
	}
	return config.Resolve(path)
}

// newLogger builds the command logger from cfg. --verbose forces debug.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if getVerboseFlag(cmd) {
		level = slog.LevelDebug
	}
	return setupLogger(cmd.ErrOrStderr(), level), nil
}
