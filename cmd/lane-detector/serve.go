package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/lane-detector/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Run a Model Context Protocol server that exposes lane detection as tools
(lanes_detect_image, lanes_detect_video, lanes_edges, lanes_segments).

Requests are read from stdin and responses written to stdout, one JSON-RPC
message per line. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, cfgPath, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Video.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			if cfgPath != "" {
				logger.Debug("configuration loaded", "path", cfgPath)
			}

			params, err := cfg.PipelineParams()
			if err != nil {
				return err
			}
			srv, err := server.New(
				server.WithParams(params),
				server.WithWorkers(cfg.Video.Workers),
				server.WithVersion(getVersion()),
				server.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Default video frames processed concurrently (default from config)")

	return cmd
}
