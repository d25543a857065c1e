package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for lane-detector.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lane-detector",
		Short: "Detect road lane lines in images and videos",
		Long: `lane-detector finds the left and right lane lines in dashcam images and
videos with a classical pipeline: Gaussian blur, Canny edges, a region of
interest mask, the probabilistic Hough transform and per-side averaging.
The averaged lanes are drawn over the original frame.

Settings are read from --config, ./.lane-detector.yaml or
$XDG_CONFIG_HOME/lane-detector/config.yaml, then from the environment
(LANES_LOG_LEVEL, LANES_WORKERS, optionally via a .env file).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags. verbose has no shorthand: -v is detect's --video.
	cmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")

	cmd.AddCommand(NewDetectCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
