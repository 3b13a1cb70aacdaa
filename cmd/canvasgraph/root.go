package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/canvasgraph/internal/logging"
)

// logger is set by the root command before any subcommand runs.
var logger = logging.NewNop()

var rootCmd = &cobra.Command{
	Use:   "canvasgraph",
	Short: "Assemble canvas outpaint pipeline graphs",
	Long: `canvasgraph turns a generation configuration into the node graph an
inference engine runs for canvas outpainting, and validates stored graphs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("log-level")
		level, err := logging.ParseLevel(name)
		if err != nil {
			return err
		}
		logger = logging.New(cmd.ErrOrStderr(), level)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("store", "presets.db", "Path to the preset database")
}
