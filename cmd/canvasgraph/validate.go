package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph"
)

var validateCmd = &cobra.Command{
	Use:   "validate <graph.json>",
	Short: "Check a stored graph against the wiring rules",
	Long: `Reads a graph in the engine's JSON schema and checks node types, ports,
single writers, acyclicity and the anchor nodes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read graph: %w", err)
		}
		p, err := canvasgraph.Decode(data, canvasgraph.BaseAnchors()...)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "graph %s is valid: %d nodes, %d edges, output %s\n",
			p.ID(), p.Len(), len(p.Edges()), p.Output())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
