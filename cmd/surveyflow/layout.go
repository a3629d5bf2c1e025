package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/pkg/layout"
)

var layoutCmd = &cobra.Command{
	Use:   "layout <graph.json|->",
	Short: "Assign positions to the nodes of a flow graph",
	Long: `Reads a flow graph JSON document and prints it with every node positioned.
With --previous, positions of an earlier layout are kept unless nodes overlap.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		previous, _ := cmd.Flags().GetString("previous")
		direction, _ := cmd.Flags().GetString("direction")

		g, err := cli.ReadGraph(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		opts := cfg.Layout
		if direction != "" {
			opts.Direction = layout.Direction(strings.ToUpper(direction))
		}

		if previous != "" {
			prev, err := cli.ReadGraph(previous, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return cli.WriteJSON(cmd.OutOrStdout(), layout.Stabilize(prev, g, opts))
		}
		return cli.WriteJSON(cmd.OutOrStdout(), layout.Layout(g, opts))
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.Flags().String("previous", "", "Earlier laid out graph whose positions should be kept")
	layoutCmd.Flags().String("direction", "", "Layout direction TB or LR (default from config)")
}
