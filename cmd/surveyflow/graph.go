package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/internal/presentation/graph"
	"github.com/aretw0/surveyflow/pkg/flow"
	"github.com/aretw0/surveyflow/pkg/layout"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <survey>",
	Short: "Export the flow graph of a survey",
	Long: `Converts a survey document (path or id in --dir) into its flow graph and prints it
as JSON, a Mermaid diagram or a Graphviz DOT digraph.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		direction, _ := cmd.Flags().GetString("direction")
		withLayout, _ := cmd.Flags().GetBool("layout")

		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()

		engine, err := stack.OpenEngine(args[0])
		if err != nil {
			return err
		}

		opts := cfg.Layout
		if direction != "" {
			opts.Direction = layout.Direction(strings.ToUpper(direction))
		}
		g := flow.ToGraph(engine.Survey())
		if withLayout {
			g = layout.Layout(g, opts)
		}

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			return cli.WriteJSON(out, g)
		case "mermaid":
			dir := "TD"
			if opts.Direction == layout.LeftRight {
				dir = "LR"
			}
			_, err := fmt.Fprint(out, graph.GenerateMermaid(g, dir, nil))
			return err
		case "dot":
			dot, err := graph.GenerateDOT(g, string(opts.Direction))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, dot)
			return err
		default:
			return fmt.Errorf("unknown format %q (json, mermaid or dot)", format)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "json", "Output format: json, mermaid or dot")
	graphCmd.Flags().String("direction", "", "Layout direction TB or LR (default from config)")
	graphCmd.Flags().Bool("layout", true, "Assign node positions before printing")
}
