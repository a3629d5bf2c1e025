package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/pkg/flow"
)

var treeCmd = &cobra.Command{
	Use:   "tree <graph.json|->",
	Short: "Rebuild a survey document from a flow graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := cli.ReadGraph(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		survey, err := flow.FromGraph(g)
		if err != nil {
			return err
		}
		return cli.WriteJSON(cmd.OutOrStdout(), survey.Document())
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
}
