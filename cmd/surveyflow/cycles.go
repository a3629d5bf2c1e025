package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/internal/presentation/tui"
	"github.com/aretw0/surveyflow/pkg/flow"
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles <survey>",
	Short: "List the navigation loops of a survey",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()

		survey, err := stack.OpenSurvey(args[0])
		if err != nil {
			return err
		}
		g := flow.ToGraph(survey)
		if asJSON {
			return cli.WriteJSON(cmd.OutOrStdout(), map[string]any{
				"cycles": nonNil(flow.FindCycles(g)),
				"ids":    nonNil(flow.CycleIDs(g)),
			})
		}
		return cli.WriteMarkdown(cmd.OutOrStdout(), tui.CycleReport(flow.FindCycles(g)), "")
	},
}

func init() {
	rootCmd.AddCommand(cyclesCmd)
	cyclesCmd.Flags().Bool("json", false, "Print cycles as JSON")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
