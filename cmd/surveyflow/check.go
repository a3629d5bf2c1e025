package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/internal/presentation/tui"
	"github.com/aretw0/surveyflow/pkg/flow"
)

var checkCmd = &cobra.Command{
	Use:     "check <survey>",
	Aliases: []string{"validate"},
	Short:   "Check a survey for rule and graph inconsistencies",
	Long: `Validates the survey document against its JSON schema, then reports conditional
edges without rules, rules without edges, invalid conditions, misplaced default
rules and conditional cycles. Exits with status 1 when any error is found.`,
	Args: cobra.ExactArgs(1),
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
		issues := flow.Check(survey, flow.ToGraph(survey))

		out := cmd.OutOrStdout()
		if asJSON {
			err = cli.WriteJSON(out, nonNil(issues))
		} else {
			err = cli.WriteMarkdown(out, tui.CheckReport(survey.UUID, issues), "")
		}
		if err != nil {
			return err
		}

		var errs int
		for _, i := range issues {
			if i.Severity == flow.SeverityError {
				errs++
			}
		}
		if errs > 0 {
			return fmt.Errorf("%d error(s) found in %s", errs, survey.UUID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("json", false, "Print issues as JSON")
}
