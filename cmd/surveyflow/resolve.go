package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/pkg/domain"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <survey> <block>",
	Short: "Resolve the navigation rules of a block against answers",
	Long: `Evaluates the navigation rules of a block in order and prints the destination of
the first rule that matches, or nothing when no rule applies.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("answers")
		answers, err := cli.ParseAnswers(raw)
		if err != nil {
			return err
		}

		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()

		engine, err := stack.OpenEngine(args[0])
		if err != nil {
			return err
		}
		block, ok := engine.Survey().FindBlock(args[1])
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrBlockNotFound, args[1])
		}
		return cli.WriteJSON(cmd.OutOrStdout(), map[string]any{
			"block":       block.UUID,
			"destination": engine.Resolve(block.NavigationRules, answers),
		})
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval <condition>",
	Short: "Evaluate a condition against answers",
	Long: `Evaluates an expression such as "age >= 18 and consent == true", or a JSON rule
or group, and prints true or false.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("answers")
		answers, err := cli.ParseAnswers(raw)
		if err != nil {
			return err
		}
		cond, err := cli.ParseCondition(args[0])
		if err != nil {
			return err
		}

		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()

		_, err = fmt.Fprintln(cmd.OutOrStdout(), stack.Evaluator.Evaluate(cond, answers))
		return err
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd, evalCmd)
	resolveCmd.Flags().String("answers", "", `Answers as a JSON object, or @file`)
	evalCmd.Flags().String("answers", "", `Answers as a JSON object, or @file`)
}
