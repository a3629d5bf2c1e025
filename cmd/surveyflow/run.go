package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/pkg/domain"
)

var runCmd = &cobra.Command{
	Use:   "run <survey>",
	Short: "Answer a survey in the terminal",
	Long: `Walks a survey block by block. Type an answer and press enter; ":back" returns to
the previous block, ":skip" leaves a block unanswered and ":quit" stops. With
--session the state is stored in the configured session store and resumed on
the next run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		reset, _ := cmd.Flags().GetBool("reset")
		headless, _ := cmd.Flags().GetBool("headless")
		style, _ := cmd.Flags().GetString("style")
		asJSON, _ := cmd.Flags().GetBool("json")

		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		state, err := cli.RunSession(sigCtx, stack, cli.RunOptions{
			Source:    args[0],
			SessionID: sessionID,
			Reset:     reset,
			Headless:  headless,
			Style:     style,
			JSON:      asJSON,
			Input:     cmd.InOrStdin(),
			Output:    cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		if asJSON {
			return nil
		}
		if sig := sigCtx.Signal(); sig != nil && !headless {
			fmt.Fprintf(cmd.OutOrStdout(), "\n>>> Interrupted at '%s' (%v).\n", state.CurrentBlockID, sig)
		}
		if state.Status != domain.StatusSubmitted && !headless {
			fmt.Fprintf(cmd.OutOrStdout(), ">>> Session '%s' saved at '%s'.\n", state.SessionID, state.CurrentBlockID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("session", "s", "", "Session id to resume or create")
	runCmd.Flags().Bool("reset", false, "Discard the stored state of --session first")
	runCmd.Flags().Bool("headless", false, "Plain output without banner or prompts")
	runCmd.Flags().Bool("json", false, "Exchange prompts and answers as JSON Lines")
	runCmd.Flags().String("style", "", "Glamour style for prompts (dark, light, notty); empty detects")
}
