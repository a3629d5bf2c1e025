package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/internal/config"
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "surveyflow",
	Short: "Surveyflow runs and edits branching surveys",
	Long: `Surveyflow evaluates navigation rules, walks respondent sessions and converts
survey documents to flow graphs for visual editing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("log-level") {
			loaded.Log.Level, _ = flags.GetString("log-level")
		}
		if flags.Changed("log-format") {
			loaded.Log.Format, _ = flags.GetString("log-format")
		}
		if flags.Changed("dir") {
			loaded.Surveys.Dir, _ = flags.GetString("dir")
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
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
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default ./surveyflow.yaml when present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("dir", "surveys", "Directory containing survey documents")
}

// newStack builds the shared components; logs go to stderr so stdout stays
// usable for documents and JSON-RPC.
func newStack() (*cli.Stack, error) {
	return cli.Build(cfg, nil)
}
