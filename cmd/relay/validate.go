package main

import (
	"fmt"

	"github.com/aretw0/relay/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the flow file for consistency",
	Long: `Loads the flow file, resolves agent chains, renders the supervisor prompt
and compiles the graph. No model is contacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		showPrompt, _ := cmd.Flags().GetBool("prompt")

		offline := &cli.OfflineFactory{}
		f, stack, err := buildStack(cmd, cli.EngineOptions{Factory: offline})
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		defer stack.Close()

		out := cmd.OutOrStdout()
		if showPrompt {
			fmt.Fprintln(out, offline.Prompt)
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Flow is valid! ✅ (%d agents, %d nodes)\n", len(f.Agents), len(stack.Engine.Graph().NodeIDs()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("prompt", false, "Print the rendered supervisor prompt")
}
