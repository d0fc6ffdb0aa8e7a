package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/relay/internal/cli"
	"github.com/aretw0/relay/internal/input"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <question>",
	Short: "Answer a single question",
	Long:  `Sends one question through the supervisor and prints the answer.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		jsonMode, _ := cmd.Flags().GetBool("json")

		f, stack, err := buildStack(cmd, cli.EngineOptions{})
		if err != nil {
			return err
		}
		defer stack.Close()

		question, err := input.Sanitize(strings.Join(args, " "), f.Runtime.MaxInputSize)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		resp, err := stack.Engine.Invoke(ctx, domain.Request{Input: question, SessionID: sessionID})
		if err != nil {
			return err
		}

		if jsonMode {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("session", "s", "", "Session to continue")
	runCmd.Flags().Bool("json", false, "Print the full response as JSON")
}
