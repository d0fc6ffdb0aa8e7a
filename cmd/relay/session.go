package main

import (
	"errors"

	"github.com/aretw0/relay/internal/cli"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored chat sessions",
	Long:  `List, inspect, and remove the chat histories kept by the configured memory backend.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMemory(cmd, func(mem ports.ChatMemory) error {
			return cli.ListSessions(cmd.Context(), mem, cmd.OutOrStdout())
		})
	},
}

var sessionShowCmd = &cobra.Command{
	Use:     "show <session-id>",
	Aliases: []string{"inspect"},
	Short:   "Print the messages of a session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMemory(cmd, func(mem ports.ChatMemory) error {
			return cli.ShowSession(cmd.Context(), mem, args[0], cmd.OutOrStdout())
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("pass at least one session id, or --all")
		}
		return withMemory(cmd, func(mem ports.ChatMemory) error {
			return cli.RemoveSessions(cmd.Context(), mem, args, all, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionShowCmd, sessionRmCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every stored session")
}

// withMemory opens the configured memory backend, middleware included, for fn.
func withMemory(cmd *cobra.Command, fn func(ports.ChatMemory) error) error {
	f, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	mem, err := cli.NewMemory(f.Memory)
	if err != nil {
		return err
	}
	defer mem.Close()
	return fn(mem.Store)
}
