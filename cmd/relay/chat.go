package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/internal/cli"
	"github.com/aretw0/relay/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the supervisor interactively",
	Long: `Starts an interactive conversation. Each line is one message.
Commands: /history, /clear, /exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		plain, _ := cmd.Flags().GetBool("plain")

		f, stack, err := buildStack(cmd, cli.EngineOptions{})
		if err != nil {
			return err
		}
		defer stack.Close()

		fd := int(os.Stdout.Fd())
		tty := term.IsTerminal(fd) && !plain
		width := 0
		if tty {
			if w, _, err := term.GetSize(fd); err == nil {
				width = w
			}
			title := "supervisor routing"
			if f.Name != "" {
				title = f.Name
			}
			tui.PrintBanner(cmd.OutOrStdout(), title+" · v"+strings.TrimSpace(relay.Version))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return cli.Chat(ctx, stack.Engine, cmd.InOrStdin(), cmd.OutOrStdout(), cli.ChatOptions{
			SessionID:    sessionID,
			MaxInputSize: f.Runtime.MaxInputSize,
			Render:       tui.NewRenderer(tty, width),
			Quiet:        !term.IsTerminal(int(os.Stdin.Fd())),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session to continue")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering")
}
