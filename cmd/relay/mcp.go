package main

import (
	"log"
	"os"

	"github.com/aretw0/relay/internal/cli"
	"github.com/aretw0/relay/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Serves the flow as an MCP server over stdio. Clients get an "ask" tool
that talks to the supervisor, a "describe_graph" tool and the relay://graph resource.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, stack, err := buildStack(cmd, cli.EngineOptions{})
		if err != nil {
			return err
		}
		defer stack.Close()

		// Stdout carries JSON-RPC.
		log.SetOutput(os.Stderr)
		newLogger(cmd).Info("starting relay MCP server (stdio)")
		return mcp.NewServer(stack.Engine).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
