package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/relay/internal/cli"
	"github.com/aretw0/relay/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the agent graph",
	Long:  `Compiles the flow without contacting any model and prints it as a Mermaid diagram (graph TD) or JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		_, stack, err := buildStack(cmd, cli.EngineOptions{Factory: &cli.OfflineFactory{}})
		if err != nil {
			return err
		}
		defer stack.Close()

		topo := stack.Engine.Graph().Topology()
		switch format {
		case "mermaid":
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(topo, nil))
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(topo)
		default:
			return fmt.Errorf("unknown format %q (want mermaid or json)", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid or json")
}
