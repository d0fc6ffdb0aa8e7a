package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/aretw0/relay/internal/cli"
	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/pkg/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay routes conversations between a supervisor and its agents",
	Long: `Relay runs a supervisor agent that answers users directly or hands the
request to one of its specialist agents, keeping chat history per session.
Flows are described in a YAML or JSON file (relay.yaml by default).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
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
	rootCmd.PersistentFlags().StringP("config", "c", "relay.yaml", "Flow file describing the supervisor and agents")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before running")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every node input and output")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	return logging.NewWithFormat(logging.ParseLevel(level), format)
}

func loadConfig(cmd *cobra.Command) (*config.File, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// buildStack loads the flow file and assembles the engine.
func buildStack(cmd *cobra.Command, opts cli.EngineOptions) (*config.File, *cli.Stack, error) {
	f, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	opts.Logger = newLogger(cmd)
	opts.Debug, _ = cmd.Flags().GetBool("debug")
	stack, err := cli.NewStack(f, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing relay: %w", err)
	}
	return f, stack, nil
}
