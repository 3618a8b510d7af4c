// Package cmd provides the CLI commands for casedex.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/casedex/internal/config"
	"github.com/kailas-cloud/casedex/internal/version"
)

// NewRootCmd creates the root command for the casedex CLI.
func NewRootCmd() *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "casedex",
		Short: "Hybrid semantic and keyword search over case law",
		Long: `casedex answers natural language and boolean queries over a corpus of
court decisions. It serves an HTTP API, an MCP server for AI assistants
and a command line search for quick lookups.`,
		Version:      version.Version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate("casedex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "Configuration environment (config/<env>.yaml)")

	cmd.AddCommand(newServeCmd(&env))
	cmd.AddCommand(newSearchCmd(&env))
	cmd.AddCommand(newCaseCmd(&env))
	cmd.AddCommand(newIndexCmd(&env))
	cmd.AddCommand(newMCPCmd(&env))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command with a context canceled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
