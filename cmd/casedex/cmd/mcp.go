package cmd

import (
	"github.com/spf13/cobra"

	mcpTransport "github.com/kailas-cloud/casedex/internal/transport/mcp"
)

func newMCPCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Expose search_cases, get_case and list_filter_options to MCP clients.
Stdout carries JSON-RPC only; logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer a.Close()
			return mcpTransport.NewServer(a.search, a.cases, a.logger).Serve(cmd.Context())
		},
	}
}
