// Package mcp exposes case search to MCP clients over stdio.
//
// Tools:
//   - search_cases: hybrid search with the same filters as the HTTP API
//   - get_case: one case with its cached summary
//   - list_filter_options: jurisdictions, courts and case types in the corpus
package mcp

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/request"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
	"github.com/kailas-cloud/casedex/internal/version"
)

// ServerName is the MCP server name.
const ServerName = "casedex"

// Searcher runs ranked searches and lists facet values.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (result.Page, error)
	FilterOptions(ctx context.Context) (filter.Options, error)
}

// CaseReader reads single cases.
type CaseReader interface {
	GetCase(ctx context.Context, id string) (courtcase.Case, error)
}

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp    *server.MCPServer
	search Searcher
	cases  CaseReader
	logger *zap.Logger
}

// NewServer creates an MCP server with all tools registered.
func NewServer(search Searcher, cases CaseReader, logger *zap.Logger) *Server {
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, version.Version, server.WithToolCapabilities(false)),
		search: search,
		cases:  cases,
		logger: logger,
	}
	s.registerTools()
	return s
}

// Serve runs the stdio transport until stdin closes or ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve stdio: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchCasesTool(), s.handleSearchCases)
	s.mcp.AddTool(getCaseTool(), s.handleGetCase)
	s.mcp.AddTool(listFilterOptionsTool(), s.handleListFilterOptions)
}
