package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kailas-cloud/casedex/internal/domain/search/request"
)

func searchCasesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_cases",
		Description: "Search case law by meaning and keywords, with optional court, jurisdiction, case type and date filters",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Natural language or boolean query (AND, OR, NOT, quoted phrases). Use * to list filter matches",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return",
					"default":     request.DefaultLimit,
					"minimum":     1,
					"maximum":     request.MaxLimit,
				},
				"offset": map[string]any{
					"type":        "integer",
					"description": "Number of ranked results to skip",
					"default":     0,
					"minimum":     0,
				},
				"jurisdiction": map[string]any{
					"type":        "string",
					"description": "Jurisdiction name, or a comma separated list",
				},
				"court": map[string]any{
					"type":        "string",
					"description": "Court name, or a comma separated list",
				},
				"case_type": map[string]any{
					"type":        "string",
					"description": "Criminal, Civil, Administrative, Constitutional or Disciplinary",
				},
				"date_from": map[string]any{
					"type":        "string",
					"description": "Earliest decision date (YYYY-MM-DD)",
				},
				"date_to": map[string]any{
					"type":        "string",
					"description": "Latest decision date (YYYY-MM-DD)",
				},
				"sort": map[string]any{
					"type":        "string",
					"description": "Result ordering",
					"enum":        []string{"relevance", "date_desc", "date_asc"},
					"default":     "relevance",
				},
			},
			Required: []string{"query"},
		},
	}
}

func getCaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_case",
		Description: "Fetch one case by id, including its summary when one has been generated",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"id": map[string]any{
					"type":        "string",
					"description": "Case id as returned by search_cases",
				},
			},
			Required: []string{"id"},
		},
	}
}

func listFilterOptionsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_filter_options",
		Description: "List the jurisdictions, courts and case types that search_cases filters accept",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}
}
