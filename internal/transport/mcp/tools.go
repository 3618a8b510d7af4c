package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/order"
	"github.com/kailas-cloud/casedex/internal/domain/search/request"
)

// ErrorCodeInvalidParams is the JSON-RPC code for bad tool arguments.
const ErrorCodeInvalidParams = -32602

const dateLayout = "2006-01-02"

// MCPError represents an MCP protocol error.
type MCPError struct {
	Code    int
	Message string
	Data    any
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func newMCPError(code int, message string, data any) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

func invalidParam(param, reason string) error {
	return newMCPError(ErrorCodeInvalidParams, "invalid "+param, map[string]any{
		"param":  param,
		"reason": reason,
	})
}

func (s *Server) handleSearchCases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	query := strings.TrimSpace(getStringDefault(args, "query", ""))
	if query == "" {
		return nil, invalidParam("query", "missing or empty")
	}

	from, err := getDate(args, "date_from")
	if err != nil {
		return nil, err
	}
	to, err := getDate(args, "date_to")
	if err != nil {
		return nil, err
	}
	o, ok := order.Parse(getStringDefault(args, "sort", ""))
	if !ok {
		return nil, invalidParam("sort", "must be relevance, date_desc or date_asc")
	}

	filters := filter.Filters{
		Jurisdiction: getStringDefault(args, "jurisdiction", ""),
		Court:        getStringDefault(args, "court", ""),
		CaseType:     getStringDefault(args, "case_type", ""),
		DateFrom:     from,
		DateTo:       to,
	}
	sreq, err := request.New(query, filters, o,
		getIntDefault(args, "offset", 0), getIntDefault(args, "limit", request.DefaultLimit))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	}

	page, err := s.search.Search(ctx, sreq)
	if err != nil {
		return s.toolError("search failed", err), nil
	}

	results := make([]map[string]any, len(page.Hits))
	for i, h := range page.Hits {
		m := caseToMap(h.Case())
		m["score"] = h.Score()
		results[i] = m
	}
	return mcp.NewToolResultText(formatJSON(map[string]any{
		"results":         results,
		"total":           len(results),
		"total_available": page.TotalAvailable,
		"offset":          page.Offset,
		"limit":           page.Limit,
		"query_time_ms":   page.QueryTimeMs,
	})), nil
}

func (s *Server) handleGetCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(getStringDefault(req.GetArguments(), "id", ""))
	if id == "" {
		return nil, invalidParam("id", "missing or empty")
	}

	c, err := s.cases.GetCase(ctx, id)
	if err != nil {
		return s.toolError("get case failed", err), nil
	}
	return mcp.NewToolResultText(formatJSON(caseToMap(c))), nil
}

func (s *Server) handleListFilterOptions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, err := s.search.FilterOptions(ctx)
	if err != nil {
		return s.toolError("list filter options failed", err), nil
	}
	types := make([]string, len(opts.CaseTypes))
	for i, t := range opts.CaseTypes {
		types[i] = string(t)
	}
	return mcp.NewToolResultText(formatJSON(map[string]any{
		"jurisdictions": opts.Jurisdictions,
		"courts":        opts.Courts,
		"case_types":    types,
	})), nil
}

// toolError reports a failed call inside the result so the model can read it.
func (s *Server) toolError(msg string, err error) *mcp.CallToolResult {
	s.logger.Warn("MCP tool call failed", zap.String("op", msg), zap.Error(err))
	for _, sentinel := range []error{
		domain.ErrCaseNotFound,
		domain.ErrInvalidRequest,
		domain.ErrRetrievalFailed,
		domain.ErrStoreUnavailable,
		domain.ErrQuotaExceeded,
		domain.ErrRateLimited,
	} {
		if errors.Is(err, sentinel) {
			return mcp.NewToolResultError(msg + ": " + sentinel.Error())
		}
	}
	return mcp.NewToolResultError(msg + ": internal error")
}

func caseToMap(c courtcase.Case) map[string]any {
	m := map[string]any{
		"id":    c.ID(),
		"title": c.Title(),
	}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put("court", c.Court())
	put("jurisdiction", c.Jurisdiction())
	put("case_type", string(c.CaseType()))
	put("citation", c.Citation())
	put("docket_number", c.DocketNumber())
	put("judges", c.Judges())
	put("snippet", c.Snippet())
	put("summary", c.Summary())
	if c.HasDate() {
		m["date_decided"] = c.Decided().Format(dateLayout)
	}
	if kp := c.KeyPassages(); len(kp) > 0 {
		m["key_passages"] = kp
	}
	return m
}

// formatJSON converts data to formatted JSON string
func formatJSON(data any) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}

func getDate(args map[string]any, key string) (*time.Time, error) {
	v := strings.TrimSpace(getStringDefault(args, key, ""))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, invalidParam(key, "must be YYYY-MM-DD")
	}
	return &t, nil
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]any, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]any, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
