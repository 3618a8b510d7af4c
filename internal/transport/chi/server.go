// Package chi exposes search and case reads over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/search/boolquery"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/request"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
	domusage "github.com/kailas-cloud/casedex/internal/domain/usage"
	"github.com/kailas-cloud/casedex/internal/metrics"
	casedetailuc "github.com/kailas-cloud/casedex/internal/usecase/casedetail"
	healthuc "github.com/kailas-cloud/casedex/internal/usecase/health"
)

const maxBodyBytes = 1 << 20

// Searcher runs ranked searches and lists facet values.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (result.Page, error)
	FilterOptions(ctx context.Context) (filter.Options, error)
}

// CaseReader reads single cases.
type CaseReader interface {
	GetCase(ctx context.Context, id string) (courtcase.Case, error)
	GetCaseFull(ctx context.Context, id string) (casedetailuc.Full, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports provider token consumption.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// RouterConfig holds the middleware settings of the HTTP surface.
type RouterConfig struct {
	APIKeys     []string
	CORSOrigins []string
}

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	cases         CaseReader
	health        HealthChecker
	usage         UsageReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, cases CaseReader, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		search:        search,
		cases:         cases,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithUsage enables GET /api/v1/usage.
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// Router mounts the API under /api/v1, with /health and /metrics at the root.
func (s *Server) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.SearchGet)
		r.Post("/search", s.SearchPost)
		r.Get("/cases/{id}", s.GetCase)
		r.Get("/cases/{id}/full", s.GetCaseFull)
		r.Get("/filters", s.FilterOptions)
		r.Post("/query/parse", s.ParseQuery)
		if s.usage != nil {
			r.Get("/usage", s.Usage)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
	return r
}

// SearchGet handles GET /api/v1/search.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	offset, err := intParam(q.Get("offset"), "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	filters, err := filtersFrom(q.Get("jurisdiction"), q.Get("court"), q.Get("case_type"),
		q.Get("date_from"), q.Get("date_to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	s.runSearch(w, r, q.Get("q"), filters, q.Get("sort"), offset, limit)
}

// SearchPost handles POST /api/v1/search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if !decodeBody(w, r, &body) {
		return
	}

	text, err := queryText(body.Query, body.Clauses)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	f := body.Filters
	filters, err := filtersFrom(string(f.Jurisdiction), string(f.Court), string(f.CaseType), f.DateFrom, f.DateTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	sort := body.Sort
	if sort == "" {
		sort = f.Sort
	}

	s.runSearch(w, r, text, filters, sort, body.Offset, body.Limit)
}

func (s *Server) runSearch(
	w http.ResponseWriter, r *http.Request,
	text string, filters filter.Filters, sort string, offset, limit int,
) {
	o, err := parseOrder(sort)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	req, err := request.New(text, filters, o, offset, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	page, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(req.Text(), page))
}

// GetCase handles GET /api/v1/cases/{id}.
func (s *Server) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.cases.GetCase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, caseToResponse(c))
}

// GetCaseFull handles GET /api/v1/cases/{id}/full.
func (s *Server) GetCaseFull(w http.ResponseWriter, r *http.Request) {
	full, err := s.cases.GetCaseFull(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fullToResponse(full))
}

// FilterOptions handles GET /api/v1/filters.
func (s *Server) FilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.search.FilterOptions(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, optionsToResponse(opts))
}

// ParseQuery handles POST /api/v1/query/parse, a preview of the boolean parser.
func (s *Server) ParseQuery(w http.ResponseWriter, r *http.Request) {
	var body parseBody
	if !decodeBody(w, r, &body) {
		return
	}
	text, err := queryText(body.Query, body.Clauses)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	n, err := boolquery.Parse(text)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	terms := n.Terms()
	if terms == nil {
		terms = []string{}
	}
	writeJSON(w, http.StatusOK, parseResponse{
		Normalized: n.String(),
		Terms:      terms,
		Match:      n.FTS5(),
	})
}

// Usage handles GET /api/v1/usage?period=day|month.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, usageToResponse(s.usage.GetReport(r.Context(), period)))
}

// Health handles GET /health. Only a full outage answers 503.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
