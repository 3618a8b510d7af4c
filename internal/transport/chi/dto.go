package chi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/search/boolquery"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/order"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
	domusage "github.com/kailas-cloud/casedex/internal/domain/usage"
	casedetailuc "github.com/kailas-cloud/casedex/internal/usecase/casedetail"
)

const dateLayout = "2006-01-02"

// stringList accepts either a string or an array of strings and joins arrays
// with commas, the list form filter compilation understands.
type stringList string

func (s *stringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*s = stringList(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("expected string or array of strings")
	}
	*s = stringList(strings.Join(many, ","))
	return nil
}

type filtersBody struct {
	Jurisdiction stringList `json:"jurisdiction"`
	Court        stringList `json:"court"`
	CaseType     stringList `json:"case_type"`
	DateFrom     string     `json:"date_from"`
	DateTo       string     `json:"date_to"`
	Sort         string     `json:"sort"`
}

type clauseBody struct {
	Op     string `json:"op"`
	Value  string `json:"value"`
	Phrase bool   `json:"phrase"`
}

type searchBody struct {
	Query   string       `json:"query"`
	Clauses []clauseBody `json:"clauses"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
	Sort    string       `json:"sort"`
	Filters filtersBody  `json:"filters"`
}

type parseBody struct {
	Query   string       `json:"query"`
	Clauses []clauseBody `json:"clauses"`
}

type parseResponse struct {
	Normalized string   `json:"normalized"`
	Terms      []string `json:"terms"`
	Match      string   `json:"match"`
}

type caseResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Court        string   `json:"court,omitempty"`
	Jurisdiction string   `json:"jurisdiction,omitempty"`
	CaseType     string   `json:"case_type,omitempty"`
	DateDecided  string   `json:"date_decided,omitempty"`
	Citation     string   `json:"citation,omitempty"`
	DocketNumber string   `json:"docket_number,omitempty"`
	Judges       string   `json:"judges,omitempty"`
	Snippet      string   `json:"snippet,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	KeyPassages  []string `json:"key_passages,omitempty"`
}

type searchHit struct {
	caseResponse
	Score float64 `json:"score"`
}

type searchResponse struct {
	Results        []searchHit `json:"results"`
	Query          string      `json:"query"`
	Total          int         `json:"total"`
	TotalAvailable int         `json:"total_available"`
	Offset         int         `json:"offset"`
	Limit          int         `json:"limit"`
	QueryTimeMs    int64       `json:"query_time_ms"`
}

type fullCaseResponse struct {
	caseResponse
	FullText      string `json:"full_text"`
	HasFullText   bool   `json:"has_full_text"`
	SummarySource string `json:"summary_source,omitempty"`
	GeneratedAt   string `json:"generated_at,omitempty"`
}

type filterOptionsResponse struct {
	Jurisdictions []string `json:"jurisdictions"`
	Courts        []string `json:"courts"`
	CaseTypes     []string `json:"case_types"`
	SortOptions   []string `json:"sort_options"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type usageResponse struct {
	Period      string `json:"period"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Limit       int64  `json:"limit"`
	Used        int64  `json:"used"`
	Remaining   int64  `json:"remaining"`
	Exhausted   bool   `json:"exhausted"`
	Unlimited   bool   `json:"unlimited"`
}

func usageToResponse(r domusage.Report) usageResponse {
	return usageResponse{
		Period:      string(r.Period()),
		PeriodStart: r.Start().Format(time.RFC3339),
		PeriodEnd:   r.End().Format(time.RFC3339),
		Limit:       r.Limit(),
		Used:        r.Used(),
		Remaining:   r.Remaining(),
		Exhausted:   r.Exhausted(),
		Unlimited:   r.Unlimited(),
	}
}

func clausesFromBody(cc []clauseBody) []boolquery.Clause {
	out := make([]boolquery.Clause, len(cc))
	for i, c := range cc {
		out[i] = boolquery.Clause{Op: boolquery.Op(c.Op), Value: c.Value, Phrase: c.Phrase}
	}
	return out
}

// queryText resolves builder clauses into query text; plain text wins when
// no clauses are given.
func queryText(text string, clauses []clauseBody) (string, error) {
	if len(clauses) == 0 {
		return text, nil
	}
	built, err := boolquery.Build(clausesFromBody(clauses))
	if err != nil {
		return "", fmt.Errorf("invalid query clauses: %w", err)
	}
	return built, nil
}

func parseDate(name, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		t, err = time.Parse(time.RFC3339, v)
	}
	if err != nil {
		return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD)", name)
	}
	return &t, nil
}

func filtersFrom(jurisdiction, court, caseType, dateFrom, dateTo string) (filter.Filters, error) {
	from, err := parseDate("date_from", dateFrom)
	if err != nil {
		return filter.Filters{}, err
	}
	to, err := parseDate("date_to", dateTo)
	if err != nil {
		return filter.Filters{}, err
	}
	return filter.Filters{
		Jurisdiction: jurisdiction,
		Court:        court,
		CaseType:     caseType,
		DateFrom:     from,
		DateTo:       to,
	}, nil
}

func parseOrder(s string) (order.Order, error) {
	o, ok := order.Parse(s)
	if !ok {
		return "", fmt.Errorf("invalid sort order: %q", s)
	}
	return o, nil
}

func caseToResponse(c courtcase.Case) caseResponse {
	resp := caseResponse{
		ID:           c.ID(),
		Title:        c.Title(),
		Court:        c.Court(),
		Jurisdiction: c.Jurisdiction(),
		CaseType:     string(c.CaseType()),
		Citation:     c.Citation(),
		DocketNumber: c.DocketNumber(),
		Judges:       c.Judges(),
		Snippet:      c.Snippet(),
		Summary:      c.Summary(),
		KeyPassages:  c.KeyPassages(),
	}
	if c.HasDate() {
		resp.DateDecided = c.Decided().Format(dateLayout)
	}
	return resp
}

func pageToResponse(query string, p result.Page) searchResponse {
	hits := make([]searchHit, len(p.Hits))
	for i, h := range p.Hits {
		hits[i] = searchHit{caseResponse: caseToResponse(h.Case()), Score: h.Score()}
	}
	return searchResponse{
		Results:        hits,
		Query:          query,
		Total:          len(hits),
		TotalAvailable: p.TotalAvailable,
		Offset:         p.Offset,
		Limit:          p.Limit,
		QueryTimeMs:    p.QueryTimeMs,
	}
}

func fullToResponse(f casedetailuc.Full) fullCaseResponse {
	resp := fullCaseResponse{
		caseResponse: caseToResponse(f.Case),
		FullText:     f.Text,
		HasFullText:  f.HasFullText,
	}
	if !f.Enhancement.IsZero() {
		resp.SummarySource = string(f.Enhancement.Source())
		if !f.Enhancement.GeneratedAt().IsZero() {
			resp.GeneratedAt = f.Enhancement.GeneratedAt().UTC().Format(time.RFC3339)
		}
	}
	return resp
}

func optionsToResponse(o filter.Options) filterOptionsResponse {
	types := make([]string, len(o.CaseTypes))
	for i, t := range o.CaseTypes {
		types[i] = string(t)
	}
	return filterOptionsResponse{
		Jurisdictions: nonNil(o.Jurisdictions),
		Courts:        nonNil(o.Courts),
		CaseTypes:     types,
		SortOptions:   []string{string(order.Relevance), string(order.DateDesc), string(order.DateAsc)},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
