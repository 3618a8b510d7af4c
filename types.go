package casedex

import (
	"time"

	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/order"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
	casedetailuc "github.com/kailas-cloud/casedex/internal/usecase/casedetail"
	healthuc "github.com/kailas-cloud/casedex/internal/usecase/health"
)

// CaseType is the normalized case category.
type CaseType string

// Case types.
const (
	Criminal       CaseType = CaseType(courtcase.Criminal)
	Civil          CaseType = CaseType(courtcase.Civil)
	Administrative CaseType = CaseType(courtcase.Administrative)
	Constitutional CaseType = CaseType(courtcase.Constitutional)
	Disciplinary   CaseType = CaseType(courtcase.Disciplinary)
)

// SortOrder is the result ordering.
type SortOrder string

// Sort orders.
const (
	SortRelevance SortOrder = SortOrder(order.Relevance)
	SortDateDesc  SortOrder = SortOrder(order.DateDesc)
	SortDateAsc   SortOrder = SortOrder(order.DateAsc)
)

// Case is one court decision. Decided is zero when the date is unknown.
type Case struct {
	ID           string
	Title        string
	Court        string
	Jurisdiction string
	CaseType     CaseType
	Decided      time.Time
	Citation     string
	DocketNumber string
	Judges       string
	Snippet      string
	Summary      string
	KeyPassages  []string
}

// Hit is a ranked search result.
type Hit struct {
	Case  Case
	Score float64
}

// Page is one page of ranked results.
type Page struct {
	Hits []Hit
	// TotalAvailable is the number of matches, capped at the retrieval window.
	TotalAvailable int
	Offset         int
	Limit          int
	QueryTime      time.Duration
}

// FullCase is a case with its opinion text and summary.
type FullCase struct {
	Case
	Text        string
	HasFullText bool
	// SummarySource is "ai" or "excerpt".
	SummarySource string
	GeneratedAt   time.Time
}

// FilterOptions lists the facet values present in the corpus.
type FilterOptions struct {
	Jurisdictions []string
	Courts        []string
	CaseTypes     []CaseType
}

// HealthReport is the per-component health of the client's backends.
type HealthReport struct {
	// Status is "ok", "degraded" or "error".
	Status string
	Checks map[string]string
}

func fromCase(c courtcase.Case) Case {
	out := Case{
		ID:           c.ID(),
		Title:        c.Title(),
		Court:        c.Court(),
		Jurisdiction: c.Jurisdiction(),
		CaseType:     CaseType(c.CaseType()),
		Citation:     c.Citation(),
		DocketNumber: c.DocketNumber(),
		Judges:       c.Judges(),
		Snippet:      c.Snippet(),
		Summary:      c.Summary(),
		KeyPassages:  c.KeyPassages(),
	}
	if c.HasDate() {
		out.Decided = c.Decided()
	}
	return out
}

func fromPage(p result.Page) Page {
	hits := make([]Hit, len(p.Hits))
	for i, h := range p.Hits {
		hits[i] = Hit{Case: fromCase(h.Case()), Score: h.Score()}
	}
	return Page{
		Hits:           hits,
		TotalAvailable: p.TotalAvailable,
		Offset:         p.Offset,
		Limit:          p.Limit,
		QueryTime:      time.Duration(p.QueryTimeMs) * time.Millisecond,
	}
}

func fromFull(f casedetailuc.Full) FullCase {
	return FullCase{
		Case:          fromCase(f.Case),
		Text:          f.Text,
		HasFullText:   f.HasFullText,
		SummarySource: string(f.Enhancement.Source()),
		GeneratedAt:   f.Enhancement.GeneratedAt(),
	}
}

func fromOptions(o filter.Options) FilterOptions {
	types := make([]CaseType, len(o.CaseTypes))
	for i, t := range o.CaseTypes {
		types[i] = CaseType(t)
	}
	return FilterOptions{
		Jurisdictions: o.Jurisdictions,
		Courts:        o.Courts,
		CaseTypes:     types,
	}
}

func fromReport(r healthuc.Report) HealthReport {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthReport{Status: string(r.Status), Checks: checks}
}
