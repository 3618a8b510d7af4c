package cmd

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
)

type caseOutput struct {
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
	Score        *float64 `json:"score,omitempty"`
}

type searchOutput struct {
	Results        []caseOutput `json:"results"`
	Query          string       `json:"query"`
	Total          int          `json:"total"`
	TotalAvailable int          `json:"total_available"`
	Offset         int          `json:"offset"`
	Limit          int          `json:"limit"`
	QueryTimeMs    int64        `json:"query_time_ms"`
}

type fullCaseOutput struct {
	caseOutput
	FullText      string `json:"full_text,omitempty"`
	HasFullText   bool   `json:"has_full_text"`
	SummarySource string `json:"summary_source,omitempty"`
}

func toCaseOutput(c courtcase.Case) caseOutput {
	out := caseOutput{
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
		out.DateDecided = c.Decided().Format(dateLayout)
	}
	return out
}

// describeCase renders the one-line court, date and citation header.
func describeCase(c courtcase.Case) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.Court(), c.Jurisdiction(), string(c.CaseType())} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if c.HasDate() {
		parts = append(parts, c.Decided().Format(dateLayout))
	}
	if c.Citation() != "" {
		parts = append(parts, c.Citation())
	}
	return strings.Join(parts, " | ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
