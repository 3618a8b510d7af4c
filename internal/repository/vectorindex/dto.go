package vectorindex

import (
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
)

// Hash field names written by the offline loader.
const (
	fieldTitle        = "title"
	fieldCourt        = "court"
	fieldJurisdiction = "jurisdiction"
	fieldCaseType     = "case_type"
	fieldDecided      = "decided"
	fieldCitation     = "citation"
	fieldDocket       = "docket_number"
	fieldJudges       = "judges"
	fieldSnippet      = "snippet"
	fieldFileName     = "file_name"
	fieldVector       = "vector"
)

// payloadFields are returned with every KNN hit. The vector blob is never fetched.
var payloadFields = []string{
	fieldTitle, fieldCourt, fieldJurisdiction, fieldCaseType, fieldDecided,
	fieldCitation, fieldDocket, fieldJudges, fieldSnippet, fieldFileName,
}

// caseFromPayload is the single normalization point for vector index payloads.
func caseFromPayload(id string, m map[string]string) courtcase.Case {
	return courtcase.Reconstruct(courtcase.Fields{
		ID:           id,
		Title:        m[fieldTitle],
		Court:        m[fieldCourt],
		Jurisdiction: m[fieldJurisdiction],
		CaseType:     m[fieldCaseType],
		Decided:      parseDecided(m[fieldDecided]),
		Citation:     m[fieldCitation],
		DocketNumber: m[fieldDocket],
		Judges:       m[fieldJudges],
		Snippet:      m[fieldSnippet],
		ContentRef:   m[fieldFileName],
	})
}

// parseDecided accepts the indexed day number and, for older loads, an ISO date.
func parseDecided(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return courtcase.FromDayNumber(n)
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t
	}
	return time.Time{}
}
