package casedex

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/order"
	"github.com/kailas-cloud/casedex/internal/domain/search/request"
)

// SearchOptions configures a search. Each list filter matches any of its
// values; distinct filters must all match.
type SearchOptions struct {
	Jurisdictions []string
	Courts        []string
	CaseTypes     []CaseType
	// From and To bound the decision date, inclusive. Zero means unbounded.
	From   time.Time
	To     time.Time
	Sort   SortOrder
	Offset int
	// Limit defaults to 10 and is capped at 200.
	Limit int
}

func (o *SearchOptions) request(text string) (request.Request, error) {
	types := make([]string, len(o.CaseTypes))
	for i, t := range o.CaseTypes {
		types[i] = string(t)
	}
	f := filter.Filters{
		Jurisdiction: strings.Join(o.Jurisdictions, ","),
		Court:        strings.Join(o.Courts, ","),
		CaseType:     strings.Join(types, ","),
		DateFrom:     timePtr(o.From),
		DateTo:       timePtr(o.To),
	}
	ord, ok := order.Parse(string(o.Sort))
	if !ok {
		return request.Request{}, fmt.Errorf("unknown sort order %q", o.Sort)
	}
	return request.New(text, f, ord, o.Offset, o.Limit)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
