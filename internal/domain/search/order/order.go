package order

import "strings"

// Order is the requested result ordering.
type Order string

// Supported orderings.
const (
	// Relevance sorts by fused score, best first.
	Relevance Order = "relevance"
	DateDesc  Order = "date_desc"
	DateAsc   Order = "date_asc"
)

// Parse resolves an ordering name. Empty means Relevance; "newest" and "oldest"
// are accepted as aliases.
func Parse(s string) (Order, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Relevance):
		return Relevance, true
	case string(DateDesc), "newest":
		return DateDesc, true
	case string(DateAsc), "oldest":
		return DateAsc, true
	default:
		return "", false
	}
}

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool {
	return o == Relevance || o == DateDesc || o == DateAsc
}

// ByDate reports whether the order sorts on the decision date.
func (o Order) ByDate() bool {
	return o == DateDesc || o == DateAsc
}
