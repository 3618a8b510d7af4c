package result

import "github.com/kailas-cloud/casedex/internal/domain/courtcase"

// Source identifies the retrieval path that produced a candidate.
type Source int

// Retrieval sources. Lower values win score ties.
const (
	SourceVector Source = iota
	SourceText
)

func (s Source) String() string {
	if s == SourceVector {
		return "vector"
	}
	return "text"
}

// Candidate is one scored hit from a single retrieval path.
// Payload carries whatever metadata the path returned alongside the id.
type Candidate struct {
	ID      string
	Score   float64
	Source  Source
	Payload courtcase.Case
}

// Hit is a ranked case on a result page.
type Hit struct {
	c     courtcase.Case
	score float64
}

// NewHit creates a search result entry.
func NewHit(c courtcase.Case, score float64) Hit {
	return Hit{c: c, score: score}
}

// Case returns the hydrated case.
func (h Hit) Case() courtcase.Case { return h.c }

// Score returns the fused relevance score.
func (h Hit) Score() float64 { return h.score }

// Page is one slice of a ranked result set.
// Degraded and fully successful searches share this shape.
type Page struct {
	Hits           []Hit
	TotalAvailable int
	Offset         int
	Limit          int
	QueryTimeMs    int64
}

// IDs returns the case ids in page order.
func (p Page) IDs() []string {
	ids := make([]string, len(p.Hits))
	for i, h := range p.Hits {
		ids[i] = h.Case().ID()
	}
	return ids
}
