package search

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/casedex/internal/domain/search/order"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
)

// confidence scores the vector result list. Empty lists have zero confidence.
func confidence(vec []result.Candidate, metric ConfidenceMetric) float64 {
	if len(vec) == 0 {
		return 0
	}
	if metric != ConfidenceMeanTop5 {
		return vec[0].Score
	}
	n := min(5, len(vec))
	var sum float64
	for _, c := range vec[:n] {
		sum += c.Score
	}
	return sum / float64(n)
}

// fuse unions vector and text candidates by id. A vector hit keeps its score;
// a text-only hit scores its text score divided by the top text score. The
// text store's metadata is merged into vector payloads since it is authoritative.
func fuse(vec, txt []result.Candidate) []result.Candidate {
	var maxText float64
	for _, c := range txt {
		maxText = max(maxText, c.Score)
	}

	out := make([]result.Candidate, 0, len(vec)+len(txt))
	pos := make(map[string]int, len(vec)+len(txt))
	for _, c := range vec {
		if _, dup := pos[c.ID]; dup {
			continue
		}
		pos[c.ID] = len(out)
		out = append(out, c)
	}
	for _, c := range txt {
		if i, ok := pos[c.ID]; ok {
			out[i].Payload = out[i].Payload.Merge(c.Payload)
			continue
		}
		score := 0.0
		if maxText > 0 {
			score = c.Score / maxText
		}
		pos[c.ID] = len(out)
		out = append(out, result.Candidate{ID: c.ID, Score: score, Source: result.SourceText, Payload: c.Payload})
	}
	return out
}

// rank sorts candidates in place. Relevance orders by score, vector before
// text, then id. Date orders put undated cases last and break ties by score
// then id.
func rank(cands []result.Candidate, o order.Order) {
	byRelevance := func(a, b result.Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	}

	if !o.ByDate() {
		slices.SortStableFunc(cands, byRelevance)
		return
	}

	slices.SortStableFunc(cands, func(a, b result.Candidate) int {
		ad, bd := a.Payload.HasDate(), b.Payload.HasDate()
		switch {
		case ad && !bd:
			return -1
		case !ad && bd:
			return 1
		case ad && bd:
			c := cmp.Compare(a.Payload.DayNumber(), b.Payload.DayNumber())
			if o == order.DateDesc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
