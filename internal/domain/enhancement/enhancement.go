package enhancement

import "time"

// Source records how the summary was produced.
type Source string

// Summary sources.
const (
	SourceAI      Source = "ai"
	SourceExcerpt Source = "excerpt"
)

// Enhancement is derived per-case content: a summary plus key passages.
// Values are immutable; accessors return copies.
type Enhancement struct {
	summary     string
	keyPassages []string
	source      Source
	generatedAt time.Time
}

// New creates an Enhancement.
func New(summary string, keyPassages []string, source Source, generatedAt time.Time) Enhancement {
	return Enhancement{
		summary:     summary,
		keyPassages: append([]string(nil), keyPassages...),
		source:      source,
		generatedAt: generatedAt,
	}
}

// Summary returns the summary text.
func (e Enhancement) Summary() string { return e.summary }

// KeyPassages returns a copy of the extracted passages.
func (e Enhancement) KeyPassages() []string { return append([]string(nil), e.keyPassages...) }

// Source returns how the summary was produced.
func (e Enhancement) Source() Source { return e.source }

// GeneratedAt returns when the enhancement was computed.
func (e Enhancement) GeneratedAt() time.Time { return e.generatedAt }

// IsZero reports whether the enhancement carries nothing.
func (e Enhancement) IsZero() bool {
	return e.summary == "" && len(e.keyPassages) == 0
}

// Equal compares two enhancements field by field.
func (e Enhancement) Equal(o Enhancement) bool {
	if e.summary != o.summary || e.source != o.source || !e.generatedAt.Equal(o.generatedAt) {
		return false
	}
	if len(e.keyPassages) != len(o.keyPassages) {
		return false
	}
	for i := range e.keyPassages {
		if e.keyPassages[i] != o.keyPassages[i] {
			return false
		}
	}
	return true
}
