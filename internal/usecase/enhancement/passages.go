package enhancement

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPassageText   = 200
	minPassageLength = 70
	maxPassages      = 2
)

var (
	syllabusHeading = regexp.MustCompile(`(?i)\*\*Key Legal Issue|\*\*Holding|\*\*Reasoning`)
	firstPerson     = regexp.MustCompile(`(?i)\b(we|our|us)\b`)

	holdingKeywords = []string{
		"we hold", "court held", "court found", "court ruled", "court concluded",
		"majority", "justice", "writes", "writing for", "dissent", "opinion",
		"amendment", "constitution", "statute", "pursuant to", "accordingly",
	}
	quoteIndicators = []string{"ruled that", "held that", "stated that", "concluded that", "found that"}
	syllabusPhrases = []string{"The court ruled", "The central legal question", "The court found that"}
)

// KeyPassages picks up to two quotable sentences from an opinion.
// Sentences with holding language come first, then later sentences that quote
// or speak in the first person plural, then a single sentence from the middle.
// Texts shorter than 200 characters yield nothing.
func KeyPassages(text string) []string {
	if utf8.RuneCountInString(text) < minPassageText {
		return nil
	}
	sentences := splitSentences(text)
	var out []string

	for _, s := range sentences {
		if !substantial(s) {
			continue
		}
		lower := strings.ToLower(s)
		if (containsAny(lower, holdingKeywords) || containsAny(lower, quoteIndicators)) && !slices.Contains(out, s) {
			out = append(out, s)
			if len(out) >= maxPassages {
				return out
			}
		}
	}

	if len(out) < maxPassages {
		for _, s := range sentences[min(10, len(sentences)/3):] {
			if !substantial(s) {
				continue
			}
			quoted := strings.ContainsAny(s, "\"“”")
			if (quoted || firstPerson.MatchString(s)) && !slices.Contains(out, s) {
				out = append(out, s)
				if len(out) >= maxPassages {
					return out
				}
			}
		}
	}

	if len(out) == 0 {
		mid := len(sentences) / 2
		for _, s := range sentences[max(mid-10, 0):min(mid+10, len(sentences))] {
			if substantial(s) && !containsAny(s, syllabusPhrases) {
				return append(out, s)
			}
		}
	}
	return out
}

func substantial(s string) bool {
	return utf8.RuneCountInString(s) >= minPassageLength && !syllabusHeading.MatchString(s)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// splitSentences splits after '.', '!' or '?' when followed by whitespace.
// The terminator stays with its sentence; the whitespace is dropped.
func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		out = append(out, string(runes[start:i+1]))
		start = j
		i = j - 1
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}
