package courtcase

import (
	"regexp"
	"strings"
)

// PerCuriam is reported for opinions issued by the court as a whole.
const PerCuriam = "Per Curiam"

var perCuriamRe = regexp.MustCompile(`(?i)^PER\s+CURIAM`)

// Ordered from most to least specific opinion header layout.
var judgeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^([A-Za-z]+),\s+J\.`),
	regexp.MustCompile(`(?i)^([A-Za-z]+),\s+Judge\.?`),
	regexp.MustCompile(`(?i)^([A-Za-z]+),\s+Justice`),
	regexp.MustCompile(`(?i)^([A-Za-z]+),\s+C\.\s*J\.`),
	regexp.MustCompile(`(?i)^([A-Za-z]+),\s+Chief\s+Judge`),
	regexp.MustCompile(`(?i)^([A-Za-z]+),\s+Presiding\s+Judge`),
	regexp.MustCompile(`(?i)^JUSTICE\s+([A-Za-z]+)`),
	regexp.MustCompile(`(?i)(?:^|\n)Justice\s+([A-Za-z]+)`),
	regexp.MustCompile(`(?i)Mr\.\s+Chief\s+Justice\s+([A-Za-z]+)`),
	regexp.MustCompile(`(?i)OPINION\s*\n\s*([A-Za-z]+),\s+Judge`),
}

// ExtractJudge pulls the authoring judge out of an opinion snippet.
// Returns "" when no known header layout matches.
func ExtractJudge(snippet string) string {
	s := strings.TrimSpace(snippet)
	if s == "" {
		return ""
	}
	for _, re := range judgeRes {
		if m := re.FindStringSubmatch(s); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if perCuriamRe.MatchString(s) {
		return PerCuriam
	}
	return ""
}
