package courtcase

import "strings"

// Type is the procedural category of a case.
type Type string

// Known case types.
const (
	Criminal       Type = "Criminal"
	Civil          Type = "Civil"
	Administrative Type = "Administrative"
	Constitutional Type = "Constitutional"
	Disciplinary   Type = "Disciplinary"
)

// Types lists every known case type in display order.
func Types() []Type {
	return []Type{Criminal, Civil, Administrative, Constitutional, Disciplinary}
}

// ParseType resolves s case-insensitively. ok is false for unknown values.
func ParseType(s string) (Type, bool) {
	s = strings.TrimSpace(s)
	for _, t := range Types() {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// IsValid reports whether t is one of the known types.
func (t Type) IsValid() bool {
	_, ok := ParseType(string(t))
	return ok && t != ""
}
