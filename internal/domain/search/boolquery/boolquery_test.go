package boolquery

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse_String(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"free text", "fourth amendment vehicle search", "fourth AND amendment AND vehicle AND search"},
		{"phrase and not", `"probable cause" AND NOT warrant`, `"probable cause" AND NOT warrant`},
		{"group", "(miranda OR custodial) interrogation", "(miranda OR custodial) AND interrogation"},
		{"precedence", "a || b && c", "a OR b AND c"},
		{"dash negation", "-dissent majority", "NOT dissent AND majority"},
		{"dangling and", "search AND", "search"},
		{"unterminated quote", `"search and seizure`, `"search and seizure"`},
		{"missing paren", "(a OR b", "a OR b"},
		{"stray paren", "a) b", "a AND b"},
		{"punctuation trimmed", "habeas, corpus.", "habeas AND corpus"},
		{"double negation", "NOT NOT bail", "bail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			if got := n.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "OR", "AND NOT", "NOT warrant", "()", `""`} {
		if _, err := Parse(in); !errors.Is(err, ErrEmpty) {
			t.Errorf("Parse(%q) err = %v, want ErrEmpty", in, err)
		}
	}
}

func TestNode_Terms(t *testing.T) {
	n, err := Parse(`"exclusionary rule" OR suppression -dissent`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"exclusionary rule", "suppression"}
	if got := n.Terms(); !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}

func TestNode_FTS5(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"implicit words become OR", "vehicle search", `("vehicle" OR "search")`},
		{"explicit AND kept", "vehicle AND search", `("vehicle" AND "search")`},
		{"negation attached", `"probable cause" AND NOT warrant`, `("probable cause" NOT "warrant")`},
		{"group keeps AND", "(miranda OR custodial) interrogation", `(("miranda" OR "custodial") AND "interrogation")`},
		{"dash negation", "-dissent majority", `("majority" NOT "dissent")`},
		{"single term", "certiorari", `"certiorari"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if got := n.FTS5(); got != tt.want {
				t.Errorf("FTS5() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchExpression_Fallback(t *testing.T) {
	if got := MatchExpression("NOT warrant"); got != `"warrant"` {
		t.Errorf("MatchExpression() = %q", got)
	}
	if got := MatchExpression("search seizure"); got != `("search" OR "seizure")` {
		t.Errorf("MatchExpression() = %q", got)
	}
	if got := MatchExpression("!!!"); got != "" {
		t.Errorf("MatchExpression(!!!) = %q, want empty", got)
	}
}

func TestFallbackFTS5_Dedupes(t *testing.T) {
	if got := FallbackFTS5(`Search search "warrant"`); got != `"Search" OR "warrant"` {
		t.Errorf("FallbackFTS5() = %q", got)
	}
}

func TestBuild(t *testing.T) {
	got, err := Build([]Clause{
		{Value: "fourth amendment"},
		{Op: OpAnd, Value: "vehicle"},
		{Op: OpNot, Value: "warrant"},
		{Op: OpOr, Value: "  "},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if want := `"fourth amendment" AND vehicle AND NOT warrant`; got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuild_Errors(t *testing.T) {
	if _, err := Build([]Clause{{Op: "XOR", Value: "a"}}); err == nil {
		t.Error("expected error for unknown operator")
	}
	if _, err := Build(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Build(nil) err = %v, want ErrEmpty", err)
	}
}
