package result

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
)

func TestHit_Accessors(t *testing.T) {
	c := courtcase.Reconstruct(courtcase.Fields{ID: "c1", Title: "Terry v. Ohio"})
	h := NewHit(c, 0.87)
	if h.Case().ID() != "c1" || h.Case().Title() != "Terry v. Ohio" {
		t.Errorf("Case() = %+v", h.Case())
	}
	if h.Score() != 0.87 {
		t.Errorf("Score() = %f", h.Score())
	}
}

func TestPage_IDs(t *testing.T) {
	p := Page{Hits: []Hit{
		NewHit(courtcase.Reconstruct(courtcase.Fields{ID: "b"}), 0.9),
		NewHit(courtcase.Reconstruct(courtcase.Fields{ID: "a"}), 0.8),
	}}
	if got := p.IDs(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("IDs() = %v", got)
	}
	if got := (Page{}).IDs(); len(got) != 0 {
		t.Errorf("empty page IDs() = %v", got)
	}
}

func TestSource_String(t *testing.T) {
	if SourceVector.String() != "vector" || SourceText.String() != "text" {
		t.Errorf("unexpected names %q %q", SourceVector, SourceText)
	}
	if SourceVector >= SourceText {
		t.Error("vector must order before text")
	}
}
