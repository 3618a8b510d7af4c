package enhancement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func filler(n int) string {
	s := make([]string, n)
	for i := range s {
		s[i] = "The parties filed their briefs on schedule and the record was transmitted."
	}
	return strings.Join(s, " ")
}

func TestKeyPassages_ShortTextYieldsNone(t *testing.T) {
	assert.Empty(t, KeyPassages("We hold that the statute applies."))
}

func TestKeyPassages_HoldingLanguageFirst(t *testing.T) {
	text := filler(3) +
		" Accordingly, we hold that the warrantless search of the vehicle violated the Fourth Amendment." +
		" " + filler(2) +
		" The court concluded that the officers lacked any reason to believe evidence was in the car." +
		" The dissent would have reached the opposite result on the record presented to this Court."

	got := KeyPassages(text)
	assert.Equal(t, []string{
		"Accordingly, we hold that the warrantless search of the vehicle violated the Fourth Amendment.",
		"The court concluded that the officers lacked any reason to believe evidence was in the car.",
	}, got)
}

func TestKeyPassages_SkipsSyllabusHeadings(t *testing.T) {
	text := "**Holding:** The court ruled that the statute is unconstitutional as applied to the petitioner. " +
		filler(4) +
		" Accordingly, the judgment of the Court of Appeals is affirmed in all respects by this panel."

	got := KeyPassages(text)
	assert.Len(t, got, 1)
	assert.NotContains(t, got[0], "**Holding")
}

func TestKeyPassages_FirstPersonFromLaterSentences(t *testing.T) {
	text := filler(12) +
		" Our review of the record leaves no doubt about the sufficiency of the evidence here."

	got := KeyPassages(text)
	assert.Equal(t, []string{"Our review of the record leaves no doubt about the sufficiency of the evidence here."}, got)
}

func TestKeyPassages_MiddleFallback(t *testing.T) {
	text := filler(6)

	got := KeyPassages(text)
	assert.Len(t, got, 1)
	assert.Equal(t, "The parties filed their briefs on schedule and the record was transmitted.", got[0])
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First one. Second one?  Third!\nLast")
	assert.Equal(t, []string{"First one.", "Second one?", "Third!", "Last"}, got)
}
