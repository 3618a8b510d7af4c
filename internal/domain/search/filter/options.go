package filter

import "github.com/kailas-cloud/casedex/internal/domain/courtcase"

// Options are the distinct facet values observed in the corpus.
type Options struct {
	Jurisdictions []string
	Courts        []string
	CaseTypes     []courtcase.Type
}

// Vocabulary builds the compiler vocabulary from the observed values.
func (o Options) Vocabulary() *Vocabulary {
	return NewVocabulary(o.Jurisdictions, o.Courts)
}
