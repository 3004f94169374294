package resolve

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/supaharris/shingest/internal/catalogue"
	"github.com/supaharris/shingest/internal/names"
)

// DefaultThreshold is the similarity score at or above which a candidate
// is put to the operator.
const DefaultThreshold = 90

// Outcome is the result of a fuzzy lookup.
type Outcome int

const (
	// NoCandidate means nothing is similar enough to ask about.
	NoCandidate Outcome = iota
	// DeferToOperator means a candidate exists and only an operator may
	// accept it.
	DeferToOperator
)

func (o Outcome) String() string {
	if o == DeferToOperator {
		return "defer_to_operator"
	}
	return "no_candidate"
}

// Suggestion is the best approximate match for a query.
type Suggestion struct {
	Outcome   Outcome
	Query     string
	Candidate string
	ID        catalogue.ObjectID
	Score     int
}

type candidate struct {
	key  string
	name string
	id   catalogue.ObjectID
}

// FuzzyMatcher proposes existing objects whose names resemble a query.
type FuzzyMatcher struct {
	threshold  int
	canon      *names.Canonicalizer
	candidates []candidate
}

// NewFuzzyMatcher indexes the names and altnames of every object in m.
// A threshold outside 1..100 falls back to DefaultThreshold.
func NewFuzzyMatcher(m *NameMap, threshold int) *FuzzyMatcher {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	f := &FuzzyMatcher{threshold: threshold, canon: m.canon}
	for _, obj := range m.Objects() {
		for _, name := range obj.Names() {
			f.candidates = append(f.candidates, candidate{key: f.key(name), name: name, id: obj.ID})
		}
	}
	return f
}

// Threshold returns the effective threshold.
func (f *FuzzyMatcher) Threshold() int {
	return f.threshold
}

// Suggest returns the most similar candidate. Ties go to the oldest object.
func (f *FuzzyMatcher) Suggest(query string) Suggestion {
	s := Suggestion{Outcome: NoCandidate, Query: query}
	key := f.key(query)
	if key == "" {
		return s
	}

	best := -1
	for _, c := range f.candidates {
		score := Ratio(key, c.key)
		if score > best || (score == best && c.id < s.ID) {
			best = score
			s.Candidate, s.ID, s.Score = c.name, c.id, score
		}
	}
	if best >= f.threshold {
		s.Outcome = DeferToOperator
	}
	return s
}

func (f *FuzzyMatcher) key(name string) string {
	return strings.ToLower(f.canon.Canonical(name))
}

// Ratio scores the similarity of a and b from 0 (nothing shared) to 100
// (identical) as 100 * (1 - edit distance / longer length).
func Ratio(a, b string) int {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(d)/float64(longest))))
}
