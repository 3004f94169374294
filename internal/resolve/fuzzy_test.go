package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/supaharris/shingest/internal/catalogue"
	"github.com/supaharris/shingest/internal/names"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 100, Ratio("ngc 104", "ngc 104"))
	assert.Equal(t, 100, Ratio("", ""))
	assert.Equal(t, 0, Ratio("abc", "xyz"))
	assert.Equal(t, 90, Ratio("abcdefghij", "abcdefghix"))
	assert.Equal(t, 89, Ratio("ngc 6388x", "ngc 6388y"))
	assert.Equal(t, Ratio("a", "ab"), Ratio("ab", "a"))
}

func TestSuggest(t *testing.T) {
	m := Build([]catalogue.AstroObject{
		{ID: 1, Name: "NGC 6388"},
		{ID: 2, Name: "Whiting 1"},
		{ID: 3, Name: "Eridanus"},
	}, names.Default(), nil)
	f := NewFuzzyMatcher(m, 80)
	assert.Equal(t, 80, f.Threshold())

	s := f.Suggest("Eridanos")
	assert.Equal(t, DeferToOperator, s.Outcome)
	assert.Equal(t, "Eridanus", s.Candidate)
	assert.Equal(t, catalogue.ObjectID(3), s.ID)
	assert.Equal(t, 88, s.Score)

	s = f.Suggest("Crater")
	assert.Equal(t, NoCandidate, s.Outcome)
	assert.Less(t, s.Score, 80)

	s = f.Suggest("")
	assert.Equal(t, NoCandidate, s.Outcome)
	assert.Zero(t, s.ID)
}

func TestSuggest_DefaultThreshold(t *testing.T) {
	m := Build([]catalogue.AstroObject{{ID: 1, Name: "Eridanus"}}, names.Default(), nil)

	assert.Equal(t, DefaultThreshold, NewFuzzyMatcher(m, 0).Threshold())
	assert.Equal(t, DefaultThreshold, NewFuzzyMatcher(m, 150).Threshold())

	s := NewFuzzyMatcher(m, 0).Suggest("Eridanos")
	assert.Equal(t, NoCandidate, s.Outcome, "88 is below the default threshold of 90")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "no_candidate", NoCandidate.String())
	assert.Equal(t, "defer_to_operator", DeferToOperator.String())
}
