package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewrite(t *testing.T) {
	c := Default()

	tests := []struct {
		in        string
		canonical string
		alternate string
	}{
		{"Pal 1", "Pal 1", "Palomar 1"},
		{"Palomar 1", "Pal 1", "Palomar 1"},
		{"pal1", "Pal 1", "Palomar 1"},
		{"PAL_12", "Pal 12", "Palomar 12"},
		{"Terzan 5", "Terzan 5", "Ter 5"},
		{"Ter5", "Terzan 5", "Ter 5"},
		{"NGC 104", "NGC 104", "NGC104"},
		{"ngc0104", "NGC 104", "NGC104"},
		{"104", "NGC 104", "NGC104"},
		{"IC 1257", "IC 1257", "IC1257"},
		{"ESO 280-SC06", "ESO 280-SC06", "ESO280-SC06"},
		{"E 3", "E 3", "E3"},
		{"AM 1", "AM 1", "Arp-Madore 1"},
		{"Arp-Madore 4", "AM 4", "Arp-Madore 4"},
		{"Arp 2", "Arp 2", "Arp2"},
		{"2MASS-GC01", "2MASS-GC 1", "2MASS-GC1"},
		{"Djorg 2", "Djorg 2", "Djorgovski 2"},
		{"Rup 106", "Rup 106", "Ruprecht 106"},
		{"Ton2", "Ton 2", "Tonantzintla 2"},
		{"Koposov 1", "Ko 1", "Koposov 1"},
		{"M 4", "M 4", "Messier 4"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.canonical, c.Rewrite(tt.in, ToCanonical))
			assert.Equal(t, tt.alternate, c.Rewrite(tt.in, ToAlternate))
		})
	}
}

func TestRewrite_NoRuleCollapsesWhitespace(t *testing.T) {
	c := Default()

	for in, want := range map[string]string{
		"Eridanus":      "Eridanus",
		"47  Tuc":       "47 Tuc",
		"  omega   Cen ": "omega Cen",
		"Crater":        "Crater",
		"Pyxis":         "Pyxis",
		"Palomar":       "Palomar",
		"Terzan":        "Terzan",
		"":              "",
	} {
		assert.Equal(t, want, c.Canonical(in), in)
		assert.Equal(t, want, c.Alternate(in), in)
	}
}

// A single-letter catalogue prefix must not swallow the start of a word.
func TestRewrite_EridanusIsNotRewritten(t *testing.T) {
	c := Default()

	_, ok := c.Match("Eridanus")
	assert.False(t, ok)
	assert.Equal(t, []string{"Eridanus"}, c.Variants("Eridanus"))
}

func TestMatch_FirstRuleWins(t *testing.T) {
	c := Default()

	eso, ok := c.Match("ESO 452-SC11")
	assert.True(t, ok)
	e, ok := c.Match("E 3")
	assert.True(t, ok)
	assert.Equal(t, "ESO", eso.Rule.Canonical)
	assert.Equal(t, "E", e.Rule.Canonical)
	assert.Less(t, eso.Index, e.Index, "ESO must be tried before E")

	am, ok := c.Match("Arp-Madore 1")
	assert.True(t, ok)
	assert.Equal(t, "AM", am.Rule.Canonical)
	assert.Equal(t, "Arp-Madore", am.Alias)
}

func TestMatch_OrderMatters(t *testing.T) {
	// With a rule table where a catch-all comes first, it fires and
	// shadows the more specific rule.
	c := New([]Rule{
		{Canonical: "P", Aliases: []string{"P"}},
		{Canonical: "Pal", Alternate: "Palomar", Aliases: []string{"Palomar", "Pal"}},
	})
	assert.Equal(t, "P 1", c.Canonical("P1"))
	assert.Equal(t, "Pal 1", c.Canonical("Pal 1"), "the digit boundary keeps P from matching Pal 1")
}

func TestVariants(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{
		"Palomar 1", "Pal 1", "Pal1", "Palomar1",
	}, c.Variants("Palomar 1"))

	v := c.Variants("Terzan 5")
	assert.Contains(t, v, "Ter 5")
	assert.Contains(t, v, "Ter5")
	assert.Contains(t, v, "Terzan5")

	assert.Nil(t, c.Variants("   "))
}

func TestCanonicalIsIdempotent(t *testing.T) {
	c := Default()
	for _, in := range []string{"pal1", "Palomar 1", "Ter 5", "104", "ESO 280-SC06", "47 Tuc"} {
		once := c.Canonical(in)
		assert.Equal(t, once, c.Canonical(once), in)
		assert.Equal(t, once, c.Canonical(c.Alternate(in)), in)
	}
}

func TestLooseKey(t *testing.T) {
	assert.Equal(t, "pal1", LooseKey("PAL_1"))
	assert.Equal(t, "pal1", LooseKey("Pal-1"))
	assert.Equal(t, "eso280sc06", LooseKey("ESO 280-SC06"))
}

func TestClean_NFC(t *testing.T) {
	// "Lyngå" with a combining ring above
	decomposed := "Lynga\u030a 7"
	assert.Equal(t, "Lyngå 7", Clean(decomposed))
	assert.Equal(t, "Lynga 7", Default().Canonical(decomposed))
}
