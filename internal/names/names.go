// Package names canonicalizes free-text astronomical object designations.
//
// Catalogues spell the same cluster many ways: "Pal 1", "Palomar 1",
// "pal1", "PAL_1". A Canonicalizer holds a priority-ordered list of
// catalogue prefix rules. For a designation it finds the first rule whose
// prefix matches and rewrites the designation into the rule's canonical
// or alternate spelling, or lists every spelling the rule recognizes.
//
// A prefix only matches when the identifier that follows it starts with a
// digit ("Pal 1", "E 3", "ESO 280-SC06"). Names such as "Eridanus" or
// "47 Tuc" match no rule and are returned with whitespace collapsed.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Direction selects the spelling Rewrite produces.
type Direction int

const (
	// ToCanonical produces "<Canonical> <id>", e.g. "Pal 1".
	ToCanonical Direction = iota
	// ToAlternate produces "<Alternate> <id>", e.g. "Palomar 1", or the
	// compact "<Canonical><id>" for rules without an alternate spelling.
	ToAlternate
)

// Rule is one catalogue prefix.
type Rule struct {
	Canonical string
	Alternate string
	// Aliases are the prefixes recognized for this catalogue. When one
	// alias is a prefix of another, the longer one must come first.
	Aliases []string
	// Bare also matches a designation that is only a number.
	Bare bool
}

// DefaultRules is the rule table used for globular cluster catalogues.
// Rules are tried in order and the first match wins.
var DefaultRules = []Rule{
	{Canonical: "NGC", Aliases: []string{"NGC"}, Bare: true},
	{Canonical: "IC", Aliases: []string{"IC"}},
	{Canonical: "Pal", Alternate: "Palomar", Aliases: []string{"Palomar", "Pal"}},
	{Canonical: "Terzan", Alternate: "Ter", Aliases: []string{"Terzan", "Ter"}},
	{Canonical: "Ton", Alternate: "Tonantzintla", Aliases: []string{"Tonantzintla", "Ton"}},
	{Canonical: "Djorg", Alternate: "Djorgovski", Aliases: []string{"Djorgovski", "Djorg", "Djor"}},
	{Canonical: "Rup", Alternate: "Ruprecht", Aliases: []string{"Ruprecht", "Rup"}},
	{Canonical: "Lynga", Aliases: []string{"Lynga", "Lyngå"}},
	{Canonical: "Arp", Aliases: []string{"Arp"}},
	{Canonical: "AM", Alternate: "Arp-Madore", Aliases: []string{"Arp-Madore", "AM"}},
	{Canonical: "HP", Aliases: []string{"HP"}},
	{Canonical: "BH", Aliases: []string{"BH"}},
	{Canonical: "FSR", Aliases: []string{"FSR"}},
	{Canonical: "UKS", Aliases: []string{"UKS"}},
	{Canonical: "2MASS-GC", Aliases: []string{"2MASS-GC", "2MASS GC", "2MASSGC"}},
	{Canonical: "GLIMPSE", Aliases: []string{"GLIMPSE"}},
	{Canonical: "Whiting", Aliases: []string{"Whiting"}},
	{Canonical: "Ko", Alternate: "Koposov", Aliases: []string{"Koposov", "Ko"}},
	{Canonical: "Segue", Aliases: []string{"Segue"}},
	{Canonical: "Munoz", Aliases: []string{"Munoz", "Muñoz"}},
	{Canonical: "Mercer", Aliases: []string{"Mercer"}},
	{Canonical: "Liller", Aliases: []string{"Liller"}},
	{Canonical: "BLISS", Aliases: []string{"BLISS"}},
	{Canonical: "ESO", Aliases: []string{"ESO"}},
	{Canonical: "E", Aliases: []string{"E"}},
	{Canonical: "M", Alternate: "Messier", Aliases: []string{"Messier", "M"}},
}

// Canonicalizer applies an ordered rule table.
type Canonicalizer struct {
	rules []Rule
}

// New returns a Canonicalizer over rules, tried in order.
func New(rules []Rule) *Canonicalizer {
	return &Canonicalizer{rules: rules}
}

// Default returns a Canonicalizer over DefaultRules.
func Default() *Canonicalizer {
	return New(DefaultRules)
}

// Rules returns the rule table in priority order.
func (c *Canonicalizer) Rules() []Rule {
	return c.rules
}

// Match is a designation split into the rule that fired and its identifier.
type Match struct {
	Rule       Rule
	Index      int    // position of Rule in the table
	Alias      string // the alias that matched; empty for a bare number
	Identifier string // e.g. "1" in "Palomar 1"
}

// Match finds the first rule that fires for name.
func (c *Canonicalizer) Match(name string) (Match, bool) {
	cleaned := Clean(name)
	if cleaned == "" {
		return Match{}, false
	}

	for i, rule := range c.rules {
		if rule.Bare && isNumber(cleaned) {
			return Match{Rule: rule, Index: i, Identifier: normalizeIdentifier(cleaned)}, true
		}
		for _, alias := range rule.Aliases {
			rest, ok := cutPrefixFold(cleaned, alias)
			if !ok {
				continue
			}
			rest = strings.TrimLeft(rest, " _-.")
			if rest == "" || !isDigit(rune(rest[0])) {
				continue
			}
			return Match{Rule: rule, Index: i, Alias: alias, Identifier: normalizeIdentifier(rest)}, true
		}
	}
	return Match{}, false
}

// Rewrite returns name in the requested spelling. Exactly one rule fires;
// if none does, the cleaned input is returned.
func (c *Canonicalizer) Rewrite(name string, dir Direction) string {
	m, ok := c.Match(name)
	if !ok {
		return Clean(name)
	}
	switch dir {
	case ToAlternate:
		if m.Rule.Alternate != "" {
			return m.Rule.Alternate + " " + m.Identifier
		}
		return m.Rule.Canonical + m.Identifier
	default:
		return m.Rule.Canonical + " " + m.Identifier
	}
}

// Canonical is Rewrite(name, ToCanonical).
func (c *Canonicalizer) Canonical(name string) string {
	return c.Rewrite(name, ToCanonical)
}

// Alternate is Rewrite(name, ToAlternate).
func (c *Canonicalizer) Alternate(name string) string {
	return c.Rewrite(name, ToAlternate)
}

// Variants lists the spellings of name recognized by its rule: the
// cleaned input, the canonical, alternate and compact forms, and every
// alias with and without a separating space. Without a matching rule the
// cleaned input is the only variant.
func (c *Canonicalizer) Variants(name string) []string {
	cleaned := Clean(name)
	if cleaned == "" {
		return nil
	}
	out := []string{cleaned}
	seen := map[string]bool{cleaned: true}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	m, ok := c.Match(cleaned)
	if !ok {
		return out
	}
	id := m.Identifier
	add(m.Rule.Canonical + " " + id)
	if m.Rule.Alternate != "" {
		add(m.Rule.Alternate + " " + id)
	}
	add(m.Rule.Canonical + id)
	for _, alias := range m.Rule.Aliases {
		add(alias + " " + id)
		add(alias + id)
	}
	return out
}

// Clean NFC-normalizes name, trims it and collapses runs of whitespace to
// a single space.
func Clean(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

// LooseKey folds case and drops separators, so "PAL_1", "pal 1" and
// "Pal-1" share a key.
func LooseKey(name string) string {
	var b strings.Builder
	for _, r := range norm.NFC.String(name) {
		if unicode.IsSpace(r) || r == '_' || r == '-' || r == '.' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

// normalizeIdentifier collapses whitespace and drops leading zeros from
// the leading digit run: "0104" becomes "104", "280-SC06" is unchanged.
func normalizeIdentifier(id string) string {
	id = strings.Join(strings.Fields(id), " ")
	digits := 0
	for digits < len(id) && isDigit(rune(id[digits])) {
		digits++
	}
	lead := strings.TrimLeft(id[:digits], "0")
	if lead == "" && digits > 0 {
		lead = "0"
	}
	return lead + id[digits:]
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
