package reference

import (
	"strconv"
	"strings"
	"unicode"
)

// Metadata is what a scraper learned about a reference. Zero fields are
// unknown.
type Metadata struct {
	FirstAuthor string `json:"first_author,omitempty"`
	Authors     string `json:"authors,omitempty"`
	Title       string `json:"title,omitempty"`
	Journal     string `json:"journal,omitempty"`
	DOI         string `json:"doi,omitempty"`
	Year        int    `json:"year,omitempty"`
	Month       int    `json:"month,omitempty"`
	Volume      string `json:"volume,omitempty"`
	Pages       string `json:"pages,omitempty"`
}

// Empty reports whether m carries nothing.
func (m Metadata) Empty() bool {
	return m == Metadata{}
}

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// Month maps an English month name or abbreviation to 1..12, or 0.
func Month(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0
	}
	return months[s[:3]]
}

// ParseBibtex reads the first entry of a BibTeX export. Fields it does
// not know are ignored; ok is false if nothing useful was found.
func ParseBibtex(text string) (Metadata, bool) {
	fields := bibtexFields(text)
	if len(fields) == 0 {
		return Metadata{}, false
	}

	var m Metadata
	if authors, ok := fields["author"]; ok {
		m.Authors = collapse(stripBraces(authors))
		m.FirstAuthor = firstAuthor(authors)
	}
	m.Title = collapse(stripBraces(fields["title"]))
	m.DOI = stripBraces(fields["doi"])
	m.Volume = stripBraces(fields["volume"])
	m.Pages = stripBraces(fields["pages"])
	m.Month = Month(stripBraces(fields["month"]))
	if y, err := strconv.Atoi(stripBraces(fields["year"])); err == nil {
		m.Year = y
	}

	journal := stripBraces(fields["journal"])
	if journal == "" {
		// Conference proceedings such as 1973BAAS....5..326M
		if bt := JournalMacro(stripBraces(fields["booktitle"])); Journals[bt] != "" {
			journal = bt
		}
	}
	m.Journal = JournalMacro(journal)

	return m, !m.Empty()
}

// firstAuthor returns the surname of the first author: the first braced
// group in "{Harris}, W.~E. and ..." or the text before the first comma.
func firstAuthor(raw string) string {
	raw = strings.TrimSpace(raw)
	if open := strings.IndexByte(raw, '{'); open >= 0 {
		if end := strings.IndexByte(raw[open+1:], '}'); end > 0 {
			return strings.TrimSpace(raw[open+1 : open+1+end])
		}
	}
	first, _, _ := strings.Cut(raw, " and ")
	first, _, _ = strings.Cut(first, ",")
	return strings.TrimSpace(stripBraces(first))
}

// bibtexFields parses "key = value" pairs of the first @entry. Values may
// be braced (nested braces allowed), quoted or bare.
func bibtexFields(text string) map[string]string {
	at := strings.IndexByte(text, '@')
	if at < 0 {
		return nil
	}
	open := strings.IndexAny(text[at:], "{(")
	if open < 0 {
		return nil
	}
	s := text[at+open+1:]
	// Skip the citation key.
	if comma := strings.IndexByte(s, ','); comma >= 0 {
		s = s[comma+1:]
	} else {
		return nil
	}

	fields := map[string]string{}
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == ',' })
		if s == "" || s[0] == '}' || s[0] == ')' {
			return fields
		}
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return fields
		}
		key := strings.ToLower(strings.TrimSpace(s[:eq]))
		s = strings.TrimLeftFunc(s[eq+1:], unicode.IsSpace)

		var value string
		value, s = bibtexValue(s)
		if key != "" {
			fields[key] = strings.TrimSpace(value)
		}
	}
}

func bibtexValue(s string) (value, rest string) {
	if s == "" {
		return "", ""
	}
	switch s[0] {
	case '{':
		depth := 0
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[1:i], s[i+1:]
				}
			}
		}
		return s[1:], ""
	case '"':
		depth := 0
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '{':
				depth++
			case '}':
				depth--
			case '"':
				if depth == 0 && s[i-1] != '\\' {
					return s[1:i], s[i+1:]
				}
			}
		}
		return s[1:], ""
	}
	end := strings.IndexAny(s, ",}\n")
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

// stripBraces removes BibTeX grouping and a leading macro backslash:
// "{{The Globular Cluster}}" -> "The Globular Cluster", "\apj" is kept
// for JournalMacro.
func stripBraces(s string) string {
	s = strings.NewReplacer("{", "", "}", "", `"`, "", "~", " ").Replace(s)
	return strings.TrimSpace(s)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
