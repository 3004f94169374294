package parser

import (
	"regexp"
	"strings"
)

var (
	// 12.3^{+0.4}_{-0.2}
	asymRe = regexp.MustCompile(`^(.*?)\s*\^\s*\{?\s*\+\s*([0-9.eE+-]+)\s*\}?\s*_\s*\{?\s*-\s*([0-9.eE+-]+)\s*\}?\s*$`)
	// 12.3_{-0.2}^{+0.4}
	asymDownUpRe = regexp.MustCompile(`^(.*?)\s*_\s*\{?\s*-\s*([0-9.eE+-]+)\s*\}?\s*\^\s*\{?\s*\+\s*([0-9.eE+-]+)\s*\}?\s*$`)
	// 12.3 \pm 0.4, 12.3 pm 0.4, 12.3 ± 0.4
	pmRe = regexp.MustCompile(`^(.*?)\s*(?:\\pm|\bpm\b|±)\s*(.*)$`)

	latexMarkup = strings.NewReplacer(
		`\&`, "&", "$", "", "{", "", "}", "", "~", " ",
		`\,`, "", `\;`, "", `\!`, "",
		"−", "-", `\textminus`, "-",
	)
)

// latexCells splits one LaTeX tabular row on unescaped &. Lines without a
// column separator (\hline, \begin{tabular}, captions) are not rows.
func latexCells(line string) ([]field, bool) {
	if i := strings.Index(line, `\\`); i >= 0 {
		line = line[:i]
	}
	parts := splitColumns(line)
	if len(parts) < 2 {
		return nil, false
	}

	cells := make([]field, len(parts))
	for i, p := range parts {
		cells[i] = latexCell(p)
	}
	return cells, true
}

func latexCell(raw string) field {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "$", ""))
	s = strings.ReplaceAll(s, "−", "-")

	if m := asymRe.FindStringSubmatch(s); m != nil {
		return field{text: cleanLatex(m[1]), up: m[2], down: m[3], hasErrors: true}
	}
	if m := asymDownUpRe.FindStringSubmatch(s); m != nil {
		return field{text: cleanLatex(m[1]), up: m[3], down: m[2], hasErrors: true}
	}
	if m := pmRe.FindStringSubmatch(s); m != nil {
		e := cleanLatex(m[2])
		return field{text: cleanLatex(m[1]), err: e, up: e, down: e, hasErrors: true}
	}
	return field{text: cleanLatex(s)}
}

// splitColumns splits s on every & not escaped as \&.
func splitColumns(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '&':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func cleanLatex(s string) string {
	return strings.Join(strings.Fields(latexMarkup.Replace(s)), " ")
}
