package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/supaharris/shingest/internal/catalogue"
	"github.com/supaharris/shingest/internal/parser"
)

// MissPolicy decides what happens to a row naming an unknown object.
type MissPolicy string

const (
	// MissCreate registers a new AstroObject.
	MissCreate MissPolicy = "create"
	// MissAbort stops the dataset with an UnresolvedError.
	MissAbort MissPolicy = "abort"
	// MissSkip drops the row with a warning.
	MissSkip MissPolicy = "skip"
	// MissPrompt offers the closest fuzzy match, then creation, to an
	// operator. Without an operator the dataset aborts.
	MissPrompt MissPolicy = "prompt"
)

// ParseMissPolicy parses a policy name. Empty means MissCreate.
func ParseMissPolicy(s string) (MissPolicy, error) {
	switch p := MissPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MissCreate, nil
	case MissCreate, MissAbort, MissSkip, MissPrompt:
		return p, nil
	}
	return "", fmt.Errorf("unknown miss policy %q", s)
}

// Dataset is one published catalogue and how to ingest it.
type Dataset struct {
	Name        string
	Description string
	// Reference is the URL of the paper the data comes from.
	Reference       string
	ExtraReferences []string
	// Classification is added to every object the dataset touches.
	Classification string
	OnMiss         MissPolicy
	// FuzzyThreshold overrides the default for MissPrompt.
	FuzzyThreshold int
	// ReplaceObservations deletes the reference's observations before
	// upserting, so corrected values replace old ones.
	ReplaceObservations bool
	// Parameters defines parameters the fixture lacks.
	Parameters []catalogue.Parameter
	Tables     []Table
	Profiles   []ProfileSet
}

// Table maps one source table onto observations.
type Table struct {
	Source        string
	Layout        parser.Layout
	NameColumn    string
	AltNameColumn string
	// CanonicalNames creates new objects under their canonical name
	// ("104" becomes "NGC 104") instead of the name as written.
	CanonicalNames bool
	Observations   []ObservationMap
}

// ObservationMap turns one column into observations of one parameter.
// Sigma is a symmetric uncertainty column; SigmaUp and SigmaDown override
// it per side.
type ObservationMap struct {
	Column    string
	Parameter string
	Sigma     string
	SigmaUp   string
	SigmaDown string
}

// ProfileSet reads one profile per file matched by Glob, or one profile
// per object from a single Source table whose NameColumn names the object
// of each row. Exactly one of Glob and Source is set.
type ProfileSet struct {
	Glob string
	// NamePattern extracts the object designation from the file's base
	// name with its first capture group. Without it the base name minus
	// extensions is used.
	NamePattern string

	Source     string
	NameColumn string

	// Exclude drops matching rows before profiles are built.
	Exclude []RowFilter

	// Name is the profile type, e.g. "surface density".
	Name         string
	Layout       parser.Layout
	X, Y         string
	YSigma       string
	YSigmaUp     string
	YSigmaDown   string
	XDescription string
	YDescription string
}

// RowFilter matches rows whose Column holds one of Values. An empty Object
// matches rows of every object; otherwise only rows of the object whose
// canonical name equals Object's.
type RowFilter struct {
	Object string
	Column string
	Values []string
}

// where names the set in configuration errors.
func (p ProfileSet) where(i int) string {
	if p.Source != "" {
		return fmt.Sprintf("profile set %d (%s)", i, p.Source)
	}
	return fmt.Sprintf("profile set %d (%s)", i, p.Glob)
}

// Validate reports the first configuration problem in d.
func (d Dataset) Validate() error {
	if d.Name == "" {
		return configErrorf(d.Name, "dataset has no name")
	}
	if strings.TrimSpace(d.Reference) == "" {
		return configErrorf(d.Name, "dataset has no reference")
	}
	if _, err := ParseMissPolicy(string(d.OnMiss)); err != nil {
		return configErrorf(d.Name, "%v", err)
	}
	if d.FuzzyThreshold < 0 || d.FuzzyThreshold > 100 {
		return configErrorf(d.Name, "fuzzy threshold %d outside 0..100", d.FuzzyThreshold)
	}
	if len(d.Tables) == 0 && len(d.Profiles) == 0 && len(d.ExtraReferences) == 0 {
		return configErrorf(d.Name, "dataset has no tables, profiles or extra references")
	}
	for i, p := range d.Parameters {
		if p.Name == "" {
			return configErrorf(d.Name, "parameter %d has no name", i)
		}
	}

	for i, t := range d.Tables {
		where := fmt.Sprintf("table %d (%s)", i, t.Source)
		if t.Source == "" {
			return configErrorf(d.Name, "table %d has no source", i)
		}
		if err := t.Layout.Validate(); err != nil {
			return configErrorf(d.Name, "%s: %v", where, err)
		}
		if !declares(t.Layout, t.NameColumn) {
			return configErrorf(d.Name, "%s: name column %q not declared", where, t.NameColumn)
		}
		if t.AltNameColumn != "" && !declares(t.Layout, t.AltNameColumn) {
			return configErrorf(d.Name, "%s: altname column %q not declared", where, t.AltNameColumn)
		}
		if len(t.Observations) == 0 {
			return configErrorf(d.Name, "%s: no observations mapped", where)
		}
		for _, m := range t.Observations {
			if m.Parameter == "" {
				return configErrorf(d.Name, "%s: column %q maps to no parameter", where, m.Column)
			}
			for _, col := range []string{m.Column, m.Sigma, m.SigmaUp, m.SigmaDown} {
				if col != "" && !declares(t.Layout, col) {
					return configErrorf(d.Name, "%s: column %q not declared", where, col)
				}
			}
			if m.Column == "" {
				return configErrorf(d.Name, "%s: parameter %q maps no column", where, m.Parameter)
			}
		}
	}

	for i, p := range d.Profiles {
		where := p.where(i)
		switch {
		case p.Glob == "" && p.Source == "":
			return configErrorf(d.Name, "profile set %d has no glob or source", i)
		case p.Glob != "" && p.Source != "":
			return configErrorf(d.Name, "%s: glob and source are exclusive", where)
		case p.Source != "" && !declares(p.Layout, p.NameColumn):
			return configErrorf(d.Name, "%s: name column %q not declared", where, p.NameColumn)
		case p.Source != "" && p.NamePattern != "":
			return configErrorf(d.Name, "%s: name pattern needs a glob", where)
		case p.Glob != "" && p.NameColumn != "":
			return configErrorf(d.Name, "%s: name column needs a source", where)
		}
		if p.Name == "" {
			return configErrorf(d.Name, "%s: no profile name", where)
		}
		if err := p.Layout.Validate(); err != nil {
			return configErrorf(d.Name, "%s: %v", where, err)
		}
		for _, col := range []string{p.X, p.Y} {
			if !declares(p.Layout, col) {
				return configErrorf(d.Name, "%s: column %q not declared", where, col)
			}
		}
		for _, col := range []string{p.YSigma, p.YSigmaUp, p.YSigmaDown} {
			if col != "" && !declares(p.Layout, col) {
				return configErrorf(d.Name, "%s: column %q not declared", where, col)
			}
		}
		for _, f := range p.Exclude {
			if !declares(p.Layout, f.Column) {
				return configErrorf(d.Name, "%s: exclude column %q not declared", where, f.Column)
			}
			if len(f.Values) == 0 {
				return configErrorf(d.Name, "%s: exclude on %q lists no values", where, f.Column)
			}
		}
		if p.NamePattern != "" {
			re, err := regexp.Compile(p.NamePattern)
			if err != nil {
				return configErrorf(d.Name, "%s: name pattern: %v", where, err)
			}
			if re.NumSubexp() < 1 {
				return configErrorf(d.Name, "%s: name pattern needs a capture group", where)
			}
		}
	}
	return nil
}

// ParameterNames returns the names of every parameter the dataset maps to,
// in first-use order.
func (d Dataset) ParameterNames() []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range d.Tables {
		for _, m := range t.Observations {
			if !seen[m.Parameter] {
				seen[m.Parameter] = true
				out = append(out, m.Parameter)
			}
		}
	}
	return out
}

// Definition returns the dataset's own definition of a parameter.
func (d Dataset) Definition(name string) (catalogue.Parameter, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return catalogue.Parameter{}, false
}

// declares reports whether name is a column of l. LaTeX layouts also
// declare the <col>_err, <col>_up and <col>_down companions of each column.
func declares(l parser.Layout, name string) bool {
	if name == "" {
		return false
	}
	for _, c := range l.Columns {
		if c.Name == name {
			return true
		}
		if l.Format == parser.FormatLaTeX {
			for _, suffix := range []string{"_err", "_up", "_down"} {
				if c.Name+suffix == name {
					return true
				}
			}
		}
	}
	return false
}
