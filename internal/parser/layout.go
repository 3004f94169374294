package parser

import (
	"errors"
	"fmt"
)

// Type is the declared type of a column.
type Type string

const (
	TypeString Type = "string"
	TypeFloat  Type = "float"
	TypeInt    Type = "int"
	// TypeHMS is sexagesimal hours ("00 24 05.67" or "00:24:05.67"),
	// converted to degrees.
	TypeHMS Type = "hms"
	// TypeDMS is sexagesimal degrees ("-72 04 52.6"), converted to degrees.
	TypeDMS Type = "dms"
)

// Format is the physical shape of a table.
type Format string

const (
	FormatFixed      Format = "fixed"
	FormatWhitespace Format = "whitespace"
	FormatCSV        Format = "csv"
	FormatLaTeX      Format = "latex"
)

// DefaultMissing are the tokens treated as an absent value.
var DefaultMissing = []string{"", "--", "-", "...", "nan", "NaN", "NAN", "null", "NULL"}

// ErrInvalidLayout is returned for a layout that cannot describe any table.
var ErrInvalidLayout = errors.New("invalid layout")

// Column declares one column of a table.
type Column struct {
	Name string
	Type Type
	// Width is the number of characters the column occupies in a fixed
	// format table. A width of 0 on the last column means "rest of line".
	Width int
	// Required turns a missing or unparseable value into a RowError.
	Required bool
}

// Layout describes how to read one table.
type Layout struct {
	Format  Format
	Columns []Column
	// SkipHeader is the number of leading lines to ignore.
	SkipHeader int
	// Comment is a line prefix marking lines to ignore. Defaults to "#".
	Comment string
	// Delimiter separates CSV fields. Defaults to ",".
	Delimiter string
	// Missing overrides DefaultMissing.
	Missing []string
}

// Validate checks the layout for configuration errors.
func (l Layout) Validate() error {
	switch l.Format {
	case FormatFixed, FormatWhitespace, FormatCSV, FormatLaTeX:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidLayout, l.Format)
	}
	if len(l.Columns) == 0 {
		return fmt.Errorf("%w: no columns declared", ErrInvalidLayout)
	}
	if l.SkipHeader < 0 {
		return fmt.Errorf("%w: negative skip_header", ErrInvalidLayout)
	}
	if l.Format == FormatCSV && len([]rune(l.delimiter())) != 1 {
		return fmt.Errorf("%w: csv delimiter must be a single character, got %q", ErrInvalidLayout, l.Delimiter)
	}

	seen := map[string]bool{}
	for i, c := range l.Columns {
		if c.Name == "" {
			return fmt.Errorf("%w: column %d has no name", ErrInvalidLayout, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidLayout, c.Name)
		}
		seen[c.Name] = true

		switch c.Type {
		case TypeString, TypeFloat, TypeInt, TypeHMS, TypeDMS:
		default:
			return fmt.Errorf("%w: column %q has unknown type %q", ErrInvalidLayout, c.Name, c.Type)
		}

		if l.Format == FormatFixed {
			last := i == len(l.Columns)-1
			if c.Width < 0 || (c.Width == 0 && !last) {
				return fmt.Errorf("%w: fixed column %q needs a positive width", ErrInvalidLayout, c.Name)
			}
		}
	}
	return nil
}

func (l Layout) comment() string {
	if l.Comment == "" {
		return "#"
	}
	return l.Comment
}

func (l Layout) delimiter() string {
	if l.Delimiter == "" {
		return ","
	}
	return l.Delimiter
}

func (l Layout) missingSet() map[string]bool {
	tokens := l.Missing
	if tokens == nil {
		tokens = DefaultMissing
	}
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
