package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// maxLineSize bounds a single table row.
const maxLineSize = 1 << 20

// Reader reads records from decoded table text.
type Reader struct {
	layout  Layout
	sc      *bufio.Scanner
	line    int
	missing map[string]bool
	comment string
	delim   rune
	done    bool
}

// NewReader returns a Reader for layout over r.
func NewReader(r io.Reader, layout Layout) (*Reader, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	delim, _ := utf8.DecodeRuneInString(layout.delimiter())
	return &Reader{
		layout:  layout,
		sc:      sc,
		missing: layout.missingSet(),
		comment: layout.comment(),
		delim:   delim,
	}, nil
}

// Next returns the next record. It returns io.EOF after the last record,
// a *RowError for a malformed row (reading may continue), and any other
// error when reading must stop.
func (r *Reader) Next() (Record, error) {
	if r.done {
		return Record{}, io.EOF
	}
	for r.sc.Scan() {
		r.line++
		if r.line <= r.layout.SkipHeader {
			continue
		}

		text := normalizeLine(r.sc.Text())
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, r.comment) {
			continue
		}

		fields, err := r.split(text)
		if errors.Is(err, errSkipLine) {
			continue
		}
		if err != nil {
			if IsRowError(err) {
				return Record{}, err
			}
			r.done = true
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return r.record(fields)
	}

	r.done = true
	if err := r.sc.Err(); err != nil {
		return Record{}, fmt.Errorf("read table: %w", err)
	}
	return Record{}, io.EOF
}

// ReadAll reads every record. Row errors are collected and the rows
// skipped; the returned error is non-nil only if reading had to stop.
func ReadAll(rd io.Reader, layout Layout) ([]Record, []*RowError, error) {
	r, err := NewReader(rd, layout)
	if err != nil {
		return nil, nil, err
	}

	var records []Record
	var rowErrs []*RowError
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, rowErrs, nil
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			rowErrs = append(rowErrs, rowErr)
			continue
		}
		if err != nil {
			return records, rowErrs, err
		}
		records = append(records, rec)
	}
}

var errSkipLine = errors.New("skip line")

// field is one raw cell, with optional uncertainties split off (LaTeX).
type field struct {
	text      string
	err       string
	up, down  string
	hasErrors bool
}

func (r *Reader) split(text string) ([]field, error) {
	switch r.layout.Format {
	case FormatFixed:
		return r.splitFixed(text)
	case FormatWhitespace:
		return r.checkCount(plainFields(strings.Fields(text)))
	case FormatCSV:
		cr := csv.NewReader(strings.NewReader(text))
		cr.Comma = r.delim
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		cr.TrimLeadingSpace = true
		cells, err := cr.Read()
		if err != nil {
			return nil, &RowError{Line: r.line, Err: err}
		}
		return r.checkCount(plainFields(cells))
	case FormatLaTeX:
		cells, ok := latexCells(text)
		if !ok {
			return nil, errSkipLine
		}
		return r.checkCount(cells)
	}
	return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidLayout, r.layout.Format)
}

func (r *Reader) checkCount(fields []field) ([]field, error) {
	n := len(r.layout.Columns)
	if len(fields) > n {
		return nil, fmt.Errorf("%w: got %d fields, layout declares %d", ErrExtraColumns, len(fields), n)
	}
	if len(fields) < n {
		return nil, &RowError{Line: r.line, Err: fmt.Errorf("%w: got %d fields, want %d", ErrShortRow, len(fields), n)}
	}
	return fields, nil
}

func (r *Reader) splitFixed(text string) ([]field, error) {
	runes := []rune(strings.TrimRight(text, " \t"))
	fields := make([]field, len(r.layout.Columns))
	pos := 0
	for i, c := range r.layout.Columns {
		end := pos + c.Width
		if c.Width == 0 || end > len(runes) {
			end = len(runes)
		}
		if pos < len(runes) {
			fields[i] = field{text: string(runes[pos:end])}
		}
		// A numeric rest-of-line cell holds one token; more means the file
		// has columns the layout does not declare.
		if c.Width == 0 && (c.Type == TypeFloat || c.Type == TypeInt) {
			if tokens := strings.Fields(fields[i].text); len(tokens) > 1 {
				return nil, fmt.Errorf("%w: %q in column %s", ErrExtraColumns, fields[i].text, c.Name)
			}
		}
		pos = end
	}
	if pos < len(runes) && strings.TrimSpace(string(runes[pos:])) != "" {
		return nil, fmt.Errorf("%w: %q past column %d", ErrExtraColumns, string(runes[pos:]), pos)
	}
	return fields, nil
}

func plainFields(cells []string) []field {
	out := make([]field, len(cells))
	for i, c := range cells {
		out[i] = field{text: c}
	}
	return out
}

func (r *Reader) record(fields []field) (Record, error) {
	rec := Record{Line: r.line, Values: make(map[string]Value, len(fields))}
	for i, c := range r.layout.Columns {
		f := fields[i]
		v := r.convert(c.Type, f.text)
		if c.Required && v.Missing {
			return Record{}, &RowError{Line: r.line, Column: c.Name, Err: fmt.Errorf("%w: %q", ErrRequired, v.Raw)}
		}
		rec.Values[c.Name] = v

		if f.hasErrors {
			rec.Values[c.Name+"_err"] = r.convert(TypeFloat, f.err)
			rec.Values[c.Name+"_up"] = r.convert(TypeFloat, f.up)
			rec.Values[c.Name+"_down"] = r.convert(TypeFloat, f.down)
		}
	}
	return rec, nil
}

// convert parses raw as typ. Placeholders and unparseable numbers yield a
// missing value.
func (r *Reader) convert(typ Type, raw string) Value {
	raw = strings.TrimSpace(raw)
	v := Value{Type: typ, Raw: raw}
	if r.missing[raw] || raw == "" {
		v.Missing = true
		return v
	}

	var err error
	switch typ {
	case TypeString:
		v.Str = raw
	case TypeFloat:
		v.Num, err = strconv.ParseFloat(raw, 64)
		if err == nil && (math.IsNaN(v.Num) || math.IsInf(v.Num, 0)) {
			err = strconv.ErrSyntax
		}
	case TypeInt:
		v.Int, err = strconv.ParseInt(raw, 10, 64)
	case TypeHMS:
		v.Num, err = ParseHMS(raw)
	case TypeDMS:
		v.Num, err = ParseDMS(raw)
	}
	if err != nil {
		v.Missing = true
	}
	return v
}

// normalizeLine re-decodes lines that are not valid UTF-8 as ISO-8859-1,
// the encoding older catalogue files use for accented author names.
func normalizeLine(s string) string {
	s = strings.TrimSuffix(s, "\r")
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "�")
	}
	return decoded
}
