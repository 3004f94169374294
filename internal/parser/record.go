package parser

import (
	"errors"
	"fmt"
)

// Value is one typed field of a record.
type Value struct {
	Type    Type
	Raw     string // trimmed source text
	Str     string
	Num     float64
	Int     int64
	Missing bool
}

// Record is one parsed row, keyed by column name.
type Record struct {
	Line   int
	Values map[string]Value
}

// Value returns the named field.
func (r Record) Value(name string) (Value, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Has reports whether the named field exists and is not missing.
func (r Record) Has(name string) bool {
	v, ok := r.Values[name]
	return ok && !v.Missing
}

// String returns the trimmed text of the named field, or "".
func (r Record) String(name string) string {
	return r.Values[name].Raw
}

// Float returns the numeric value of the named field. ok is false when the
// field is absent or missing.
func (r Record) Float(name string) (float64, bool) {
	v, ok := r.Values[name]
	if !ok || v.Missing {
		return 0, false
	}
	switch v.Type {
	case TypeInt:
		return float64(v.Int), true
	case TypeString:
		return 0, false
	}
	return v.Num, true
}

// Int returns the integer value of the named field.
func (r Record) Int(name string) (int64, bool) {
	v, ok := r.Values[name]
	if !ok || v.Missing || v.Type != TypeInt {
		return 0, false
	}
	return v.Int, true
}

var (
	// ErrExtraColumns means a row holds more data than the layout declares.
	ErrExtraColumns = errors.New("more data columns than declared")
	// ErrShortRow means a row holds fewer fields than the layout declares.
	ErrShortRow = errors.New("fewer data columns than declared")
	// ErrRequired means a Required column is missing or unparseable.
	ErrRequired = errors.New("required value missing")
)

// RowError is a recoverable error confined to one row.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d: column %q: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// IsRowError reports whether err is recoverable by skipping the row.
func IsRowError(err error) bool {
	var rowErr *RowError
	return errors.As(err, &rowErr)
}
