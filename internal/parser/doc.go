// Package parser reads raw astronomical catalogue tables into typed records.
//
// Published catalogues come in a handful of shapes: fixed-column text
// (column positions hard-coded per table), whitespace-separated text,
// CSV, and LaTeX tables copied out of papers. A Layout names the shape
// and declares the columns; a Reader turns decoded text (see package
// source) into a sequence of Records.
//
// # Missing values
//
// Scientific tables mark absent measurements with placeholder tokens
// ("--", "nan", blanks). A numeric field that is a placeholder, or that
// does not parse, becomes a missing Value rather than an error. Only
// columns declared Required turn a bad field into a RowError.
//
// # Errors
//
//   - *RowError: the row is malformed (too few fields, a required value
//     absent). The caller logs it, skips the row and keeps reading.
//   - ErrExtraColumns: a row holds more data than the layout declares.
//     That is a configuration bug; reading stops.
//   - anything else from the underlying reader is fatal.
package parser
