package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHMS converts sexagesimal hours to degrees. Fields may be separated
// by spaces, colons or h/m/s markers. A single number is taken as hours.
func ParseHMS(s string) (float64, error) {
	parts, neg, err := sexagesimalParts(s, "hms")
	if err != nil {
		return 0, fmt.Errorf("parse hms %q: %w", s, err)
	}
	if neg {
		return 0, fmt.Errorf("parse hms %q: negative right ascension", s)
	}
	h, m, sec := parts[0], parts[1], parts[2]
	if m >= 60 || sec >= 60 || h >= 24 {
		return 0, fmt.Errorf("parse hms %q: out of range", s)
	}
	return 15 * (h + m/60 + sec/3600), nil
}

// ParseDMS converts sexagesimal degrees to decimal degrees. The sign of the
// leading field applies to the whole angle, so "-00 30 00" is -0.5.
func ParseDMS(s string) (float64, error) {
	parts, neg, err := sexagesimalParts(s, "dms°'\"")
	if err != nil {
		return 0, fmt.Errorf("parse dms %q: %w", s, err)
	}
	d, m, sec := parts[0], parts[1], parts[2]
	if m >= 60 || sec >= 60 || d > 90 {
		return 0, fmt.Errorf("parse dms %q: out of range", s)
	}
	v := d + m/60 + sec/3600
	if neg {
		v = -v
	}
	return v, nil
}

// sexagesimalParts splits s into up to three non-negative numbers and the
// overall sign.
func sexagesimalParts(s, markers string) ([3]float64, bool, error) {
	var out [3]float64
	s = strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ':' || r == '\t' || strings.ContainsRune(markers, r)
	})
	if len(fields) == 0 || len(fields) > 3 {
		return out, false, fmt.Errorf("want 1 to 3 fields, got %d", len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return out, false, err
		}
		if v < 0 {
			return out, false, fmt.Errorf("sign inside field %d", i+1)
		}
		out[i] = v
	}
	return out, neg, nil
}
