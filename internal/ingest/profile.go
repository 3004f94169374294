package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/supaharris/shingest/internal/names"
	"github.com/supaharris/shingest/internal/parser"
)

// profileDesignation derives the object designation of a profile file
// from its base name: "NGC_104.dat.gz" gives "NGC 104" unless the set's
// NamePattern says otherwise.
func profileDesignation(set *ProfileSet, path string) (string, error) {
	base := filepath.Base(path)
	if set.NamePattern != "" {
		re, err := regexp.Compile(set.NamePattern)
		if err != nil {
			return "", fmt.Errorf("%s: name pattern: %w", path, err)
		}
		m := re.FindStringSubmatch(base)
		if len(m) < 2 || m[1] == "" {
			return "", fmt.Errorf("%s: file name does not match %q", path, set.NamePattern)
		}
		return names.Clean(strings.ReplaceAll(m[1], "_", " ")), nil
	}
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return names.Clean(strings.ReplaceAll(base, "_", " ")), nil
}

// profileGroup is the rows of one object in a multi-object profile table.
type profileGroup struct {
	designation string
	records     []parser.Record
}

// groupProfiles splits records by the set's name column, in order of first
// appearance. Rows without a name are returned separately.
func groupProfiles(set *ProfileSet, records []parser.Record) (groups []profileGroup, unnamed []parser.Record) {
	index := map[string]int{}
	for _, rec := range records {
		designation := names.Clean(rec.String(set.NameColumn))
		if designation == "" {
			unnamed = append(unnamed, rec)
			continue
		}
		i, ok := index[designation]
		if !ok {
			i = len(groups)
			index[designation] = i
			groups = append(groups, profileGroup{designation: designation})
		}
		groups[i].records = append(groups[i].records, rec)
	}
	return groups, unnamed
}

// excludeRows drops the records of designation matched by the set's row
// filters and returns the rest with the number dropped.
func excludeRows(set *ProfileSet, canon *names.Canonicalizer, designation string, records []parser.Record) ([]parser.Record, int) {
	var filters []RowFilter
	for _, f := range set.Exclude {
		if f.Object == "" || canon.Canonical(f.Object) == canon.Canonical(designation) {
			filters = append(filters, f)
		}
	}
	if len(filters) == 0 {
		return records, 0
	}

	kept := records[:0:0]
	for _, rec := range records {
		if !matchesAny(filters, rec) {
			kept = append(kept, rec)
		}
	}
	return kept, len(records) - len(kept)
}

func matchesAny(filters []RowFilter, rec parser.Record) bool {
	for _, f := range filters {
		if slices.Contains(f.Values, rec.String(f.Column)) {
			return true
		}
	}
	return false
}

// label names a profile in warnings: the file for one-file-per-object
// sets, the table and object otherwise.
func (p parsedProfile) label() string {
	if p.set.Source != "" {
		return fmt.Sprintf("%s (%s)", p.path, p.designation)
	}
	return p.path
}
