package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supaharris/shingest/internal/ingest"
	"github.com/supaharris/shingest/internal/parser"
)

const minimal = `
dataset: example_2020: {
	reference: "https://ui.adsabs.harvard.edu/abs/2020ApJ...900....1E"
	tables: [{
		source: "example/table1.csv"
		layout: {
			format: "csv"
			columns: [
				{name: "id", type: "string", required: true},
				{name: "dist"},
				{name: "e_dist"},
			]
		}
		name_column: "id"
		observations: [{column: "dist", parameter: "R_Sun", sigma: "e_dist"}]
	}]
	parameters: [{name: "R_Sun", unit: "kpc"}]
}
`

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func requireLoadError(t *testing.T, err error, code string) *LoadError {
	t.Helper()
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le), "expected *LoadError, got %T: %v", err, err)
	assert.Equal(t, code, le.Code, le.Error())
	return le
}

func TestBuiltin(t *testing.T) {
	set := Builtin()
	assert.Equal(t, []string{
		"balbinot_2018",
		"bica_2019",
		"deBoer_2019",
		"harris_1996ed2010",
		"hilker_2019",
		"miocchi_2013",
		"trager_1995",
		"vandenberg_2013",
	}, set.Names())

	for _, name := range set.Names() {
		ds, ok := set.Get(name)
		require.True(t, ok)
		assert.NoError(t, ds.Validate(), name)
		assert.Equal(t, name, ds.Name)
	}

	harris, _ := set.Get("harris_1996ed2010")
	require.Len(t, harris.Tables, 3)
	assert.Equal(t, "datasets/harris_1996ed2010.cue", set.Origin("harris_1996ed2010"))
	assert.Equal(t, parser.TypeHMS, harris.Tables[0].Layout.Columns[2].Type)
	assert.Equal(t, parser.TypeFloat, harris.Tables[0].Layout.Columns[4].Type, "type defaults to float")
	assert.Equal(t, "name", harris.Tables[0].AltNameColumn)

	deBoer, _ := set.Get("deBoer_2019")
	assert.True(t, deBoer.ReplaceObservations)
	require.Len(t, deBoer.Profiles, 1)
	assert.Equal(t, "density_err", deBoer.Profiles[0].YSigma)
	for _, p := range deBoer.Parameters {
		assert.Equal(t, 1.0, p.Scale, p.Name)
	}

	trager, _ := set.Get("trager_1995")
	assert.Equal(t, ingest.MissPrompt, trager.OnMiss)
	require.Len(t, trager.Profiles, 1)
	sb := trager.Profiles[0]
	assert.Empty(t, sb.Glob)
	assert.Equal(t, "Name", sb.NameColumn)
	require.Len(t, sb.Exclude, 1)
	assert.Equal(t, "NGC 2419", sb.Exclude[0].Object)
	assert.Len(t, sb.Exclude[0].Values, 7)

	bica, _ := set.Get("bica_2019")
	assert.Empty(t, bica.Tables)
	assert.Len(t, bica.ExtraReferences, 9)
}

func TestParse(t *testing.T) {
	datasets, err := Parse([]byte(minimal), "example.cue")
	require.NoError(t, err)
	require.Len(t, datasets, 1)

	ds := datasets[0]
	assert.Equal(t, "example_2020", ds.Name)
	assert.Equal(t, ingest.MissCreate, ds.OnMiss)
	require.Len(t, ds.Tables, 1)
	assert.Equal(t, parser.FormatCSV, ds.Tables[0].Layout.Format)
	assert.Equal(t, parser.TypeString, ds.Tables[0].Layout.Columns[0].Type)
	assert.True(t, ds.Tables[0].Layout.Columns[0].Required)
	assert.Equal(t, parser.TypeFloat, ds.Tables[0].Layout.Columns[1].Type)
	assert.Equal(t, ingest.ObservationMap{Column: "dist", Parameter: "R_Sun", Sigma: "e_dist"}, ds.Tables[0].Observations[0])
	require.Len(t, ds.Parameters, 1)
	assert.Equal(t, 1.0, ds.Parameters[0].Scale)
	assert.Equal(t, "kpc", ds.Parameters[0].Unit)
}

func TestParse_ProfileTable(t *testing.T) {
	content := `dataset: sb: {
	reference: "https://ui.adsabs.harvard.edu/abs/1995AJ....109..218T"
	profiles: [{
		source:      "tables.csv"
		name_column: "gc"
		exclude: [{column: "set", values: ["A"]}]
		name:   "surface brightness"
		layout: {format: "csv", columns: [{name: "gc", type: "string"}, {name: "r"}, {name: "mu"}, {name: "set", type: "string"}]}
		x:      "r"
		y:      "mu"
	}]
}`
	datasets, err := Parse([]byte(content), "sb.cue")
	require.NoError(t, err)
	require.Len(t, datasets[0].Profiles, 1)
	p := datasets[0].Profiles[0]
	assert.Equal(t, "tables.csv", p.Source)
	assert.Equal(t, []ingest.RowFilter{{Column: "set", Values: []string{"A"}}}, p.Exclude)

	_, err = Parse([]byte(strings.Replace(content, `values: ["A"]`, `values: []`, 1)), "sb.cue")
	requireLoadError(t, err, ErrCodeSchema)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `dataset: a: {reference: "https://arxiv.org/abs/1308.2257", colour: "red"}`},
		{"bad format", `dataset: a: {reference: "https://arxiv.org/abs/1308.2257", tables: [{source: "x", name_column: "id", layout: {format: "xml", columns: [{name: "id"}]}, observations: [{column: "id", parameter: "p"}]}]}`},
		{"bad policy", `dataset: a: {reference: "https://arxiv.org/abs/1308.2257", on_miss: "ignore"}`},
		{"threshold out of range", `dataset: a: {reference: "https://arxiv.org/abs/1308.2257", fuzzy_threshold: 120}`},
		{"name mismatch", `dataset: a: {name: "b", reference: "https://arxiv.org/abs/1308.2257"}`},
		{"missing reference", `dataset: a: {extra_references: ["https://arxiv.org/abs/1308.2257"]}`},
		{"empty columns", `dataset: a: {reference: "https://arxiv.org/abs/1308.2257", tables: [{source: "x", name_column: "id", layout: {format: "csv", columns: []}, observations: [{column: "id", parameter: "p"}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), "bad.cue")
			le := requireLoadError(t, err, ErrCodeSchema)
			assert.True(t, le.Pos.IsValid(), "position expected: %v", le)
		})
	}
}

func TestParse_InvalidDataset(t *testing.T) {
	content := `dataset: a: {
	reference: "https://arxiv.org/abs/1308.2257"
	tables: [{
		source: "x.csv"
		layout: {format: "csv", columns: [{name: "id", type: "string"}]}
		name_column: "cluster"
		observations: [{column: "id", parameter: "p"}]
	}]
}`
	_, err := Parse([]byte(content), "bad.cue")
	le := requireLoadError(t, err, ErrCodeInvalidDataset)
	assert.Contains(t, le.Message, `name column "cluster"`)
	assert.Contains(t, le.Message, "dataset a")
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse([]byte(`dataset: a: {reference: `), "broken.cue")
	requireLoadError(t, err, ErrCodeLoadFailed)
}

func TestParse_NoDatasets(t *testing.T) {
	_, err := Parse([]byte(`other: 1`), "empty.cue")
	requireLoadError(t, err, ErrCodeNoDatasets)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "example.cue", minimal)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "more"), 0o755))
	writeManifest(t, filepath.Join(dir, "more"), "refs.cue", `dataset: refs_only: {
	reference: "https://arxiv.org/abs/1308.2257"
	extra_references: ["https://ui.adsabs.harvard.edu/abs/2013ApJ...775..134V"]
}`)
	writeManifest(t, dir, "notes.txt", "not a manifest")

	set, errs := LoadDir(dir, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, []string{"example_2020", "refs_only"}, set.Names())
	assert.Equal(t, filepath.Join(dir, "more", "refs.cue"), set.Origin("refs_only"))
}

func TestLoadDir_Errors(t *testing.T) {
	_, errs := LoadDir(filepath.Join(t.TempDir(), "missing"), LoadModeFailFast)
	require.Len(t, errs, 1)
	requireLoadError(t, errs[0], ErrCodeNotFound)

	_, errs = LoadDir(t.TempDir(), LoadModeFailFast)
	require.Len(t, errs, 1)
	requireLoadError(t, errs[0], ErrCodeNoFiles)
}

func TestLoadDir_Modes(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.cue", `dataset: a: {reference: "https://arxiv.org/abs/1308.2257", colour: "red"}`)
	writeManifest(t, dir, "b.cue", `dataset: b: {reference: `)
	writeManifest(t, dir, "c.cue", minimal)
	writeManifest(t, dir, "d.cue", minimal)

	_, errs := LoadDir(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)

	set, errs := LoadDir(dir, LoadModeCollectAll)
	require.Len(t, errs, 3)
	requireLoadError(t, errs[0], ErrCodeSchema)
	requireLoadError(t, errs[1], ErrCodeLoadFailed)
	dup := requireLoadError(t, errs[2], ErrCodeDuplicateDataset)
	assert.Contains(t, dup.Message, "example_2020")
	assert.Equal(t, []string{"example_2020"}, set.Names())
}

func TestLoad_UserManifestsOverrideBuiltins(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "vandenberg.cue", `dataset: vandenberg_2013: {
	reference: "https://arxiv.org/abs/1308.2257"
	on_miss: "skip"
	tables: [{
		source: "vdb/table2.csv"
		layout: {format: "csv", columns: [{name: "ngc", type: "string"}, {name: "age"}]}
		name_column: "ngc"
		canonical_names: true
		observations: [{column: "age", parameter: "Age"}]
	}]
}`)

	set, errs := Load(dir, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, Builtin().Len(), set.Len())

	ds, ok := set.Get("vandenberg_2013")
	require.True(t, ok)
	assert.Equal(t, ingest.MissSkip, ds.OnMiss)
	assert.Equal(t, "https://arxiv.org/abs/1308.2257", ds.Reference)
	assert.Equal(t, filepath.Join(dir, "vandenberg.cue"), set.Origin("vandenberg_2013"))

	builtin, errs := Load("", LoadModeFailFast)
	require.Empty(t, errs)
	ds, _ = builtin.Get("vandenberg_2013")
	assert.Equal(t, ingest.MissCreate, ds.OnMiss)
}
