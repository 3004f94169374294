package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/supaharris/shingest/internal/reference"
	"github.com/supaharris/shingest/internal/store"
	"github.com/supaharris/shingest/internal/testutil"
)

// workspace is a temporary database, data directory and manifest directory.
type workspace struct {
	t         *testing.T
	db        string
	data      string
	manifests string
	scraper   *testutil.FakeScraper
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	w := &workspace{
		t:         t,
		db:        filepath.Join(dir, "supaharris.db"),
		data:      filepath.Join(dir, "data"),
		manifests: filepath.Join(dir, "manifests"),
		scraper:   &testutil.FakeScraper{Meta: reference.Metadata{FirstAuthor: "Harris", Year: 1996}},
	}
	require.NoError(t, os.MkdirAll(w.data, 0o755))
	require.NoError(t, os.MkdirAll(w.manifests, 0o755))

	t.Setenv("MANIFEST_DIR", "")
	t.Setenv("METRICS_TEXTFILE", "")

	orig := newScrapers
	newScrapers = func(reference.ClientConfig, string, string, *zap.Logger) map[reference.Strategy]reference.Scraper {
		return w.scraper.Scrapers()
	}
	t.Cleanup(func() { newScrapers = orig })
	return w
}

func (w *workspace) writeData(name, content string) {
	w.t.Helper()
	writeFile(w.t, filepath.Join(w.data, name), content)
}

func (w *workspace) writeManifest(name, content string) {
	w.t.Helper()
	writeFile(w.t, filepath.Join(w.manifests, name), content)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// run executes the root command with the workspace flags and the given
// arguments, returning stdout.
func (w *workspace) run(args ...string) (string, error) {
	w.t.Helper()
	return w.runWithInput("", args...)
}

func (w *workspace) runWithInput(stdin string, args ...string) (string, error) {
	w.t.Helper()
	base := []string{"-v", "0", "--db", w.db, "--data-dir", w.data, "--manifests", w.manifests}
	return execute(context.Background(), stdin, append(base, args...)...)
}

func execute(ctx context.Context, stdin string, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// openStore opens the workspace database for assertions.
func (w *workspace) openStore() *store.Store {
	w.t.Helper()
	st, err := store.Open(w.db)
	require.NoError(w.t, err)
	w.t.Cleanup(func() { st.Close() })
	return st
}

const distanceManifest = `dataset: distances: {
	reference:      "http://adsabs.harvard.edu/abs/1996AJ....112.1487H"
	classification: "GC"
	on_miss:        "%s"
	tables: [{
		source: "distances.csv"
		layout: {
			format: "csv"
			columns: [
				{name: "name", type: "string", required: true},
				{name: "r_sun"},
			]
		}
		name_column: "name"
		observations: [{column: "r_sun", parameter: "R_Sun"}]
	}]
}
`
