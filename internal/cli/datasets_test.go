package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supaharris/shingest/internal/manifest"
)

func TestDatasets_ListsBuiltinsAndUserManifests(t *testing.T) {
	w := newWorkspace(t)
	w.writeManifest("distances.cue", fmt.Sprintf(distanceManifest, "abort"))

	out, err := w.run("datasets")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, manifest.Builtin().Len()+2)
	assert.Equal(t, []string{"DATASET", "TABLES", "PROFILES", "REFERENCES", "ON", "MISS", "ORIGIN"}, strings.Fields(lines[0]))

	var distances []string
	for _, l := range lines {
		if strings.HasPrefix(l, "distances ") {
			distances = strings.Fields(l)
		}
	}
	require.NotEmpty(t, distances)
	assert.Equal(t, []string{"distances", "1", "0", "1", "abort"}, distances[:5])
	assert.True(t, strings.HasSuffix(distances[5], "distances.cue"))
}

func TestDatasets_JSON(t *testing.T) {
	w := newWorkspace(t)

	out, err := w.run("--format", "json", "datasets")
	require.NoError(t, err)

	var resp struct {
		Data []DatasetInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, manifest.Builtin().Len())

	byName := map[string]DatasetInfo{}
	for _, d := range resp.Data {
		byName[d.Name] = d
	}
	assert.Equal(t, 3, byName["harris_1996ed2010"].Tables)
	assert.Equal(t, 0, byName["bica_2019"].Tables)
	assert.Equal(t, 10, byName["bica_2019"].References)
	assert.Equal(t, 1, byName["deBoer_2019"].Profiles)
}
