package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedObjects(t *testing.T, w *workspace, objects ...[2]string) {
	t.Helper()
	st := w.openStore()
	for _, o := range objects {
		_, _, err := st.GetOrCreateAstroObject(context.Background(), o[0], o[1])
		require.NoError(t, err)
	}
	require.NoError(t, st.Close())
}

func TestResolve_Text(t *testing.T) {
	w := newWorkspace(t)
	seedObjects(t, w, [2]string{"Pal 1", ""}, [2]string{"NGC 104", "47 Tuc"}, [2]string{"Eridanus", ""})

	out, err := w.run("resolve", "Palomar 1", "47 Tuc", "Eridanos", "Segue 3", "--threshold", "80")
	require.NoError(t, err)

	assert.Equal(t, "Palomar 1 => #1 Pal 1\n"+
		"47 Tuc => #2 NGC 104 (47 Tuc)\n"+
		"Eridanos => not found; did you mean Eridanus (#3, similarity 88)?\n"+
		"Segue 3 => not found\n", out)
}

func TestResolve_JSON(t *testing.T) {
	w := newWorkspace(t)
	seedObjects(t, w, [2]string{"NGC 104", "47 Tuc"})

	out, err := w.run("--format", "json", "resolve", "104", "Pal 99")
	require.NoError(t, err)

	var resp struct {
		Data []Resolution `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)

	assert.True(t, resp.Data[0].Found)
	assert.Equal(t, "NGC 104", resp.Data[0].Canonical)
	assert.Equal(t, "NGC 104", resp.Data[0].Name)

	assert.False(t, resp.Data[1].Found)
	assert.Equal(t, "Pal 99", resp.Data[1].Canonical)
}

func TestResolve_EmptyCatalogue(t *testing.T) {
	w := newWorkspace(t)

	out, err := w.run("resolve", "Pal 1")
	require.NoError(t, err)
	assert.Equal(t, "Pal 1 => not found\n", out)
}
