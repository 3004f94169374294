package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supaharris/shingest/internal/names"
)

func TestCanonicalize_Golden(t *testing.T) {
	t.Setenv("MANIFEST_DIR", "")
	out, err := execute(t.Context(), "", "canonicalize", "Pal 1", "104", "terzan 05", "Eridanus")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "canonicalize", []byte(out))
}

func TestCanonicalize_JSON(t *testing.T) {
	t.Setenv("MANIFEST_DIR", "")
	out, err := execute(t.Context(), "", "--format", "json", "canonicalize", "Palomar 2")
	require.NoError(t, err)

	var resp struct {
		Data []NameForms `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, NameForms{
		Input:     "Palomar 2",
		Canonical: "Pal 2",
		Alternate: "Palomar 2",
		Rule:      "Pal",
		Variants:  []string{"Palomar 2", "Pal 2", "Pal2", "Palomar2"},
	}, resp.Data[0])
}

func TestCanonicalize_Rules(t *testing.T) {
	t.Setenv("MANIFEST_DIR", "")
	out, err := execute(t.Context(), "", "canonicalize", "--rules")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, len(names.DefaultRules)+1)
	assert.Equal(t, []string{"#", "CANONICAL", "ALTERNATE", "ALIASES", "BARE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "NGC", "-", "NGC", "yes"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"3", "Pal", "Palomar", "Palomar,", "Pal", "no"}, strings.Fields(lines[3]))
}

func TestCanonicalize_RequiresNames(t *testing.T) {
	t.Setenv("MANIFEST_DIR", "")
	_, err := execute(t.Context(), "", "canonicalize")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
