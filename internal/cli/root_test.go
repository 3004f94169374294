package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supaharris/shingest/internal/manifest"
)

func TestRootCommand(t *testing.T) {
	t.Setenv("MANIFEST_DIR", "")
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "shingest", cmd.Use)
	assert.Contains(t, cmd.Long, "SupaHarris")
}

func TestCommandPresence(t *testing.T) {
	t.Setenv("MANIFEST_DIR", "")
	cmd := NewRootCommand()
	commands := []string{"add", "add_parameters", "datasets", "validate", "canonicalize", "resolve", "schedule"}
	for _, name := range manifest.Builtin().Names() {
		commands = append(commands, "add_"+name)
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestAddCommandsFromManifestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir+"/extra.cue", `dataset: extra_2024: {reference: "https://arxiv.org/abs/1308.2257"}`)
	t.Setenv("MANIFEST_DIR", dir)

	cmd := NewRootCommand()
	sub, _, err := cmd.Find([]string{"add_extra_2024"})
	require.NoError(t, err)
	assert.Equal(t, "add_extra_2024", sub.Name())
	assert.NotNil(t, sub.Flags().Lookup("no-input"))
}

func TestGlobalFlags(t *testing.T) {
	t.Setenv("MANIFEST_DIR", "")
	cmd := NewRootCommand()

	verbosity := cmd.PersistentFlags().Lookup("verbosity")
	require.NotNil(t, verbosity)
	assert.Equal(t, "v", verbosity.Shorthand)
	assert.Equal(t, "1", verbosity.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	for _, name := range []string{"db", "data-dir", "manifests", "fixture"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestGlobalFlagValidation(t *testing.T) {
	t.Setenv("MANIFEST_DIR", "")
	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"--format", "yaml", "canonicalize", "Pal 1"}},
		{"bad verbosity", []string{"-v", "7", "canonicalize", "Pal 1"}},
		{"unknown flag", []string{"canonicalize", "--nope", "Pal 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t.Context(), "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}
