package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/supaharris/shingest/internal/catalogue"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedTriple creates one object, one parameter and one reference.
func seedTriple(t *testing.T, s *Store) (catalogue.AstroObject, catalogue.Parameter, catalogue.Reference) {
	t.Helper()
	ctx := context.Background()

	obj, _, err := s.GetOrCreateAstroObject(ctx, "NGC 104", "47 Tuc")
	require.NoError(t, err)
	param, _, err := s.GetOrCreateParameter(ctx, catalogue.Parameter{Name: "R_Sun", Unit: "kpc", Scale: 1})
	require.NoError(t, err)
	ref, _, err := s.GetOrCreateReference(ctx, catalogue.Reference{
		ADSURL:  "https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H",
		BibCode: "1996AJ....112.1487H",
		Slug:    "1996aj-112-1487h",
	})
	require.NoError(t, err)
	return obj, param, ref
}
