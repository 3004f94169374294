package upsert

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supaharris/shingest/internal/catalogue"
	"github.com/supaharris/shingest/internal/store"
)

type fixture struct {
	st    *store.Store
	obj   catalogue.AstroObject
	param catalogue.Parameter
	ref   catalogue.Reference
}

func setup(t *testing.T) fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	obj, _, err := st.GetOrCreateAstroObject(ctx, "Pal 1", "")
	require.NoError(t, err)
	param, _, err := st.GetOrCreateParameter(ctx, catalogue.Parameter{Name: "R_Sun", Unit: "kpc"})
	require.NoError(t, err)
	ref, _, err := st.GetOrCreateReference(ctx, catalogue.Reference{
		ADSURL:  "https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H",
		BibCode: "1996AJ....112.1487H",
	})
	require.NoError(t, err)
	return fixture{st: st, obj: obj, param: param, ref: ref}
}

func TestUpsert_CreatesOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := New(f.st, nil)

	first, created, err := e.Upsert(ctx, f.obj, f.param, f.ref, 11.1, catalogue.Float(0.2), catalogue.Float(0.3))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 11.1, first.Value)
	require.NotNil(t, first.SigmaUp)
	assert.Equal(t, 0.2, *first.SigmaUp)

	for i := 0; i < 3; i++ {
		again, created, err := e.Upsert(ctx, f.obj, f.param, f.ref, 11.1, nil, nil)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
	}

	obs, err := f.st.FilterObservations(ctx, store.ObservationFilter{ReferenceID: f.ref.ID})
	require.NoError(t, err)
	assert.Len(t, obs, 1)
}

func TestUpsert_ExistingValueIsKept(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := New(f.st, nil)

	_, _, err := e.Upsert(ctx, f.obj, f.param, f.ref, 11.1, nil, nil)
	require.NoError(t, err)

	got, created, err := e.Upsert(ctx, f.obj, f.param, f.ref, 99.9, nil, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 11.1, got.Value)
	assert.Nil(t, got.SigmaUp)
}

func TestUpsert_Invalid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := New(f.st, nil)

	_, _, err := e.Upsert(ctx, catalogue.AstroObject{Name: "unsaved"}, f.param, f.ref, 1, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidObservation)

	_, _, err = e.Upsert(ctx, f.obj, f.param, f.ref, math.NaN(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidObservation)

	_, _, err = e.Upsert(ctx, f.obj, f.param, f.ref, 1, catalogue.Float(math.Inf(1)), nil)
	assert.ErrorIs(t, err, ErrInvalidObservation)
}

func TestUpsertAll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := New(f.st, nil)

	other, _, err := f.st.GetOrCreateAstroObject(ctx, "Pal 2", "Palomar 2")
	require.NoError(t, err)

	batch := []catalogue.Observation{
		{ObjectID: f.obj.ID, ParameterID: f.param.ID, ReferenceID: f.ref.ID, Value: 11.1},
		{ObjectID: other.ID, ParameterID: f.param.ID, ReferenceID: f.ref.ID, Value: 27.2},
		{ObjectID: f.obj.ID, ParameterID: f.param.ID, ReferenceID: f.ref.ID, Value: 12.0},
	}
	n, err := e.UpsertAll(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = e.UpsertAll(ctx, batch)
	require.NoError(t, err)
	assert.Zero(t, n)

	obs, err := f.st.FilterObservations(ctx, store.ObservationFilter{ObjectID: f.obj.ID})
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 11.1, obs[0].Value)
}

func TestUpsertAll_RejectsInvalidBatch(t *testing.T) {
	f := setup(t)
	e := New(f.st, nil)

	_, err := e.UpsertAll(context.Background(), []catalogue.Observation{
		{ObjectID: f.obj.ID, ParameterID: f.param.ID, ReferenceID: f.ref.ID, Value: 1},
		{ObjectID: f.obj.ID, ParameterID: 0, ReferenceID: f.ref.ID, Value: 2},
	})
	assert.ErrorIs(t, err, ErrInvalidObservation)

	counts, err := f.st.Counts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counts.Observations)
}

func TestBatch(t *testing.T) {
	f := setup(t)
	e := New(f.st, nil)

	batch, err := e.Batch([]catalogue.Observation{
		{ObjectID: f.obj.ID, ParameterID: f.param.ID, ReferenceID: f.ref.ID, Value: 12.0},
		{ObjectID: f.obj.ID, ParameterID: f.param.ID, ReferenceID: f.ref.ID, Value: 13.0},
	})
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, 12.0, batch[0].Value)

	_, err = e.Batch([]catalogue.Observation{
		{ObjectID: f.obj.ID, ParameterID: f.param.ID, ReferenceID: f.ref.ID, Value: math.Inf(1)},
	})
	assert.ErrorIs(t, err, ErrInvalidObservation)

	counts, err := f.st.Counts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counts.Observations, "Batch never writes")
}
