package reference

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supaharris/shingest/internal/store"
)

type stubScraper struct {
	calls int
	meta  Metadata
	err   error
}

func (s *stubScraper) Scrape(ctx context.Context, normalized string) (Metadata, error) {
	s.calls++
	return s.meta, s.err
}

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRegister_CreatesWithMetadata(t *testing.T) {
	st := createTestStore(t)
	scraper := &stubScraper{meta: Metadata{FirstAuthor: "Harris", Year: 1996, Journal: "aj"}}
	r := NewRegistrar(st, map[Strategy]Scraper{StrategyLegacyADS: scraper}, nil)
	ctx := context.Background()

	res, err := r.Register(ctx, "http://adsabs.harvard.edu/abs/1996AJ....112.1487H")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, StrategyLegacyADS, res.Strategy)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H", res.Reference.ADSURL)
	assert.Equal(t, "1996AJ....112.1487H", res.Reference.BibCode)
	assert.Equal(t, "1996aj-112-1487h", res.Reference.Slug)
	assert.Equal(t, "Harris (1996)", res.Reference.Short())

	again, err := r.Register(ctx, "https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H/abstract")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, res.Reference.ID, again.Reference.ID)
	assert.Equal(t, 1, scraper.calls, "existing references are not scraped again")
}

func TestRegister_ScrapeFailureIsAWarning(t *testing.T) {
	st := createTestStore(t)
	scraper := &stubScraper{err: errors.New("connection refused")}
	r := NewRegistrar(st, map[Strategy]Scraper{StrategyADSAPI: scraper}, nil)

	res, err := r.Register(context.Background(), "https://ui.adsabs.harvard.edu/abs/2019MNRAS.482.5138B")
	require.NoError(t, err)
	assert.True(t, res.Created)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "connection refused")
	assert.Equal(t, "2019MNRAS.482.5138B", res.Reference.BibCode)
	assert.Empty(t, res.Reference.FirstAuthor)
}

func TestRegister_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(nil)
	base := srv.URL
	srv.Close()

	st := createTestStore(t)
	scrapers := DefaultScrapers(testClientConfig(), base, "token", nil)
	scrapers[StrategyArxiv] = &Arxiv{Client: NewClient(testClientConfig(), nil), BaseURL: base}
	r := NewRegistrar(st, scrapers, nil)

	for _, raw := range []string{
		"https://ui.adsabs.harvard.edu/abs/2019MNRAS.482.5138B",
		"https://arxiv.org/abs/1807.09775",
	} {
		res, err := r.Register(context.Background(), raw)
		require.NoError(t, err, raw)
		assert.True(t, res.Created, raw)
		assert.NotEmpty(t, res.Reference.BibCode, raw)
		assert.Len(t, res.Warnings, 1, raw)
	}
}

func TestRegister_MissingScraper(t *testing.T) {
	r := NewRegistrar(createTestStore(t), nil, nil)
	res, err := r.Register(context.Background(), "https://arxiv.org/abs/1807.09775")
	require.NoError(t, err)
	assert.Equal(t, StrategyArxiv, res.Strategy)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "no arxiv scraper")
}

func TestRegister_InvalidURL(t *testing.T) {
	r := NewRegistrar(createTestStore(t), nil, nil)
	_, err := r.Register(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestRegister_Truncates(t *testing.T) {
	st := createTestStore(t)
	scraper := &stubScraper{meta: Metadata{
		Title:  strings.Repeat("Ω", 300),
		Volume: "123456789",
		DOI:    strings.Repeat("d", 100),
	}}
	r := NewRegistrar(st, map[Strategy]Scraper{StrategyADSAPI: scraper}, nil)

	res, err := r.Register(context.Background(), "https://ui.adsabs.harvard.edu/abs/2013ApJ...775..134V")
	require.NoError(t, err)
	assert.Equal(t, 256, len([]rune(res.Reference.Title)))
	assert.Equal(t, "12345678", res.Reference.Volume)
	assert.Len(t, res.Reference.DOI, 64)
}
