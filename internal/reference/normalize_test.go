package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://adsabs.harvard.edu/abs/1996AJ....112.1487H", "https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H"},
		{"  https://ui.adsabs.harvard.edu/abs/2019MNRAS.482.5138B/abstract ", "https://ui.adsabs.harvard.edu/abs/2019MNRAS.482.5138B"},
		{"https://ui.adsabs.harvard.edu/#abs/2018MNRAS.478.1520B/abstract", "https://ui.adsabs.harvard.edu/abs/2018MNRAS.478.1520B"},
		{"adsabs.harvard.edu/abs/2019A%26A...628A..98B", "https://ui.adsabs.harvard.edu/abs/2019A&A...628A..98B"},
		{"http://adsabs.harvard.edu/cgi-bin/nph-bib_query?bibcode=1996AJ....112.1487H", "https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H"},
		{"https://arxiv.org/pdf/1807.09775.pdf", "https://arxiv.org/abs/1807.09775"},
		{"arxiv.org/abs/1807.09775v2", "https://arxiv.org/abs/1807.09775v2"},
		{"http://Example.org/paper/", "https://example.org/paper"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	once, err := NormalizeURL("http://adsabs.harvard.edu/abs/1996AJ....112.1487H")
	require.NoError(t, err)
	twice, err := NormalizeURL(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeURL_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "https://ui.adsabs.harvard.edu/", "https://arxiv.org/list/astro-ph"} {
		_, err := NormalizeURL(in)
		assert.ErrorIs(t, err, ErrInvalidURL, in)
	}
}

func TestBibCodeAndSlug(t *testing.T) {
	assert.Equal(t, "1996AJ....112.1487H", BibCode("https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H"))
	assert.Equal(t, "2019A&A...628A..98B", BibCode("https://ui.adsabs.harvard.edu/abs/2019A%26A...628A..98B/abstract"))
	assert.Equal(t, "1807.09775", BibCode("https://arxiv.org/abs/1807.09775"))
	assert.Empty(t, BibCode("https://example.org/paper"))

	assert.Equal(t, "1996aj-112-1487h", Slug("1996AJ....112.1487H"))
	assert.Equal(t, "2019aa-628a-98b", Slug("2019A&A...628A..98B"))
	assert.Equal(t, "1807-09775", Slug("1807.09775"))
	assert.Empty(t, Slug(""))
}

func TestSelectStrategy(t *testing.T) {
	assert.Equal(t, StrategyLegacyADS, SelectStrategy("http://adsabs.harvard.edu/abs/1996AJ....112.1487H"))
	assert.Equal(t, StrategyLegacyADS, SelectStrategy("adsabs.harvard.edu/abs/1996AJ....112.1487H"))
	assert.Equal(t, StrategyADSAPI, SelectStrategy("https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H"))
	assert.Equal(t, StrategyArxiv, SelectStrategy("https://arxiv.org/abs/1807.09775"))
	assert.Equal(t, StrategyADSAPI, SelectStrategy("https://doi.org/10.1086/118116"))
}

func TestJournalMacro(t *testing.T) {
	assert.Equal(t, "aj", JournalMacro(`\aj`))
	assert.Equal(t, "mnras", JournalMacro("Monthly Notices of the RAS"))
	assert.Equal(t, "arxiv", JournalMacro("arXiv e-prints"))
	assert.Equal(t, "Galaxies", JournalMacro(" Galaxies "))
	assert.Empty(t, JournalMacro(""))
}
