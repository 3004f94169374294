package reference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClientConfig() ClientConfig {
	return ClientConfig{Timeout: 2 * time.Second, Retries: 0}
}

func serveFile(t *testing.T, path, contentType string) http.HandlerFunc {
	t.Helper()
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}
}

func TestLegacyADS_FollowsBibtexLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/abs/", serveFile(t, "testdata/legacy_abstract.html", "text/html"))
	var bibtexQuery string
	bib := serveFile(t, "testdata/legacy_bibtex.txt", "text/plain")
	mux.HandleFunc("/cgi-bin/nph-bib_query", func(w http.ResponseWriter, r *http.Request) {
		bibtexQuery = r.URL.Query().Get("data_type")
		bib(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := &LegacyADS{Client: NewClient(testClientConfig(), nil), BaseURL: srv.URL}
	m, err := s.Scrape(context.Background(), "https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H")
	require.NoError(t, err)
	assert.Equal(t, "BIBTEX", bibtexQuery)
	assert.Equal(t, "Harris", m.FirstAuthor)
	assert.Equal(t, 1996, m.Year)
}

func TestLegacyADS_NoLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body><p>Redirected to the new ADS</p></body></html>")
	}))
	defer srv.Close()

	s := &LegacyADS{Client: NewClient(testClientConfig(), nil), BaseURL: srv.URL}
	_, err := s.Scrape(context.Background(), "https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H")
	assert.ErrorIs(t, err, ErrNoMetadata)
}

func TestADSAPI(t *testing.T) {
	bib, err := os.ReadFile("testdata/harris1996.bib")
	require.NoError(t, err)

	var gotAuth, gotMethod, gotPath string
	var gotBody map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod, gotPath = r.Method, r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"msg": "Retrieved 1 abstracts", "export": string(bib)})
	}))
	defer srv.Close()

	s := &ADSAPI{Client: NewClient(testClientConfig(), nil), BaseURL: srv.URL, Token: "secret"}
	m, err := s.Scrape(context.Background(), "https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/export/bibtex", gotPath)
	assert.Equal(t, []string{"1996AJ....112.1487H"}, gotBody["bibcode"])
	assert.Equal(t, "aj", m.Journal)
	assert.Equal(t, "10.1086/118116", m.DOI)
}

func TestADSAPI_Failures(t *testing.T) {
	ctx := context.Background()
	url := "https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H"

	_, err := (&ADSAPI{Client: NewClient(testClientConfig(), nil)}).Scrape(ctx, url)
	assert.ErrorIs(t, err, ErrNoToken)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error": "no such bibcode"}`)
	}))
	defer srv.Close()
	_, err = (&ADSAPI{Client: NewClient(testClientConfig(), nil), BaseURL: srv.URL, Token: "t"}).Scrape(ctx, url)
	assert.ErrorIs(t, err, ErrNoMetadata)

	unauthorized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer unauthorized.Close()
	_, err = (&ADSAPI{Client: NewClient(testClientConfig(), nil), BaseURL: unauthorized.URL, Token: "t"}).Scrape(ctx, url)
	assert.ErrorContains(t, err, "401")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		serveFile(t, "testdata/arxiv_abstract.html", "text/html")(w, r)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{Timeout: time.Second, Retries: 2, WaitMin: time.Millisecond, WaitMax: 2 * time.Millisecond}, nil)
	m, err := (&Arxiv{Client: client, BaseURL: srv.URL}).Scrape(context.Background(), "https://arxiv.org/abs/1807.09775")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "H. Baumgardt", m.FirstAuthor)
}

func TestArxiv(t *testing.T) {
	srv := httptest.NewServer(serveFile(t, "testdata/arxiv_abstract.html", "text/html"))
	defer srv.Close()

	s := &Arxiv{Client: NewClient(testClientConfig(), nil), BaseURL: srv.URL}
	m, err := s.Scrape(context.Background(), "https://arxiv.org/abs/1807.09775")
	require.NoError(t, err)
	assert.Equal(t, Metadata{
		FirstAuthor: "H. Baumgardt",
		Authors:     "H. Baumgardt, M. Hilker, A. Sollima, A. Bellini",
		Title:       "Mean proper motions, space orbits, and velocity dispersion profiles of Galactic globular clusters derived from Gaia DR2 data",
		Journal:     "arxiv",
		Year:        2018,
		Month:       7,
	}, m)
}

func TestArxiv_EmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body>Article not found</body></html>")
	}))
	defer srv.Close()

	_, err := (&Arxiv{Client: NewClient(testClientConfig(), nil), BaseURL: srv.URL}).Scrape(context.Background(), "https://arxiv.org/abs/0000.00000")
	assert.ErrorIs(t, err, ErrNoMetadata)
}
