package reference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"
)

// Strategy names a scraping strategy.
type Strategy string

const (
	StrategyLegacyADS Strategy = "legacy_ads"
	StrategyADSAPI    Strategy = "ads_api"
	StrategyArxiv     Strategy = "arxiv"
)

// ErrNoMetadata is returned by a scraper whose response held nothing usable.
var ErrNoMetadata = errors.New("no metadata")

// Scraper looks up metadata for a normalized reference URL.
type Scraper interface {
	Scrape(ctx context.Context, normalized string) (Metadata, error)
}

// SelectStrategy picks the scraper for a reference URL as the user gave
// it, before normalization.
func SelectStrategy(raw string) Strategy {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return StrategyADSAPI
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == arxivHost || strings.HasSuffix(host, "."+arxivHost):
		return StrategyArxiv
	case isLegacyADSHost(host):
		return StrategyLegacyADS
	}
	return StrategyADSAPI
}

// LegacyADS scrapes the pre-2019 ADS abstract page and follows its BibTeX
// link.
type LegacyADS struct {
	Client *retryablehttp.Client
	// BaseURL defaults to http://adsabs.harvard.edu.
	BaseURL string
}

func (s *LegacyADS) Scrape(ctx context.Context, normalized string) (Metadata, error) {
	bibcode := BibCode(normalized)
	if bibcode == "" {
		return Metadata{}, fmt.Errorf("legacy ads: no bib code in %q", normalized)
	}
	base := s.BaseURL
	if base == "" {
		base = "http://adsabs.harvard.edu"
	}
	page := strings.TrimSuffix(base, "/") + "/abs/" + url.PathEscape(bibcode)

	body, err := get(ctx, s.Client, page)
	if err != nil {
		return Metadata{}, fmt.Errorf("legacy ads: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return Metadata{}, fmt.Errorf("legacy ads: parse page: %w", err)
	}

	var href string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "a" && strings.Contains(text(n), "Bibtex entry for this abstract") {
			href = attr(n, "href")
			return false
		}
		return true
	})
	if href == "" {
		return Metadata{}, fmt.Errorf("legacy ads: %w: no bibtex link", ErrNoMetadata)
	}
	link, err := resolveLink(page, href)
	if err != nil {
		return Metadata{}, fmt.Errorf("legacy ads: %w", err)
	}

	bib, err := get(ctx, s.Client, link)
	if err != nil {
		return Metadata{}, fmt.Errorf("legacy ads: bibtex: %w", err)
	}
	m, ok := ParseBibtex(string(bib))
	if !ok {
		return Metadata{}, fmt.Errorf("legacy ads: %w", ErrNoMetadata)
	}
	return m, nil
}

// ADSAPI exports BibTeX from the ADS API.
type ADSAPI struct {
	Client *retryablehttp.Client
	// BaseURL defaults to https://api.adsabs.harvard.edu/v1.
	BaseURL string
	Token   string
}

// ErrNoToken is returned by ADSAPI when no API token is configured.
var ErrNoToken = errors.New("no ADS API token configured")

func (s *ADSAPI) Scrape(ctx context.Context, normalized string) (Metadata, error) {
	if s.Token == "" {
		return Metadata{}, fmt.Errorf("ads api: %w", ErrNoToken)
	}
	bibcode := BibCode(normalized)
	if bibcode == "" {
		return Metadata{}, fmt.Errorf("ads api: no bib code in %q", normalized)
	}
	base := s.BaseURL
	if base == "" {
		base = "https://api.adsabs.harvard.edu/v1"
	}

	payload, err := json.Marshal(map[string][]string{"bibcode": {bibcode}})
	if err != nil {
		return Metadata{}, fmt.Errorf("ads api: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(base, "/")+"/export/bibtex", payload)
	if err != nil {
		return Metadata{}, fmt.Errorf("ads api: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	body, err := fetch(s.Client, req)
	if err != nil {
		return Metadata{}, fmt.Errorf("ads api: %w", err)
	}
	var export struct {
		Export *string `json:"export"`
	}
	if err := json.Unmarshal(body, &export); err != nil {
		return Metadata{}, fmt.Errorf("ads api: decode: %w", err)
	}
	if export.Export == nil {
		return Metadata{}, fmt.Errorf("ads api: %w: no export field", ErrNoMetadata)
	}
	m, ok := ParseBibtex(*export.Export)
	if !ok {
		return Metadata{}, fmt.Errorf("ads api: %w", ErrNoMetadata)
	}
	return m, nil
}

// Arxiv scrapes an arXiv abstract page.
type Arxiv struct {
	Client *retryablehttp.Client
	// BaseURL defaults to https://arxiv.org.
	BaseURL string
}

// "(Submitted on 12 Mar 2019 (v1), last revised ...)"
var datelineRe = regexp.MustCompile(`(\d{1,2})\s+([A-Za-z]{3})[a-z]*\s+(\d{4})`)

func (s *Arxiv) Scrape(ctx context.Context, normalized string) (Metadata, error) {
	id := BibCode(normalized)
	if id == "" {
		return Metadata{}, fmt.Errorf("arxiv: no id in %q", normalized)
	}
	base := s.BaseURL
	if base == "" {
		base = "https://arxiv.org"
	}

	body, err := get(ctx, s.Client, strings.TrimSuffix(base, "/")+"/abs/"+id)
	if err != nil {
		return Metadata{}, fmt.Errorf("arxiv: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return Metadata{}, fmt.Errorf("arxiv: parse page: %w", err)
	}

	m := Metadata{Journal: "arxiv"}
	var authors []string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch {
		case n.Data == "h1" && hasClass(n, "title"):
			m.Title = collapse(strings.TrimPrefix(strings.TrimSpace(text(n)), "Title:"))
			return false
		case n.Data == "div" && hasClass(n, "authors"):
			walk(n, func(a *html.Node) bool {
				if a.Type == html.ElementNode && a.Data == "a" {
					authors = append(authors, collapse(text(a)))
					return false
				}
				return true
			})
			return false
		case n.Data == "div" && hasClass(n, "dateline"):
			if d := datelineRe.FindStringSubmatch(text(n)); d != nil {
				m.Month = Month(d[2])
				m.Year, _ = strconv.Atoi(d[3])
			}
			return false
		}
		return true
	})

	if len(authors) > 0 {
		m.Authors = strings.Join(authors, ", ")
		m.FirstAuthor = authors[0]
	}
	if m.Title == "" && m.Authors == "" {
		return Metadata{}, fmt.Errorf("arxiv: %w", ErrNoMetadata)
	}
	return m, nil
}

// walk visits n and its descendants depth first. Returning false from fn
// skips the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func resolveLink(page, href string) (string, error) {
	base, err := url.Parse(page)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("bibtex link %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
