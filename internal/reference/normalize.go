package reference

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned for a URL that cannot identify a reference.
var ErrInvalidURL = errors.New("invalid reference url")

const (
	adsHost   = "ui.adsabs.harvard.edu"
	arxivHost = "arxiv.org"
)

// NormalizeURL maps the spellings of a reference URL onto one form:
// https, lower-case host, ADS links of every vintage onto
// https://ui.adsabs.harvard.edu/abs/<bibcode> and arXiv PDF links onto
// the abstract page.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: no host in %q", ErrInvalidURL, raw)
	}

	switch {
	case isADSHost(host):
		bibcode := adsBibCode(u)
		if bibcode == "" {
			return "", fmt.Errorf("%w: no bib code in %q", ErrInvalidURL, raw)
		}
		return "https://" + adsHost + "/abs/" + bibcode, nil

	case host == arxivHost || host == "www."+arxivHost || host == "export."+arxivHost:
		id := arxivID(u.Path)
		if id == "" {
			return "", fmt.Errorf("%w: no arXiv id in %q", ErrInvalidURL, raw)
		}
		return "https://" + arxivHost + "/abs/" + id, nil
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}

// BibCode returns the path segment after "/abs/", or "" if there is none.
// For arXiv URLs this is the arXiv id.
func BibCode(normalized string) string {
	_, rest, ok := strings.Cut(normalized, "/abs/")
	if !ok {
		return ""
	}
	rest, _, _ = strings.Cut(rest, "/")
	rest, _, _ = strings.Cut(rest, "?")
	if unescaped, err := url.PathUnescape(rest); err == nil {
		rest = unescaped
	}
	return rest
}

// Slug turns a bib code into a URL-safe key: "1996AJ....112.1487H"
// becomes "1996aj-112-1487h".
func Slug(bibcode string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(bibcode) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == '.' || r == '-' || r == ' ':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func isADSHost(host string) bool {
	return host == "adsabs.harvard.edu" || strings.HasSuffix(host, ".adsabs.harvard.edu")
}

// isLegacyADSHost reports whether host serves the pre-2019 ADS pages.
func isLegacyADSHost(host string) bool {
	return host == "adsabs.harvard.edu" || host == "www.adsabs.harvard.edu"
}

// adsBibCode finds the bib code in every ADS URL shape seen in the wild:
// /abs/<b>, /abs/<b>/abstract, /#abs/<b>/abstract and the cgi-bin query.
func adsBibCode(u *url.URL) string {
	if b := u.Query().Get("bibcode"); b != "" {
		return b
	}
	for _, part := range []string{u.EscapedPath(), u.Fragment} {
		part = "/" + strings.TrimPrefix(part, "/")
		if b := BibCode(part); b != "" {
			return b
		}
	}
	return ""
}

func arxivID(path string) string {
	for _, prefix := range []string{"/abs/", "/pdf/"} {
		if id, ok := strings.CutPrefix(path, prefix); ok {
			id = strings.TrimSuffix(strings.TrimSuffix(id, "/"), ".pdf")
			return id
		}
	}
	return ""
}
