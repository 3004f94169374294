// Package reference registers bibliographic references.
//
// A Reference is keyed by its normalized URL. Registering a URL that is
// already stored returns the stored record. Otherwise the Registrar
// derives the bib code and slug from the URL alone, asks one of three
// metadata scrapers for the rest, and saves the record with whatever it
// got. Scraping never blocks registration: a failed scrape becomes a
// warning on the Result.
//
// Strategies, chosen from the URL as given:
//
//	arxiv.org              Arxiv      abstract page HTML
//	adsabs.harvard.edu     LegacyADS  abstract page HTML, then its BibTeX link
//	anything else          ADSAPI     POST /export/bibtex on the ADS API
package reference
