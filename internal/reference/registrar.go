package reference

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/supaharris/shingest/internal/catalogue"
	"github.com/supaharris/shingest/internal/store"
)

// Store is the storage the Registrar needs.
type Store interface {
	GetReference(ctx context.Context, adsURL string) (catalogue.Reference, error)
	GetOrCreateReference(ctx context.Context, r catalogue.Reference) (catalogue.Reference, bool, error)
}

// Field limits applied before a scraped reference is saved.
const (
	maxFirstAuthor = 128
	maxAuthors     = 1024
	maxTitle       = 256
	maxJournal     = 64
	maxDOI         = 64
	maxVolume      = 8
	maxPages       = 16
)

// Result is the outcome of Register.
type Result struct {
	Reference catalogue.Reference
	Created   bool
	Strategy  Strategy
	// Warnings explain missing metadata. They never mean failure.
	Warnings []string
}

// Registrar finds or creates references.
type Registrar struct {
	store    Store
	scrapers map[Strategy]Scraper
	logger   *zap.Logger
}

// NewRegistrar returns a Registrar. A strategy without a scraper yields a
// warning instead of metadata.
func NewRegistrar(s Store, scrapers map[Strategy]Scraper, logger *zap.Logger) *Registrar {
	return &Registrar{store: s, scrapers: scrapers, logger: orNop(logger)}
}

// DefaultScrapers wires the three strategies to one HTTP client.
func DefaultScrapers(cfg ClientConfig, adsAPIURL, adsToken string, logger *zap.Logger) map[Strategy]Scraper {
	client := NewClient(cfg, logger)
	return map[Strategy]Scraper{
		StrategyLegacyADS: &LegacyADS{Client: client},
		StrategyADSAPI:    &ADSAPI{Client: client, BaseURL: adsAPIURL, Token: adsToken},
		StrategyArxiv:     &Arxiv{Client: client},
	}
}

// Register returns the reference stored under rawURL's normalized form,
// creating it if needed. Only an unusable URL or a storage failure is an
// error; scraping problems are reported in Result.Warnings.
func (r *Registrar) Register(ctx context.Context, rawURL string) (Result, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return Result{}, fmt.Errorf("register reference: %w", err)
	}
	log := r.logger.With(zap.String("url", normalized))

	existing, err := r.store.GetReference(ctx, normalized)
	if err == nil {
		log.Debug("reference exists", zap.Int64("id", existing.ID))
		return Result{Reference: existing}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Result{}, fmt.Errorf("register reference: %w", err)
	}

	bibcode := BibCode(normalized)
	ref := catalogue.Reference{
		ADSURL:  normalized,
		BibCode: bibcode,
		Slug:    Slug(bibcode),
	}
	result := Result{Strategy: SelectStrategy(rawURL)}

	scraper := r.scrapers[result.Strategy]
	if scraper == nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("no %s scraper configured; saved %s without metadata", result.Strategy, normalized))
	} else if m, err := scraper.Scrape(ctx, normalized); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("could not retrieve metadata for %s: %v", normalized, err))
	} else {
		apply(&ref, m)
	}
	for _, w := range result.Warnings {
		log.Warn("reference metadata", zap.String("strategy", string(result.Strategy)), zap.String("warning", w))
	}

	saved, created, err := r.store.GetOrCreateReference(ctx, ref)
	if err != nil {
		return Result{}, fmt.Errorf("register reference: %w", err)
	}
	result.Reference, result.Created = saved, created
	log.Info("reference registered",
		zap.Int64("id", saved.ID),
		zap.String("short", saved.Short()),
		zap.Bool("created", created))
	return result, nil
}

// apply copies m into ref, truncating to the stored field sizes.
func apply(ref *catalogue.Reference, m Metadata) {
	ref.FirstAuthor = truncate(m.FirstAuthor, maxFirstAuthor)
	ref.Authors = truncate(m.Authors, maxAuthors)
	ref.Title = truncate(m.Title, maxTitle)
	ref.Journal = truncate(m.Journal, maxJournal)
	ref.DOI = truncate(m.DOI, maxDOI)
	ref.Year = m.Year
	ref.Month = m.Month
	ref.Volume = truncate(m.Volume, maxVolume)
	ref.Pages = truncate(m.Pages, maxPages)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
