package testutil

import (
	"context"
	"sync"

	"github.com/supaharris/shingest/internal/reference"
)

// FakeScraper returns canned metadata and records the URLs it was asked
// about.
type FakeScraper struct {
	mu   sync.Mutex
	Meta reference.Metadata
	Err  error
	URLs []string
}

// Scrape implements reference.Scraper.
func (s *FakeScraper) Scrape(_ context.Context, normalized string) (reference.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.URLs = append(s.URLs, normalized)
	return s.Meta, s.Err
}

// Calls returns how many times Scrape ran.
func (s *FakeScraper) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.URLs)
}

// Scrapers wires s to every strategy.
func (s *FakeScraper) Scrapers() map[reference.Strategy]reference.Scraper {
	return map[reference.Strategy]reference.Scraper{
		reference.StrategyLegacyADS: s,
		reference.StrategyADSAPI:    s,
		reference.StrategyArxiv:     s,
	}
}
