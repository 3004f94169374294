package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/supaharris/shingest/internal/reference"
)

// Scenario defines one ingestion scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture is an inline parameter fixture. Empty means the embedded
	// default fixture.
	Fixture string `yaml:"fixture,omitempty"`

	// Scraper is the metadata every reference scrape returns.
	Scraper ScraperSpec `yaml:"scraper,omitempty"`

	// Seed lists objects stored before the first run.
	Seed []SeedObject `yaml:"seed,omitempty"`

	// Manifest is CUE source declaring the datasets to run.
	Manifest string `yaml:"manifest"`

	// Files maps data directory paths to their contents.
	Files map[string]string `yaml:"files,omitempty"`

	// Answers are the operator's replies to prompts, in order.
	Answers []bool `yaml:"answers,omitempty"`

	// FuzzyThreshold overrides the default similarity cutoff.
	FuzzyThreshold int `yaml:"fuzzy_threshold,omitempty"`

	// RunID prefixes the sequential run ids. Empty means "run".
	RunID string `yaml:"run_id,omitempty"`

	// Runs are executed in order against the same catalogue.
	Runs []RunStep `yaml:"runs"`
}

// ScraperSpec is the canned reference metadata.
type ScraperSpec struct {
	FirstAuthor string `yaml:"first_author,omitempty"`
	Year        int    `yaml:"year,omitempty"`
	Journal     string `yaml:"journal,omitempty"`
	Title       string `yaml:"title,omitempty"`

	// Error makes every scrape fail with this message.
	Error string `yaml:"error,omitempty"`
}

// Metadata converts s to scraper output.
func (s ScraperSpec) Metadata() reference.Metadata {
	return reference.Metadata{FirstAuthor: s.FirstAuthor, Year: s.Year, Journal: s.Journal, Title: s.Title}
}

// SeedObject is an object present before the first run.
type SeedObject struct {
	Name    string `yaml:"name"`
	AltName string `yaml:"altname,omitempty"`
}

// RunStep runs one dataset.
type RunStep struct {
	Dataset string `yaml:"dataset"`

	// Files replace data files before this run.
	Files map[string]string `yaml:"files,omitempty"`

	// Expect is checked against the run's outcome. If nil, nothing is
	// checked.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the expected outcome of a run.
type Expect struct {
	// Status is "succeeded" or "failed".
	Status string `yaml:"status,omitempty"`

	// Stage is the stage a failed run stopped at.
	Stage string `yaml:"stage,omitempty"`

	// Error must be a substring of the run error.
	Error string `yaml:"error,omitempty"`

	// Summary holds expected numeric summary fields (subset match).
	Summary map[string]int64 `yaml:"summary,omitempty"`

	// Counts holds expected catalogue row counts (subset match).
	Counts map[string]int64 `yaml:"counts,omitempty"`

	// Warnings must each be a substring of some warning.
	Warnings []string `yaml:"warnings,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml file in dir, in lexical order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Manifest == "" {
		return fmt.Errorf("manifest is required")
	}
	if len(s.Runs) == 0 {
		return fmt.Errorf("runs list is required and must be non-empty")
	}

	for i, run := range s.Runs {
		if run.Dataset == "" {
			return fmt.Errorf("runs[%d]: dataset is required", i)
		}
		if run.Expect == nil {
			continue
		}
		switch run.Expect.Status {
		case "", "succeeded", "failed":
		default:
			return fmt.Errorf("runs[%d]: status must be succeeded or failed, got %q", i, run.Expect.Status)
		}
	}

	for i, obj := range s.Seed {
		if obj.Name == "" {
			return fmt.Errorf("seed[%d]: name is required", i)
		}
	}
	for path := range s.Files {
		if err := checkDataPath(path); err != nil {
			return err
		}
	}
	for i, run := range s.Runs {
		for path := range run.Files {
			if err := checkDataPath(path); err != nil {
				return fmt.Errorf("runs[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// checkDataPath keeps file paths inside the scratch data directory.
func checkDataPath(path string) error {
	if path == "" || filepath.IsAbs(path) || !filepath.IsLocal(path) {
		return fmt.Errorf("file path %q must be relative to the data directory", path)
	}
	return nil
}
