// Package fixture provides the parameters and classifications that must
// exist before any dataset is ingested.
package fixture

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/supaharris/shingest/internal/catalogue"
)

//go:embed parameters.yaml
var defaultYAML []byte

// ErrInvalidFixture is returned for a fixture with missing or repeated names.
var ErrInvalidFixture = errors.New("invalid fixture")

// Fixture is the prerequisite data for ingestion.
type Fixture struct {
	Source          string
	Parameters      []catalogue.Parameter
	Classifications []string
}

type fixtureFile struct {
	Classifications []string `yaml:"classifications"`
	Parameters      []struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Unit        string   `yaml:"unit"`
		Scale       *float64 `yaml:"scale"`
	} `yaml:"parameters"`
}

// Default returns the embedded fixture.
func Default() *Fixture {
	f, err := Parse(defaultYAML, "embedded")
	if err != nil {
		panic(fmt.Sprintf("embedded fixture: %v", err))
	}
	return f
}

// Load reads the fixture at path, or the embedded one if path is empty.
// A path that does not exist is an error.
func Load(path string) (*Fixture, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load fixture: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes a fixture. source names it in errors.
func Parse(data []byte, source string) (*Fixture, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", source, err)
	}

	f := &Fixture{Source: source}
	seen := map[string]bool{}
	for i, p := range file.Parameters {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: %s: parameter %d has no name", ErrInvalidFixture, source, i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: %s: parameter %q listed twice", ErrInvalidFixture, source, p.Name)
		}
		seen[p.Name] = true

		scale := 1.0
		if p.Scale != nil {
			scale = *p.Scale
		}
		f.Parameters = append(f.Parameters, catalogue.Parameter{
			Name:        p.Name,
			Description: p.Description,
			Unit:        p.Unit,
			Scale:       scale,
		})
	}

	seen = map[string]bool{}
	for _, c := range file.Classifications {
		if c == "" || seen[c] {
			return nil, fmt.Errorf("%w: %s: empty or repeated classification %q", ErrInvalidFixture, source, c)
		}
		seen[c] = true
		f.Classifications = append(f.Classifications, c)
	}
	return f, nil
}

// Parameter returns the fixture's definition of name.
func (f *Fixture) Parameter(name string) (catalogue.Parameter, bool) {
	for _, p := range f.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return catalogue.Parameter{}, false
}
