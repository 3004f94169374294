package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/supaharris/shingest/internal/fixture"
	"github.com/supaharris/shingest/internal/ingest"
	"github.com/supaharris/shingest/internal/manifest"
	"github.com/supaharris/shingest/internal/reference"
	"github.com/supaharris/shingest/internal/source"
	"github.com/supaharris/shingest/internal/store"
	"github.com/supaharris/shingest/internal/testutil"
)

// Harness holds the catalogue and collaborators of one scenario.
type Harness struct {
	dir      string
	store    *store.Store
	orch     *ingest.Orchestrator
	datasets map[string]ingest.Dataset
	logger   *zap.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh SQLite file in a scratch directory,
// which is removed afterwards. The returned error covers problems with
// the scenario itself (bad manifest, bad fixture, storage); expectation
// mismatches are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "shingest-scenario-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	h, err := newHarness(ctx, scenario, dir, zap.NewNop())
	if err != nil {
		return nil, err
	}
	defer h.store.Close()

	result := NewResult()
	for i, step := range scenario.Runs {
		rr, err := h.run(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("runs[%d]: %w", i, err)
		}
		result.Runs = append(result.Runs, rr)
		if step.Expect != nil {
			for _, msg := range checkRun(step.Expect, rr) {
				result.AddError(fmt.Sprintf("runs[%d] (%s): %s", i, step.Dataset, msg))
			}
		}
	}
	return result, nil
}

func newHarness(ctx context.Context, scenario *Scenario, dir string, logger *zap.Logger) (*Harness, error) {
	fx := fixture.Default()
	if scenario.Fixture != "" {
		var err error
		fx, err = fixture.Parse([]byte(scenario.Fixture), scenario.Name+" fixture")
		if err != nil {
			return nil, fmt.Errorf("failed to parse fixture: %w", err)
		}
	}

	parsed, err := manifest.Parse([]byte(scenario.Manifest), scenario.Name+".cue")
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	datasets := make(map[string]ingest.Dataset, len(parsed))
	for _, ds := range parsed {
		datasets[ds.Name] = ds
	}
	for i, step := range scenario.Runs {
		if _, ok := datasets[step.Dataset]; !ok {
			return nil, fmt.Errorf("runs[%d]: manifest declares no dataset %q", i, step.Dataset)
		}
	}

	data := filepath.Join(dir, "data")
	if err := writeFiles(data, scenario.Files); err != nil {
		return nil, err
	}

	st, err := store.Open(filepath.Join(dir, "catalogue.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	for _, obj := range scenario.Seed {
		if _, _, err := st.GetOrCreateAstroObject(ctx, obj.Name, obj.AltName); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to seed %q: %w", obj.Name, err)
		}
	}

	scraper := &testutil.FakeScraper{Meta: scenario.Scraper.Metadata()}
	if scenario.Scraper.Error != "" {
		scraper.Err = errors.New(scenario.Scraper.Error)
	}
	registrar := reference.NewRegistrar(st, scraper.Scrapers(), logger)

	orch := ingest.New(st, registrar, &source.Opener{DataDir: data}, fx, ingest.Options{
		Prompter:       testutil.NewScriptedPrompter(scenario.Answers...),
		FuzzyThreshold: scenario.FuzzyThreshold,
		IDs:            testutil.NewSequentialRunIDs(scenario.RunID),
		Now:            testutil.NewStepClock(0).Now,
	}, logger)

	return &Harness{
		dir:      data,
		store:    st,
		orch:     orch,
		datasets: datasets,
		logger:   logger,
	}, nil
}

// run executes one step. Run failures are part of the outcome, not an
// error.
func (h *Harness) run(ctx context.Context, step RunStep) (RunResult, error) {
	if err := writeFiles(h.dir, step.Files); err != nil {
		return RunResult{}, err
	}
	summary, runErr := h.orch.Run(ctx, h.datasets[step.Dataset])

	counts, err := h.store.Counts(ctx)
	if err != nil {
		return RunResult{}, err
	}
	return RunResult{Summary: summary, Err: runErr, Counts: counts}, nil
}

func writeFiles(dir string, files map[string]string) error {
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
