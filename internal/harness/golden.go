package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/supaharris/shingest/internal/store"
)

// Snapshot is the stable part of a scenario's outcome. Timings and
// source digests are left out.
type Snapshot struct {
	Scenario string        `json:"scenario"`
	Runs     []RunSnapshot `json:"runs"`
}

// RunSnapshot is the stable part of one run.
type RunSnapshot struct {
	RunID     string `json:"run_id"`
	Dataset   string `json:"dataset"`
	Status    string `json:"status"`
	Stage     string `json:"stage,omitempty"`
	Error     string `json:"error,omitempty"`
	Reference string `json:"reference,omitempty"`

	ReferencesCreated    int   `json:"references_created"`
	ParametersCreated    int   `json:"parameters_created"`
	RowsParsed           int   `json:"rows_parsed"`
	RowsSkipped          int   `json:"rows_skipped"`
	ValuesMissing        int   `json:"values_missing"`
	ObjectsResolved      int   `json:"objects_resolved"`
	ObjectsCreated       int   `json:"objects_created"`
	ObjectsSkipped       int   `json:"objects_skipped"`
	FuzzyAccepted        int   `json:"fuzzy_accepted"`
	ObservationsCreated  int64 `json:"observations_created"`
	ObservationsExisting int64 `json:"observations_existing"`
	ObservationsDeleted  int64 `json:"observations_deleted"`
	ProfilesCreated      int64 `json:"profiles_created"`
	ProfilesDeleted      int64 `json:"profiles_deleted"`

	Warnings []string     `json:"warnings,omitempty"`
	Counts   store.Counts `json:"counts"`
}

// NewSnapshot builds the snapshot of a scenario result.
func NewSnapshot(name string, result *Result) Snapshot {
	snap := Snapshot{Scenario: name, Runs: make([]RunSnapshot, 0, len(result.Runs))}
	for _, rr := range result.Runs {
		s := rr.Summary
		snap.Runs = append(snap.Runs, RunSnapshot{
			RunID:                s.RunID,
			Dataset:              s.Dataset,
			Status:               s.Status,
			Stage:                string(s.Stage),
			Error:                s.Error,
			Reference:            s.Reference,
			ReferencesCreated:    s.ReferencesCreated,
			ParametersCreated:    s.ParametersCreated,
			RowsParsed:           s.RowsParsed,
			RowsSkipped:          s.RowsSkipped,
			ValuesMissing:        s.ValuesMissing,
			ObjectsResolved:      s.ObjectsResolved,
			ObjectsCreated:       s.ObjectsCreated,
			ObjectsSkipped:       s.ObjectsSkipped,
			FuzzyAccepted:        s.FuzzyAccepted,
			ObservationsCreated:  s.ObservationsCreated,
			ObservationsExisting: s.ObservationsExisting,
			ObservationsDeleted:  s.ObservationsDeleted,
			ProfilesCreated:      s.ProfilesCreated,
			ProfilesDeleted:      s.ProfilesDeleted,
			Warnings:             s.Warnings,
			Counts:               rr.Counts,
		})
	}
	return snap
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Expectation mismatches fail the test before the golden comparison.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := json.MarshalIndent(NewSnapshot(name, result), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
