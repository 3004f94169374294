// Package harness runs ingestion scenarios end to end.
//
// A scenario seeds a fresh catalogue, writes its source files to a
// scratch data directory, compiles an inline CUE manifest and runs one or
// more datasets through the real ingest.Orchestrator. Each run's summary
// and the catalogue row counts after it are checked against the
// scenario's expectations.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: alias_resolution
//	description: "A row naming an alias resolves to the existing object"
//	fixture: |
//	  classifications: [GC]
//	  parameters:
//	    - {name: R_Sun, description: Distance to the Sun, unit: kpc}
//	seed:
//	  - {name: "Pal 2", altname: "Palomar 2"}
//	manifest: |
//	  dataset: distances: { ... }
//	files:
//	  distances.csv: |
//	    Pal 1,6.9
//	    Palomar 2,27.1
//	runs:
//	  - dataset: distances
//	    expect:
//	      status: succeeded
//	      summary: {objects_created: 1, observations_created: 2}
//	      counts: {astro_objects: 2, observations: 2}
//
// Summary and count expectations are subset matches on the JSON field
// names of ingest.Summary and store.Counts. A run may replace source
// files before it starts, which is how scenarios model a changed upstream
// table.
//
// # Deterministic Runs
//
// Run ids come from testutil.SequentialRunIDs, timestamps from
// testutil.StepClock and reference metadata from testutil.FakeScraper, so
// the snapshot written by RunWithGolden is identical across runs.
package harness
