package testutil

import (
	"fmt"
	"sync"
)

// FixedRunID returns the same run id every time.
//
// The id is typically set in a scenario YAML:
//
//	run_id: "test-run-0001"
//
// If id is empty, NewRunID returns "test-run-default".
type FixedRunID string

// NewRunID implements ingest.IDGenerator.
func (id FixedRunID) NewRunID() string {
	if id == "" {
		return "test-run-default"
	}
	return string(id)
}

// SequentialRunIDs returns "<prefix>-0001", "<prefix>-0002", ... so that
// repeated runs in one test get distinct, predictable ids.
type SequentialRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialRunIDs returns a generator. An empty prefix means "run".
func NewSequentialRunIDs(prefix string) *SequentialRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialRunIDs{prefix: prefix}
}

// NewRunID implements ingest.IDGenerator.
func (g *SequentialRunIDs) NewRunID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
