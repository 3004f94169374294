package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/supaharris/shingest/internal/resolve"
)

// ScriptedPrompter answers questions from a fixed script. Once the
// script runs out it behaves like an absent operator.
type ScriptedPrompter struct {
	mu        sync.Mutex
	answers   []bool
	Questions []string
}

// NewScriptedPrompter returns a prompter giving answers in order.
func NewScriptedPrompter(answers ...bool) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

// Confirm implements resolve.Prompter.
func (p *ScriptedPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Questions = append(p.Questions, question)
	if len(p.answers) == 0 {
		return false, fmt.Errorf("%w: script exhausted at %q", resolve.ErrOperatorRequired, question)
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}
