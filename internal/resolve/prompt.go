package resolve

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/supaharris/shingest/internal/catalogue"
)

// ErrOperatorRequired is returned when a decision needs an operator but
// none is available.
var ErrOperatorRequired = errors.New("operator confirmation required")

// Prompter asks an operator a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// NonInteractive is the Prompter for unattended runs. It never answers.
type NonInteractive struct{}

// Confirm always fails with ErrOperatorRequired.
func (NonInteractive) Confirm(_ context.Context, question string) (bool, error) {
	return false, fmt.Errorf("%w: %s", ErrOperatorRequired, question)
}

// LinePrompter asks on out and reads the answer from in.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter returns a Prompter reading answers line by line.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Confirm accepts "y" or "yes" (any case); anything else is a no. End of
// input means no operator is present.
func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", question)

	line, err := p.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return false, fmt.Errorf("%w: input closed", ErrOperatorRequired)
		}
		return false, fmt.Errorf("read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Confirm puts a DeferToOperator suggestion to p. It returns the
// candidate's id only if the operator accepts it.
func Confirm(ctx context.Context, p Prompter, s Suggestion) (catalogue.ObjectID, bool, error) {
	if s.Outcome != DeferToOperator {
		return 0, false, nil
	}
	question := fmt.Sprintf("%q is not a known object. Is it %q (similarity %d)?", s.Query, s.Candidate, s.Score)
	ok, err := p.Confirm(ctx, question)
	if err != nil || !ok {
		return 0, false, err
	}
	return s.ID, true, nil
}
