package resolve

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supaharris/shingest/internal/catalogue"
)

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("y\nno\nYES\n"), &out)
	ctx := context.Background()

	ok, err := p.Confirm(ctx, "first?")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Confirm(ctx, "second?")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Confirm(ctx, "third?")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = p.Confirm(ctx, "fourth?")
	assert.ErrorIs(t, err, ErrOperatorRequired)

	assert.Contains(t, out.String(), "first? [y/N]: ")
}

func TestLinePrompter_AnswerWithoutNewline(t *testing.T) {
	p := NewLinePrompter(strings.NewReader("y"), &bytes.Buffer{})
	ok, err := p.Confirm(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNonInteractive(t *testing.T) {
	_, err := NonInteractive{}.Confirm(context.Background(), "q")
	assert.ErrorIs(t, err, ErrOperatorRequired)
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()
	s := Suggestion{Outcome: DeferToOperator, Query: "Eridanos", Candidate: "Eridanus", ID: 3, Score: 88}

	id, ok, err := Confirm(ctx, NewLinePrompter(strings.NewReader("y\n"), &bytes.Buffer{}), s)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, catalogue.ObjectID(3), id)

	_, ok, err = Confirm(ctx, NewLinePrompter(strings.NewReader("n\n"), &bytes.Buffer{}), s)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = Confirm(ctx, NonInteractive{}, Suggestion{Outcome: NoCandidate})
	require.NoError(t, err, "nothing to ask")
	assert.False(t, ok)

	_, _, err = Confirm(ctx, NonInteractive{}, s)
	assert.ErrorIs(t, err, ErrOperatorRequired)
}
