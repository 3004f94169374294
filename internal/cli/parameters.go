package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ParametersResult is the outcome of add_parameters.
type ParametersResult struct {
	Fixture         string `json:"fixture"`
	Parameters      int    `json:"parameters"`
	Created         int    `json:"created"`
	Classifications int    `json:"classifications"`
}

func (r ParametersResult) String() string {
	return fmt.Sprintf("Loaded fixture %s: %d parameters (%d created), %d classifications",
		r.Fixture, r.Parameters, r.Created, r.Classifications)
}

// NewAddParametersCommand creates the add_parameters command.
func NewAddParametersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add_parameters",
		Short: "Store the parameters and classifications every dataset needs",
		Long: `Store every parameter and classification of the prerequisite fixture
that is not stored yet. Dataset runs do this themselves; the command is
useful to prepare an empty database. Safe to repeat.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddParameters(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runAddParameters(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts, cmd)

	e, err := openEnv(ctx, opts, f)
	if err != nil {
		return err
	}
	defer e.Close()

	created, err := e.orchestrator(nil).LoadFixture(ctx)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeRunFailed, "cannot store fixture", err)
	}

	return f.Success(ParametersResult{
		Fixture:         e.fixture.Source,
		Parameters:      len(e.fixture.Parameters),
		Created:         created,
		Classifications: len(e.fixture.Classifications),
	})
}
