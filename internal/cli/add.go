package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supaharris/shingest/internal/ingest"
	"github.com/supaharris/shingest/internal/resolve"
)

// AddOptions are the flags of the add commands.
type AddOptions struct {
	NoInput bool
}

// NewAddDatasetCommand creates the add_<dataset> command for one manifest.
func NewAddDatasetCommand(rootOpts *RootOptions, dataset string) *cobra.Command {
	addOpts := &AddOptions{}

	cmd := &cobra.Command{
		Use:           "add_" + dataset,
		Short:         fmt.Sprintf("Ingest the %s dataset", dataset),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.Context(), rootOpts, addOpts, []string{dataset}, cmd)
		},
	}

	cmd.Flags().BoolVar(&addOpts.NoInput, "no-input", false, "never prompt; fuzzy matches under on_miss=prompt become errors")
	return cmd
}

// NewAddCommand creates the add command, which ingests datasets by name.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	addOpts := &AddOptions{}

	cmd := &cobra.Command{
		Use:   "add <dataset>...",
		Short: "Ingest one or more datasets",
		Long: `Ingest datasets in the order given.

A failing dataset does not stop the ones after it. The exit code is 2 if
any dataset was misconfigured, otherwise 1 if any run failed.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.Context(), rootOpts, addOpts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&addOpts.NoInput, "no-input", false, "never prompt; fuzzy matches under on_miss=prompt become errors")
	return cmd
}

func runAdd(ctx context.Context, opts *RootOptions, addOpts *AddOptions, datasets []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts, cmd)

	e, err := openEnv(ctx, opts, f)
	if err != nil {
		return err
	}
	defer e.Close()

	set, err := loadDatasets(e.cfg, f)
	if err != nil {
		return err
	}
	for _, name := range datasets {
		if _, ok := set.Get(name); !ok {
			return f.Fail(ExitCommandError, ErrCodeUnknownDataset,
				fmt.Sprintf("unknown dataset %q (known: %s)", name, strings.Join(set.Names(), ", ")), nil)
		}
	}

	var prompter resolve.Prompter = resolve.NonInteractive{}
	if !addOpts.NoInput {
		prompter = resolve.NewLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	orch := e.orchestrator(prompter)

	results := runDatasets(ctx, orch, set, datasets)
	e.flushMetrics()
	return reportRuns(f, results)
}

// runResult pairs a run summary with the error that ended it.
type runResult struct {
	summary *ingest.Summary
	err     error
}

// datasetGetter is the part of manifest.Set runDatasets needs.
type datasetGetter interface {
	Get(name string) (ingest.Dataset, bool)
}

func runDatasets(ctx context.Context, orch *ingest.Orchestrator, set datasetGetter, names []string) []runResult {
	results := make([]runResult, 0, len(names))
	for _, name := range names {
		ds, _ := set.Get(name)
		summary, err := orch.Run(ctx, ds)
		results = append(results, runResult{summary: summary, err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// reportRuns prints every summary and returns the error for the worst
// outcome.
func reportRuns(f *OutputFormatter, results []runResult) error {
	summaries := make([]*ingest.Summary, 0, len(results))
	exitCode := ExitSuccess
	var worst error
	code := ""
	for _, r := range results {
		summaries = append(summaries, r.summary)
		if r.err == nil {
			continue
		}
		c, errCode := classifyRunError(r.err)
		if c > exitCode || worst == nil {
			exitCode, worst, code = c, r.err, errCode
		}
	}

	if f.Format == "json" {
		if worst != nil {
			if err := f.Error(code, worst.Error(), summaries); err != nil {
				return err
			}
			return WrapExitError(exitCode, fmt.Sprintf("dataset run failed [%s]", code), worst)
		}
		return f.Success(summaries)
	}

	for i, s := range summaries {
		if i > 0 {
			fmt.Fprintln(f.Writer)
		}
		fmt.Fprint(f.Writer, s.String())
	}
	if worst != nil {
		return WrapExitError(exitCode, fmt.Sprintf("dataset run failed [%s]", code), worst)
	}
	return nil
}

func classifyRunError(err error) (int, string) {
	switch {
	case ingest.IsConfigError(err):
		return ExitCommandError, ErrCodeDatasetConfig
	case ingest.IsUnresolvedError(err):
		return ExitFailure, ErrCodeUnresolved
	case errors.Is(err, resolve.ErrOperatorRequired):
		return ExitFailure, ErrCodeUnresolved
	}
	return ExitFailure, ErrCodeRunFailed
}
