package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supaharris/shingest/internal/catalogue"
	"github.com/supaharris/shingest/internal/names"
	"github.com/supaharris/shingest/internal/resolve"
)

// ResolveOptions are the flags of the resolve command.
type ResolveOptions struct {
	Threshold int
}

// Resolution is the outcome of resolving one designation.
type Resolution struct {
	Input      string             `json:"input"`
	Canonical  string             `json:"canonical"`
	Found      bool               `json:"found"`
	ID         catalogue.ObjectID `json:"id,omitempty"`
	Name       string             `json:"name,omitempty"`
	AltName    string             `json:"altname,omitempty"`
	Suggestion *ResolveSuggestion `json:"suggestion,omitempty"`
}

// ResolveSuggestion is the closest stored name for a miss.
type ResolveSuggestion struct {
	Candidate string             `json:"candidate"`
	ID        catalogue.ObjectID `json:"id"`
	Score     int                `json:"score"`
	Outcome   string             `json:"outcome"`
}

// ResolutionList renders one line per input.
type ResolutionList []Resolution

func (l ResolutionList) String() string {
	var b strings.Builder
	for _, r := range l {
		switch {
		case r.Found:
			fmt.Fprintf(&b, "%s => #%d %s", r.Input, r.ID, r.Name)
			if r.AltName != "" {
				fmt.Fprintf(&b, " (%s)", r.AltName)
			}
		case r.Suggestion != nil && r.Suggestion.Outcome == resolve.DeferToOperator.String():
			fmt.Fprintf(&b, "%s => not found; did you mean %s (#%d, similarity %d)?",
				r.Input, r.Suggestion.Candidate, r.Suggestion.ID, r.Suggestion.Score)
		default:
			fmt.Fprintf(&b, "%s => not found", r.Input)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	resolveOpts := &ResolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Look designations up among the stored objects",
		Long: `Resolve designations the way a dataset run does: by name, altname or
any spelling variant of either. For names that do not resolve, the most
similar stored name is shown when it scores at least the threshold.
Nothing is written to the database.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), rootOpts, resolveOpts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&resolveOpts.Threshold, "threshold", 0, "fuzzy similarity threshold 1-100 (default FUZZY_THRESHOLD)")
	return cmd
}

func runResolve(ctx context.Context, opts *RootOptions, resolveOpts *ResolveOptions, inputs []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts, cmd)

	e, err := openEnv(ctx, opts, f)
	if err != nil {
		return err
	}
	defer e.Close()

	objects, err := e.store.ListAstroObjects(ctx)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeRunFailed, "cannot list objects", err)
	}

	threshold := resolveOpts.Threshold
	if threshold == 0 {
		threshold = e.cfg.FuzzyThreshold
	}
	canon := names.Default()
	nm := resolve.Build(objects, canon, e.logger)
	fuzzy := resolve.NewFuzzyMatcher(nm, threshold)

	return f.Success(resolveAll(nm, fuzzy, canon, inputs))
}

func resolveAll(nm *resolve.NameMap, fuzzy *resolve.FuzzyMatcher, canon *names.Canonicalizer, inputs []string) ResolutionList {
	out := make(ResolutionList, 0, len(inputs))
	for _, in := range inputs {
		r := Resolution{Input: in, Canonical: canon.Canonical(in)}
		if id, ok := nm.Resolve(in); ok {
			obj, _ := nm.Object(id)
			r.Found, r.ID, r.Name, r.AltName = true, id, obj.Name, obj.AltName
		} else if s := fuzzy.Suggest(in); s.Candidate != "" {
			r.Suggestion = &ResolveSuggestion{
				Candidate: s.Candidate,
				ID:        s.ID,
				Score:     s.Score,
				Outcome:   s.Outcome.String(),
			}
		}
		out = append(out, r)
	}
	return out
}
