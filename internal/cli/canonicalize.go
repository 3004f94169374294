package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/supaharris/shingest/internal/names"
)

// CanonicalizeOptions are the flags of the canonicalize command.
type CanonicalizeOptions struct {
	Rules bool
}

// NameForms are the spellings the canonicalizer derives for one input.
type NameForms struct {
	Input     string   `json:"input"`
	Canonical string   `json:"canonical"`
	Alternate string   `json:"alternate"`
	Rule      string   `json:"rule,omitempty"`
	Variants  []string `json:"variants"`
}

// NameFormsList renders one block per input.
type NameFormsList []NameForms

func (l NameFormsList) String() string {
	var b strings.Builder
	for i, n := range l {
		if i > 0 {
			b.WriteString("\n")
		}
		rule := n.Rule
		if rule == "" {
			rule = "(none)"
		}
		fmt.Fprintf(&b, "%s\n", n.Input)
		fmt.Fprintf(&b, "  canonical:  %s\n", n.Canonical)
		fmt.Fprintf(&b, "  alternate:  %s\n", n.Alternate)
		fmt.Fprintf(&b, "  rule:       %s\n", rule)
		fmt.Fprintf(&b, "  variants:   %s\n", strings.Join(n.Variants, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RuleInfo is one row of the rule table.
type RuleInfo struct {
	Priority  int      `json:"priority"`
	Canonical string   `json:"canonical"`
	Alternate string   `json:"alternate,omitempty"`
	Aliases   []string `json:"aliases"`
	Bare      bool     `json:"bare,omitempty"`
}

// RuleTable renders the rules in priority order.
type RuleTable []RuleInfo

func (t RuleTable) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCANONICAL\tALTERNATE\tALIASES\tBARE")
	for _, r := range t {
		alt := r.Alternate
		if alt == "" {
			alt = "-"
		}
		bare := "no"
		if r.Bare {
			bare = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.Priority, r.Canonical, alt, strings.Join(r.Aliases, ", "), bare)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// NewCanonicalizeCommand creates the canonicalize command.
func NewCanonicalizeCommand(rootOpts *RootOptions) *cobra.Command {
	canonOpts := &CanonicalizeOptions{}

	cmd := &cobra.Command{
		Use:   "canonicalize <name>...",
		Short: "Show the canonical and alternate spellings of designations",
		Long: `Show how designations are rewritten before they are matched against
stored objects: the canonical form ("Pal 1"), the alternate form
("Palomar 1") and every variant the matching rule recognizes.

With --rules, print the rule table instead, in the order rules are tried.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if !canonOpts.Rules && len(args) == 0 {
				return fmt.Errorf("requires at least 1 name, or --rules")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			canon := names.Default()
			if canonOpts.Rules {
				return f.Success(ruleTable(canon))
			}
			return f.Success(nameForms(canon, args))
		},
	}

	cmd.Flags().BoolVar(&canonOpts.Rules, "rules", false, "print the rule table")
	return cmd
}

func nameForms(canon *names.Canonicalizer, inputs []string) NameFormsList {
	out := make(NameFormsList, 0, len(inputs))
	for _, in := range inputs {
		forms := NameForms{
			Input:     in,
			Canonical: canon.Canonical(in),
			Alternate: canon.Alternate(in),
			Variants:  canon.Variants(in),
		}
		if m, ok := canon.Match(in); ok {
			forms.Rule = m.Rule.Canonical
		}
		out = append(out, forms)
	}
	return out
}

func ruleTable(canon *names.Canonicalizer) RuleTable {
	rules := canon.Rules()
	out := make(RuleTable, 0, len(rules))
	for i, r := range rules {
		out = append(out, RuleInfo{
			Priority:  i + 1,
			Canonical: r.Canonical,
			Alternate: r.Alternate,
			Aliases:   r.Aliases,
			Bare:      r.Bare,
		})
	}
	return out
}
