package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/supaharris/shingest/internal/manifest"
)

// DatasetInfo describes one known dataset.
type DatasetInfo struct {
	Name        string `json:"name"`
	Origin      string `json:"origin"`
	Reference   string `json:"reference"`
	Description string `json:"description,omitempty"`
	OnMiss      string `json:"on_miss"`
	Tables      int    `json:"tables"`
	Profiles    int    `json:"profiles"`
	References  int    `json:"references"`
}

// DatasetList renders as a table.
type DatasetList []DatasetInfo

func (l DatasetList) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATASET\tTABLES\tPROFILES\tREFERENCES\tON MISS\tORIGIN")
	for _, d := range l {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n", d.Name, d.Tables, d.Profiles, d.References, d.OnMiss, d.Origin)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// NewDatasetsCommand creates the datasets command.
func NewDatasetsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "datasets",
		Short:         "List the datasets that can be ingested",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDatasetsList(rootOpts, cmd)
		},
	}
}

func runDatasetsList(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	set, err := loadDatasets(cfg, f)
	if err != nil {
		return err
	}
	return f.Success(listDatasets(set))
}

func listDatasets(set *manifest.Set) DatasetList {
	list := make(DatasetList, 0, set.Len())
	for _, name := range set.Names() {
		ds, _ := set.Get(name)
		list = append(list, DatasetInfo{
			Name:        ds.Name,
			Origin:      set.Origin(name),
			Reference:   ds.Reference,
			Description: ds.Description,
			OnMiss:      string(ds.OnMiss),
			Tables:      len(ds.Tables),
			Profiles:    len(ds.Profiles),
			References:  1 + len(ds.ExtraReferences),
		})
	}
	return list
}
