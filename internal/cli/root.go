package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/supaharris/shingest/internal/manifest"
)

// RootOptions holds global flags for all commands. Empty path flags fall
// back to the environment configuration.
type RootOptions struct {
	Verbosity int
	Format    string // "json" | "text"
	DB        string
	DataDir   string
	Manifests string
	Fixture   string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the shingest CLI.
//
// One add_<dataset> command is generated per manifest known when the
// command tree is built: the embedded ones and those in MANIFEST_DIR.
// Datasets from a --manifests directory are run with "add <dataset>".
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shingest",
		Short: "shingest - SupaHarris catalogue ingestion",
		Long: `Ingest published star cluster catalogues into the SupaHarris database.

Each dataset is parsed from its fixed-format source files, its object
designations are reconciled against the objects already stored, and its
measurements are recorded as observations attributed to the publication.`,
		SilenceUsage:  true,
		SilenceErrors: true, // main prints the error once
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbosity < 0 || opts.Verbosity > 3 {
				return fmt.Errorf("invalid verbosity %d: must be between 0 and 3", opts.Verbosity)
			}
			return nil
		},
	}

	cmd.PersistentFlags().IntVarP(&opts.Verbosity, "verbosity", "v", 1, "log verbosity (0-3)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "SQLite database path (overrides DATABASE_PATH)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "root for relative source paths (overrides DATA_DIR)")
	cmd.PersistentFlags().StringVar(&opts.Manifests, "manifests", "", "directory of extra dataset manifests (overrides MANIFEST_DIR)")
	cmd.PersistentFlags().StringVar(&opts.Fixture, "fixture", "", "parameter fixture YAML (overrides FIXTURE_PATH)")

	datasets, _ := manifest.Load(os.Getenv("MANIFEST_DIR"), manifest.LoadModeCollectAll)
	if datasets == nil {
		datasets = manifest.Builtin()
	}
	for _, name := range datasets.Names() {
		cmd.AddCommand(NewAddDatasetCommand(opts, name))
	}

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewAddParametersCommand(opts))
	cmd.AddCommand(NewDatasetsCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCanonicalizeCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewScheduleCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbosity >= 2,
	}
}
