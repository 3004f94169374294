package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/supaharris/shingest/internal/resolve"
)

// ScheduleOptions are the flags of the schedule command.
type ScheduleOptions struct {
	Spec string
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	schedOpts := &ScheduleOptions{}

	cmd := &cobra.Command{
		Use:   "schedule <dataset>...",
		Short: "Re-ingest datasets on a cron schedule",
		Long: `Run the given datasets, in order, every time the cron schedule fires,
until interrupted. Runs never prompt. A run that is still going when the
schedule fires again causes that firing to be skipped.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd.Context(), rootOpts, schedOpts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&schedOpts.Spec, "spec", "", "cron spec, e.g. \"0 3 * * *\" (default SCHEDULE)")
	return cmd
}

func runSchedule(ctx context.Context, opts *RootOptions, schedOpts *ScheduleOptions, datasets []string, cmd *cobra.Command) error {
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

	spec := schedOpts.Spec
	if spec == "" {
		spec = e.cfg.Schedule
	}

	orch := e.orchestrator(resolve.NonInteractive{})
	log := e.logger.Named("schedule")
	job := func() {
		log.Info("scheduled run started", zap.Strings("datasets", datasets))
		for _, r := range runDatasets(ctx, orch, set, datasets) {
			if r.err != nil {
				log.Error("scheduled run failed", zap.String("dataset", r.summary.Dataset), zap.Error(r.err))
			}
		}
		e.flushMetrics()
	}

	c := cron.New(
		cron.WithLogger(cronLogger{log}),
		cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
	)
	if _, err := c.AddFunc(spec, job); err != nil {
		return f.Fail(ExitCommandError, ErrCodeSchedule, fmt.Sprintf("invalid schedule %q", spec), err)
	}

	c.Start()
	log.Info("scheduler started", zap.String("spec", spec), zap.Strings("datasets", datasets))
	fmt.Fprintf(f.GetErrWriter(), "Scheduled %s on %q; press Ctrl-C to stop\n", strings.Join(datasets, ", "), spec)

	<-ctx.Done()
	// Wait for a job that is running to finish before the store closes.
	<-c.Stop().Done()
	log.Info("scheduler stopped")
	return nil
}

// cronLogger routes cron's logging into zap.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

var _ cron.Logger = cronLogger{}
