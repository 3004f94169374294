package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"

	"github.com/supaharris/shingest/internal/config"
	"github.com/supaharris/shingest/internal/fixture"
	"github.com/supaharris/shingest/internal/ingest"
	"github.com/supaharris/shingest/internal/logging"
	"github.com/supaharris/shingest/internal/manifest"
	"github.com/supaharris/shingest/internal/metrics"
	"github.com/supaharris/shingest/internal/reference"
	"github.com/supaharris/shingest/internal/resolve"
	"github.com/supaharris/shingest/internal/source"
	"github.com/supaharris/shingest/internal/store"
	"github.com/supaharris/shingest/internal/store/gormstore"
)

// backend is a catalogue store the CLI can run datasets against.
type backend interface {
	ingest.Store
	Close() error
}

var (
	_ backend = (*store.Store)(nil)
	_ backend = (*gormstore.Store)(nil)
)

// newScrapers builds the reference scrapers. Tests replace it.
var newScrapers = reference.DefaultScrapers

// env is everything a command needs to touch the catalogue.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   backend
	fixture *fixture.Fixture
	opener  *source.Opener
	metrics *metrics.Recorder
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.DB != "" {
		cfg.DatabaseDriver = config.DriverSQLite
		cfg.DatabasePath = opts.DB
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Manifests != "" {
		cfg.ManifestDir = opts.Manifests
	}
	if opts.Fixture != "" {
		cfg.FixturePath = opts.Fixture
	}
	return cfg, nil
}

// loadDatasets returns the built-in manifests overlaid with the configured
// manifest directory. Manifest errors are command errors.
func loadDatasets(cfg *config.Config, f *OutputFormatter) (*manifest.Set, error) {
	set, errs := manifest.Load(cfg.ManifestDir, manifest.LoadModeFailFast)
	if len(errs) > 0 {
		code := manifest.ErrCodeGeneric
		var le *manifest.LoadError
		if errors.As(errs[0], &le) {
			code = le.Code
		}
		return nil, f.Fail(ExitCommandError, code, errs[0].Error(), nil)
	}
	return set, nil
}

// openEnv loads configuration and opens the store. The caller must Close
// the returned env. Failures are reported through f.
func openEnv(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	logger, err := logging.New(opts.Verbosity, cfg.LogFormat)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	fx, err := fixture.Load(cfg.FixturePath)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "cannot load parameter fixture", err)
	}

	opener := &source.Opener{DataDir: cfg.DataDir}
	if cfg.S3().Enabled() {
		client, err := source.NewS3Client(ctx, cfg.S3())
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeConfig, "cannot configure S3 client", err)
		}
		opener.S3 = client
	}

	st, err := openBackend(cfg, logger)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "cannot open database", err)
	}

	return &env{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		fixture: fx,
		opener:  opener,
		metrics: metrics.NewRecorder(),
	}, nil
}

func openBackend(cfg *config.Config, logger *zap.Logger) (backend, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		return gormstore.Open(postgres.Open(cfg.DSN()), logger)
	case config.DriverSQLite:
		return store.Open(cfg.DatabasePath)
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
}

// orchestrator wires an Orchestrator to the env.
func (e *env) orchestrator(prompter resolve.Prompter) *ingest.Orchestrator {
	scrapers := newScrapers(e.cfg.Scraping(), e.cfg.ADSAPIURL, e.cfg.ADSAPIToken, e.logger)
	registrar := reference.NewRegistrar(e.store, scrapers, e.logger)
	return ingest.New(e.store, registrar, e.opener, e.fixture, ingest.Options{
		Prompter:       prompter,
		FuzzyThreshold: e.cfg.FuzzyThreshold,
		Observer:       e.metrics,
	}, e.logger)
}

// flushMetrics writes the textfile if one is configured. Failing to write
// metrics never fails a command.
func (e *env) flushMetrics() {
	if e.cfg.MetricsTextfile == "" {
		return
	}
	if err := e.metrics.WriteTextfile(e.cfg.MetricsTextfile); err != nil {
		e.logger.Warn("write metrics", zap.Error(err))
	}
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("close database", zap.Error(err))
	}
	_ = e.logger.Sync()
}
