package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/supaharris/shingest/internal/catalogue"
	"github.com/supaharris/shingest/internal/fixture"
	"github.com/supaharris/shingest/internal/names"
	"github.com/supaharris/shingest/internal/parser"
	"github.com/supaharris/shingest/internal/reference"
	"github.com/supaharris/shingest/internal/resolve"
	"github.com/supaharris/shingest/internal/source"
	"github.com/supaharris/shingest/internal/upsert"
)

// Stage names one step of a run.
type Stage string

const (
	StageEnsurePrerequisites Stage = "ensure_prerequisites"
	StageRegisterReference   Stage = "register_reference"
	StageParseSource         Stage = "parse_source"
	StageResolveIdentities   Stage = "resolve_identities"
	StageUpsertFacts         Stage = "upsert_facts"
	StageReportSummary       Stage = "report_summary"
)

// Store is the storage a run reads and writes.
type Store interface {
	upsert.Store
	reference.Store

	GetOrCreateAstroObject(ctx context.Context, name, altname string) (catalogue.AstroObject, bool, error)
	ListAstroObjects(ctx context.Context) ([]catalogue.AstroObject, error)
	GetOrCreateClassification(ctx context.Context, name string) (catalogue.Classification, bool, error)
	AddClassification(ctx context.Context, id catalogue.ObjectID, classificationID int64) (bool, error)
	GetOrCreateParameter(ctx context.Context, p catalogue.Parameter) (catalogue.Parameter, bool, error)
	ListParameters(ctx context.Context) ([]catalogue.Parameter, error)
	ReplaceObservations(ctx context.Context, referenceID int64, obs []catalogue.Observation) (deleted, created int64, err error)
	ReplaceProfiles(ctx context.Context, referenceID int64, profiles []catalogue.Profile) (int64, error)
	BeginRun(ctx context.Context, id, dataset string, startedAt time.Time) error
	FinishRun(ctx context.Context, id, status, summary string, finishedAt time.Time) error
}

// IDGenerator produces run ids.
type IDGenerator interface {
	NewRunID() string
}

// UUIDv7 generates time-ordered run ids.
type UUIDv7 struct{}

func (UUIDv7) NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Observer is told about every finished run.
type Observer interface {
	ObserveRun(s *Summary)
}

// Options configure an Orchestrator. Zero values select defaults.
type Options struct {
	Canonicalizer  *names.Canonicalizer
	Prompter       resolve.Prompter
	FuzzyThreshold int
	IDs            IDGenerator
	Now            func() time.Time
	Observer       Observer
}

// Orchestrator runs datasets.
type Orchestrator struct {
	store     Store
	registrar *reference.Registrar
	opener    *source.Opener
	fixture   *fixture.Fixture
	engine    *upsert.Engine
	opts      Options
	logger    *zap.Logger
}

// New returns an Orchestrator. A nil fixture makes every run fail in
// ensure_prerequisites.
func New(st Store, registrar *reference.Registrar, opener *source.Opener, fx *fixture.Fixture, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Canonicalizer == nil {
		opts.Canonicalizer = names.Default()
	}
	if opts.Prompter == nil {
		opts.Prompter = resolve.NonInteractive{}
	}
	if opts.FuzzyThreshold == 0 {
		opts.FuzzyThreshold = resolve.DefaultThreshold
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opener == nil {
		opener = &source.Opener{}
	}
	return &Orchestrator{
		store:     st,
		registrar: registrar,
		opener:    opener,
		fixture:   fx,
		engine:    upsert.New(st, logger),
		opts:      opts,
		logger:    logger,
	}
}

// run is the state threaded through the stages of one dataset run.
type run struct {
	ds      Dataset
	log     *zap.Logger
	summary *Summary

	params         *ParamContext
	classification int64
	classified     map[catalogue.ObjectID]bool
	ref            catalogue.Reference

	tables   []parsedTable
	profiles []parsedProfile

	names    *resolve.NameMap
	fuzzy    *resolve.FuzzyMatcher
	declined map[string]bool
	rows     []resolvedRow
	curves   []resolvedProfile
}

type parsedTable struct {
	table   *Table
	records []parser.Record
}

type parsedProfile struct {
	set         *ProfileSet
	path        string
	designation string
	records     []parser.Record
}

type resolvedRow struct {
	table  *Table
	rec    parser.Record
	object catalogue.ObjectID
}

type resolvedProfile struct {
	parsedProfile
	object catalogue.ObjectID
}

// Run ingests ds. The returned Summary is never nil; on failure it names
// the stage that failed and the error is a *ConfigError, an
// *UnresolvedError or a storage error.
func (o *Orchestrator) Run(ctx context.Context, ds Dataset) (*Summary, error) {
	if ds.OnMiss == "" {
		ds.OnMiss = MissCreate
	}
	r := &run{
		ds: ds,
		summary: &Summary{
			RunID:     o.opts.IDs.NewRunID(),
			Dataset:   ds.Name,
			StartedAt: o.opts.Now(),
		},
		classified: map[catalogue.ObjectID]bool{},
		declined:   map[string]bool{},
	}
	r.log = o.logger.With(zap.String("dataset", ds.Name), zap.String("run_id", r.summary.RunID))

	if err := o.store.BeginRun(ctx, r.summary.RunID, ds.Name, r.summary.StartedAt); err != nil {
		r.summary.Status = StatusFailed
		r.summary.Error = err.Error()
		return r.summary, fmt.Errorf("dataset %s: %w", ds.Name, err)
	}

	stages := []struct {
		stage Stage
		fn    func(context.Context, *run) error
	}{
		{StageEnsurePrerequisites, o.ensurePrerequisites},
		{StageRegisterReference, o.registerReference},
		{StageParseSource, o.parseSource},
		{StageResolveIdentities, o.resolveIdentities},
		{StageUpsertFacts, o.upsertFacts},
	}

	var runErr error
	for _, st := range stages {
		r.log.Debug("stage started", zap.String("stage", string(st.stage)))
		if err := ctx.Err(); err != nil {
			runErr = o.fail(r, st.stage, err)
			break
		}
		if err := st.fn(ctx, r); err != nil {
			runErr = o.fail(r, st.stage, err)
			break
		}
	}
	o.reportSummary(ctx, r)
	return r.summary, runErr
}

func (o *Orchestrator) fail(r *run, stage Stage, err error) error {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		if cfgErr.Dataset == "" {
			cfgErr.Dataset = r.ds.Name
		}
		if cfgErr.Stage == "" {
			cfgErr.Stage = stage
		}
	} else if !IsUnresolvedError(err) {
		err = fmt.Errorf("dataset %s: %s: %w", r.ds.Name, stage, err)
	}
	r.summary.Stage = stage
	r.summary.Error = err.Error()
	return err
}

func (o *Orchestrator) ensurePrerequisites(ctx context.Context, r *run) error {
	if err := r.ds.Validate(); err != nil {
		return err
	}
	if o.fixture == nil {
		return configErrorf(r.ds.Name, "no prerequisite fixture loaded")
	}

	created, err := o.LoadFixture(ctx)
	if err != nil {
		return err
	}
	r.summary.ParametersCreated += created

	stored, err := o.store.ListParameters(ctx)
	if err != nil {
		return err
	}
	r.params = NewParamContext(stored)

	for _, name := range r.ds.ParameterNames() {
		def, _ := r.ds.Definition(name)
		switch src := r.params.Lookup(name, def).(type) {
		case catalogue.Found:
			r.log.Debug("parameter found", zap.String("parameter", name), zap.Int64("id", src.Record.ID))
		case catalogue.Default:
			if src.Fallback.Name == "" {
				return configErrorf(r.ds.Name, "parameter %q is neither stored, in the fixture, nor defined by the dataset", name)
			}
			p, created, err := o.store.GetOrCreateParameter(ctx, src.Fallback)
			if err != nil {
				return err
			}
			if created {
				r.summary.ParametersCreated++
			}
			r.params.Add(p)
		}
	}

	if r.ds.Classification != "" {
		c, _, err := o.store.GetOrCreateClassification(ctx, r.ds.Classification)
		if err != nil {
			return err
		}
		r.classification = c.ID
	}
	return nil
}

// LoadFixture stores every fixture parameter and classification that is
// not stored yet, and returns the number of parameters created.
func (o *Orchestrator) LoadFixture(ctx context.Context) (int, error) {
	if o.fixture == nil {
		return 0, errors.New("load fixture: no prerequisite fixture loaded")
	}
	n := 0
	for _, p := range o.fixture.Parameters {
		_, created, err := o.store.GetOrCreateParameter(ctx, p)
		if err != nil {
			return n, fmt.Errorf("load fixture: %w", err)
		}
		if created {
			n++
		}
	}
	for _, c := range o.fixture.Classifications {
		if _, _, err := o.store.GetOrCreateClassification(ctx, c); err != nil {
			return n, fmt.Errorf("load fixture: %w", err)
		}
	}
	return n, nil
}

func (o *Orchestrator) registerReference(ctx context.Context, r *run) error {
	if o.registrar == nil {
		return configErrorf(r.ds.Name, "no reference registrar configured")
	}
	urls := append([]string{r.ds.Reference}, r.ds.ExtraReferences...)
	for i, u := range urls {
		res, err := o.registrar.Register(ctx, u)
		if errors.Is(err, reference.ErrInvalidURL) {
			return &ConfigError{Dataset: r.ds.Name, Err: err}
		}
		if err != nil {
			return err
		}
		if res.Created {
			r.summary.ReferencesCreated++
		}
		for _, w := range res.Warnings {
			r.summary.warn("%s", w)
		}
		if i == 0 {
			r.ref = res.Reference
			r.summary.Reference = res.Reference.Short()
			r.summary.ReferenceURL = res.Reference.ADSURL
		}
	}
	return nil
}

func (o *Orchestrator) parseSource(ctx context.Context, r *run) error {
	for i := range r.ds.Tables {
		t := &r.ds.Tables[i]
		records, err := o.parseFile(ctx, r, t.Source, t.Layout)
		if err != nil {
			return err
		}
		r.tables = append(r.tables, parsedTable{table: t, records: records})
	}

	for i := range r.ds.Profiles {
		set := &r.ds.Profiles[i]
		if set.Source != "" {
			if err := o.parseProfileTable(ctx, r, set); err != nil {
				return err
			}
			continue
		}
		paths, err := o.opener.Glob(set.Glob)
		if err != nil {
			return &ConfigError{Dataset: r.ds.Name, Err: err}
		}
		if len(paths) == 0 {
			r.summary.warn("profile glob %s matched no files", set.Glob)
			r.log.Warn("profile glob matched no files", zap.String("glob", set.Glob))
			continue
		}
		for _, path := range paths {
			designation, err := profileDesignation(set, path)
			if err != nil {
				r.summary.warn("%v", err)
				r.log.Warn("skipping profile file", zap.String("source", path), zap.Error(err))
				continue
			}
			records, err := o.parseFile(ctx, r, path, set.Layout)
			if err != nil {
				return err
			}
			records = o.exclude(r, set, designation, records)
			r.profiles = append(r.profiles, parsedProfile{set: set, path: path, designation: designation, records: records})
		}
	}
	return nil
}

// parseProfileTable reads a multi-object profile table and splits it into
// one profile per object named in the set's name column.
func (o *Orchestrator) parseProfileTable(ctx context.Context, r *run, set *ProfileSet) error {
	records, err := o.parseFile(ctx, r, set.Source, set.Layout)
	if err != nil {
		return err
	}
	groups, unnamed := groupProfiles(set, records)
	for _, rec := range unnamed {
		r.summary.RowsSkipped++
		r.log.Warn("skipping row without a name",
			zap.String("source", set.Source),
			zap.Int("line", rec.Line))
	}
	for _, g := range groups {
		records := o.exclude(r, set, g.designation, g.records)
		r.profiles = append(r.profiles, parsedProfile{set: set, path: set.Source, designation: g.designation, records: records})
	}
	r.log.Debug("profile table grouped",
		zap.String("source", set.Source),
		zap.Int("objects", len(groups)))
	return nil
}

func (o *Orchestrator) exclude(r *run, set *ProfileSet, designation string, records []parser.Record) []parser.Record {
	kept, n := excludeRows(set, o.opts.Canonicalizer, designation, records)
	if n > 0 {
		r.summary.RowsExcluded += n
		r.log.Info("profile rows excluded",
			zap.String("object", designation),
			zap.Int("rows", n))
	}
	return kept
}

// parseFile reads every record of one source. Row errors are logged and
// counted; anything else is a configuration error.
func (o *Orchestrator) parseFile(ctx context.Context, r *run, ref string, layout parser.Layout) ([]parser.Record, error) {
	rc, err := o.opener.Open(ctx, ref)
	if err != nil {
		return nil, &ConfigError{Dataset: r.ds.Name, Err: err}
	}
	defer rc.Close()

	digest := source.NewDigest()
	rd, err := parser.NewReader(digest.Tee(rc), layout)
	if err != nil {
		return nil, &ConfigError{Dataset: r.ds.Name, Err: fmt.Errorf("%s: %w", ref, err)}
	}

	sum := SourceSummary{Source: ref}
	var records []parser.Record
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *parser.RowError
		if errors.As(err, &rowErr) {
			sum.RowsSkipped++
			r.log.Warn("skipping row",
				zap.String("source", ref),
				zap.Int("line", rowErr.Line),
				zap.String("column", rowErr.Column),
				zap.Error(rowErr.Err))
			continue
		}
		if err != nil {
			return nil, &ConfigError{Dataset: r.ds.Name, Err: fmt.Errorf("%s: %w", ref, err)}
		}
		records = append(records, rec)
	}
	sum.RowsParsed = len(records)
	sum.Digest = digest.Sum()

	r.summary.Sources = append(r.summary.Sources, sum)
	r.summary.RowsParsed += sum.RowsParsed
	r.summary.RowsSkipped += sum.RowsSkipped
	r.log.Info("source parsed",
		zap.String("source", ref),
		zap.Int("rows", sum.RowsParsed),
		zap.Int("skipped", sum.RowsSkipped),
		zap.String("digest", sum.Digest))
	return records, nil
}

func (o *Orchestrator) resolveIdentities(ctx context.Context, r *run) error {
	objects, err := o.store.ListAstroObjects(ctx)
	if err != nil {
		return err
	}
	r.names = resolve.Build(objects, o.opts.Canonicalizer, r.log)
	if r.ds.OnMiss == MissPrompt {
		threshold := r.ds.FuzzyThreshold
		if threshold == 0 {
			threshold = o.opts.FuzzyThreshold
		}
		r.fuzzy = resolve.NewFuzzyMatcher(r.names, threshold)
	}
	r.log.Debug("name map built", zap.Int("objects", len(objects)), zap.Int("variants", r.names.Len()))

	for _, pt := range r.tables {
		for _, rec := range pt.records {
			designation := names.Clean(rec.String(pt.table.NameColumn))
			if designation == "" {
				r.summary.RowsSkipped++
				r.log.Warn("skipping row without a name",
					zap.String("source", pt.table.Source),
					zap.Int("line", rec.Line))
				continue
			}
			var altname string
			if pt.table.AltNameColumn != "" {
				altname = names.Clean(rec.String(pt.table.AltNameColumn))
			}

			id, ok, err := o.identify(ctx, r, designation, altname, pt.table.CanonicalNames, pt.table.Source, rec.Line)
			if err != nil {
				return err
			}
			if ok {
				r.rows = append(r.rows, resolvedRow{table: pt.table, rec: rec, object: id})
			}
		}
	}

	for _, pp := range r.profiles {
		line := 0
		if pp.set.Source != "" && len(pp.records) > 0 {
			line = pp.records[0].Line
		}
		id, ok, err := o.identify(ctx, r, pp.designation, "", true, pp.path, line)
		if err != nil {
			return err
		}
		if ok {
			r.curves = append(r.curves, resolvedProfile{parsedProfile: pp, object: id})
		}
	}
	return nil
}

// identify maps designation to an object id, applying the dataset's miss
// policy when it is unknown. ok is false when the row is to be dropped.
func (o *Orchestrator) identify(ctx context.Context, r *run, designation, altname string, canonical bool, src string, line int) (catalogue.ObjectID, bool, error) {
	if id, ok := r.names.Resolve(designation); ok {
		r.summary.ObjectsResolved++
		return id, true, o.classify(ctx, r, id)
	}
	if r.declined[designation] {
		r.summary.ObjectsSkipped++
		return 0, false, nil
	}

	unresolved := func(err error) *UnresolvedError {
		return &UnresolvedError{Dataset: r.ds.Name, Designation: designation, Source: src, Line: line, Err: err}
	}

	switch r.ds.OnMiss {
	case MissSkip:
		r.summary.ObjectsSkipped++
		r.summary.warn("skipped unknown object %q (%s:%d)", designation, src, line)
		r.log.Warn("skipping unknown object", zap.String("designation", designation), zap.String("source", src), zap.Int("line", line))
		return 0, false, nil

	case MissAbort:
		return 0, false, unresolved(nil)

	case MissPrompt:
		suggestion := r.fuzzy.Suggest(designation)
		id, accepted, err := resolve.Confirm(ctx, o.opts.Prompter, suggestion)
		if err != nil {
			return 0, false, unresolved(err)
		}
		if accepted {
			r.names.Alias(designation, id)
			r.summary.FuzzyAccepted++
			r.summary.ObjectsResolved++
			r.log.Info("operator accepted fuzzy match",
				zap.String("designation", designation),
				zap.String("candidate", suggestion.Candidate),
				zap.Int("score", suggestion.Score))
			return id, true, o.classify(ctx, r, id)
		}
		create, err := o.opts.Prompter.Confirm(ctx, fmt.Sprintf("Create new object %q?", designation))
		if err != nil {
			return 0, false, unresolved(err)
		}
		if !create {
			r.declined[designation] = true
			r.summary.ObjectsSkipped++
			r.summary.warn("operator declined to create %q (%s:%d)", designation, src, line)
			return 0, false, nil
		}
	}

	name := designation
	if canonical {
		name = o.opts.Canonicalizer.Canonical(designation)
	}
	obj, created, err := o.store.GetOrCreateAstroObject(ctx, name, altname)
	if err != nil {
		return 0, false, err
	}
	if created {
		r.summary.ObjectsCreated++
		r.log.Info("object created", zap.String("name", obj.Name), zap.String("source", src), zap.Int("line", line))
	} else {
		r.summary.ObjectsResolved++
	}
	r.names.Register(obj)
	return obj.ID, true, o.classify(ctx, r, obj.ID)
}

func (o *Orchestrator) classify(ctx context.Context, r *run, id catalogue.ObjectID) error {
	if r.classification == 0 || r.classified[id] {
		return nil
	}
	if _, err := o.store.AddClassification(ctx, id, r.classification); err != nil {
		return err
	}
	r.classified[id] = true
	return nil
}

func (o *Orchestrator) upsertFacts(ctx context.Context, r *run) error {
	type fact struct {
		object catalogue.AstroObject
		param  catalogue.Parameter
		obs    catalogue.Observation
	}

	var facts []fact
	for _, row := range r.rows {
		obj, _ := r.names.Object(row.object)
		for _, m := range row.table.Observations {
			value, ok := row.rec.Float(m.Column)
			if !ok {
				r.summary.ValuesMissing++
				continue
			}
			param, ok := r.params.Get(m.Parameter)
			if !ok {
				return configErrorf(r.ds.Name, "parameter %q was not prepared", m.Parameter)
			}
			up, down := sigmas(row.rec, m)
			obs := catalogue.Observation{
				ObjectID:    obj.ID,
				ParameterID: param.ID,
				ReferenceID: r.ref.ID,
				Value:       value,
				SigmaUp:     up,
				SigmaDown:   down,
			}
			if err := upsert.Validate(obs); err != nil {
				r.summary.warn("%s line %d: %s: %v", row.table.Source, row.rec.Line, m.Column, err)
				r.log.Warn("skipping value", zap.String("source", row.table.Source), zap.Int("line", row.rec.Line), zap.Error(err))
				continue
			}
			facts = append(facts, fact{object: obj, param: param, obs: obs})
		}
	}

	if r.ds.ReplaceObservations {
		batch := make([]catalogue.Observation, len(facts))
		for i, f := range facts {
			batch[i] = f.obs
		}
		unique, err := o.engine.Batch(batch)
		if err != nil {
			return err
		}
		deleted, created, err := o.store.ReplaceObservations(ctx, r.ref.ID, unique)
		if err != nil {
			return err
		}
		r.summary.ObservationsDeleted = deleted
		r.summary.ObservationsCreated = created
		r.summary.ObservationsExisting = int64(len(batch)) - created
		r.log.Info("observations replaced",
			zap.Int64("reference", r.ref.ID),
			zap.Int64("deleted", deleted),
			zap.Int64("created", created))
	} else {
		for _, f := range facts {
			_, created, err := o.engine.Upsert(ctx, f.object, f.param, r.ref, f.obs.Value, f.obs.SigmaUp, f.obs.SigmaDown)
			if err != nil {
				return err
			}
			if created {
				r.summary.ObservationsCreated++
			} else {
				r.summary.ObservationsExisting++
			}
		}
	}

	return o.replaceProfiles(ctx, r)
}

// sigmas picks the uncertainty columns of m. A LaTeX column carrying its
// own "^{+a}_{-b}" or "\pm" uncertainty is used when none is mapped.
func sigmas(rec parser.Record, m ObservationMap) (up, down *float64) {
	upCol, downCol := m.SigmaUp, m.SigmaDown
	if m.Sigma != "" {
		if upCol == "" {
			upCol = m.Sigma
		}
		if downCol == "" {
			downCol = m.Sigma
		}
	}
	if upCol == "" && downCol == "" && rec.Has(m.Column+"_up") {
		upCol, downCol = m.Column+"_up", m.Column+"_down"
	}
	if v, ok := rec.Float(upCol); ok {
		up = catalogue.Float(v)
	}
	if v, ok := rec.Float(downCol); ok {
		down = catalogue.Float(v)
	}
	return up, down
}

// replaceProfiles swaps the reference's profiles for the ones read in
// this run, in one transaction. Datasets without profile sets leave
// profiles alone.
func (o *Orchestrator) replaceProfiles(ctx context.Context, r *run) error {
	if len(r.ds.Profiles) == 0 {
		return nil
	}

	var profiles []catalogue.Profile
	for _, c := range r.curves {
		p := o.buildProfile(r, c)
		if len(p.X) == 0 {
			r.summary.warn("profile %s has no complete points", c.label())
			continue
		}
		profiles = append(profiles, p)
	}
	deleted, err := o.store.ReplaceProfiles(ctx, r.ref.ID, profiles)
	if err != nil {
		return err
	}
	r.summary.ProfilesDeleted = deleted
	r.summary.ProfilesCreated = int64(len(profiles))
	return nil
}

func (o *Orchestrator) buildProfile(r *run, c resolvedProfile) catalogue.Profile {
	set := c.set
	p := catalogue.Profile{
		ObjectID:     c.object,
		ReferenceID:  r.ref.ID,
		Name:         set.Name,
		XDescription: set.XDescription,
		YDescription: set.YDescription,
	}
	upCol, downCol := set.YSigmaUp, set.YSigmaDown
	if set.YSigma != "" {
		if upCol == "" {
			upCol = set.YSigma
		}
		if downCol == "" {
			downCol = set.YSigma
		}
	}

	for _, rec := range c.records {
		x, okX := rec.Float(set.X)
		y, okY := rec.Float(set.Y)
		if !okX || !okY {
			r.summary.ValuesMissing++
			continue
		}
		var up, down float64
		if upCol != "" {
			var ok bool
			if up, ok = rec.Float(upCol); !ok {
				r.summary.ValuesMissing++
				continue
			}
		}
		if downCol != "" {
			var ok bool
			if down, ok = rec.Float(downCol); !ok {
				r.summary.ValuesMissing++
				continue
			}
		}
		if !finite(x, y, up, down) {
			r.summary.warn("%s line %d: non-finite profile point dropped", c.label(), rec.Line)
			continue
		}
		p.X = append(p.X, x)
		p.Y = append(p.Y, y)
		if upCol != "" {
			p.YSigmaUp = append(p.YSigmaUp, up)
		}
		if downCol != "" {
			p.YSigmaDown = append(p.YSigmaDown, down)
		}
	}
	return p
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// reportSummary finishes the run whatever happened before it: the
// summary is completed, logged, observed and recorded.
func (o *Orchestrator) reportSummary(ctx context.Context, r *run) {
	s := r.summary
	s.FinishedAt = o.opts.Now()
	s.Status = StatusSucceeded
	if s.Error != "" {
		s.Status = StatusFailed
	}

	fields := []zap.Field{
		zap.String("status", s.Status),
		zap.Int("rows_parsed", s.RowsParsed),
		zap.Int("rows_skipped", s.RowsSkipped),
		zap.Int("objects_created", s.ObjectsCreated),
		zap.Int64("observations_created", s.ObservationsCreated),
		zap.Int("warnings", len(s.Warnings)),
		zap.Duration("duration", s.Duration()),
	}
	if s.Failed() {
		r.log.Error("dataset aborted", append(fields, zap.String("stage", string(s.Stage)), zap.String("error", s.Error))...)
	} else {
		r.log.Info("dataset ingested", fields...)
	}

	if o.opts.Observer != nil {
		o.opts.Observer.ObserveRun(s)
	}

	payload, err := json.Marshal(s)
	if err != nil {
		r.log.Error("encode run summary", zap.Error(err))
		return
	}
	if err := o.store.FinishRun(context.WithoutCancel(ctx), s.RunID, s.Status, string(payload), s.FinishedAt); err != nil {
		r.log.Error("record run", zap.Error(err))
	}
}
