// Package gormstore is the PostgreSQL backend for the catalogue, built on
// GORM. It offers the same operations as package store with the same
// get-or-create semantics, so the ingestion core runs unchanged against
// either backend.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/supaharris/shingest/internal/catalogue"
	"github.com/supaharris/shingest/internal/store"
)

// Store is a GORM-backed catalogue store.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects through the given dialector (postgres.Open(dsn) in
// production) and migrates the schema.
func Open(dialector gorm.Dialector, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) migrate() error {
	m := s.db.Migrator()
	if m.HasTable(&observation{}) && !m.HasIndex(&observation{}, "idx_observations_key_unique") {
		var n int64
		err := s.db.Raw(`
			SELECT COUNT(*) FROM (
				SELECT 1 FROM observations
				GROUP BY astro_object_id, parameter_id, reference_id
				HAVING COUNT(*) > 1
			) AS dup
		`).Scan(&n).Error
		if err != nil {
			return fmt.Errorf("count duplicate observations: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %d observation keys have more than one row", store.ErrLegacyDuplicates, n)
		}
		s.logger.Info("adding observation key index to existing table")
	}

	return s.db.AutoMigrate(
		&astroObject{}, &classification{}, &parameter{}, &reference{},
		&observation{}, &profile{}, &ingestionRun{},
	)
}

// GetOrCreateAstroObject returns the object named name, creating it with
// altname if it does not exist.
func (s *Store) GetOrCreateAstroObject(ctx context.Context, name, altname string) (catalogue.AstroObject, bool, error) {
	var out astroObject
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&astroObject{Name: name, AltName: altname})
		if res.Error != nil {
			return fmt.Errorf("insert: %w", res.Error)
		}
		created = res.RowsAffected > 0
		if err := tx.Preload("Classifications").Where("name = ?", name).First(&out).Error; err != nil {
			return fmt.Errorf("select: %w", err)
		}
		return nil
	})
	if err != nil {
		return catalogue.AstroObject{}, false, fmt.Errorf("get or create astro object: %w", err)
	}
	return out.toDomain(), created, nil
}

// GetOrCreateClassification returns the classification tag, creating it if needed.
func (s *Store) GetOrCreateClassification(ctx context.Context, name string) (catalogue.Classification, bool, error) {
	var out classification
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&classification{Name: name})
		if res.Error != nil {
			return fmt.Errorf("insert: %w", res.Error)
		}
		created = res.RowsAffected > 0
		return tx.Where("name = ?", name).First(&out).Error
	})
	if err != nil {
		return catalogue.Classification{}, false, fmt.Errorf("get or create classification: %w", err)
	}
	return catalogue.Classification{ID: out.ID, Name: out.Name}, created, nil
}

// AddClassification tags an object. Returns true if the tag was newly added.
func (s *Store) AddClassification(ctx context.Context, id catalogue.ObjectID, classificationID int64) (bool, error) {
	res := s.db.WithContext(ctx).Exec(`
		INSERT INTO astro_object_classifications (astro_object_id, classification_id)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, int64(id), classificationID)
	if res.Error != nil {
		return false, fmt.Errorf("add classification: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetOrCreateParameter returns the parameter named p.Name, creating it from p.
func (s *Store) GetOrCreateParameter(ctx context.Context, p catalogue.Parameter) (catalogue.Parameter, bool, error) {
	scale := p.Scale
	if scale == 0 {
		scale = 1
	}

	var out parameter
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&parameter{
			Name: p.Name, Description: p.Description, Unit: p.Unit, Scale: scale,
		})
		if res.Error != nil {
			return fmt.Errorf("insert: %w", res.Error)
		}
		created = res.RowsAffected > 0
		return tx.Where("name = ?", p.Name).First(&out).Error
	})
	if err != nil {
		return catalogue.Parameter{}, false, fmt.Errorf("get or create parameter: %w", err)
	}
	return out.toDomain(), created, nil
}

// GetOrCreateReference returns the reference keyed by r.ADSURL, creating it from r.
func (s *Store) GetOrCreateReference(ctx context.Context, r catalogue.Reference) (catalogue.Reference, bool, error) {
	var out reference
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := fromReference(r)
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
		if res.Error != nil {
			return fmt.Errorf("insert: %w", res.Error)
		}
		created = res.RowsAffected > 0
		return tx.Where("ads_url = ?", r.ADSURL).First(&out).Error
	})
	if err != nil {
		return catalogue.Reference{}, false, fmt.Errorf("get or create reference: %w", err)
	}
	return out.toDomain(), created, nil
}

// GetOrCreateObservation ensures one observation exists for o's key and
// returns it unchanged if it already did.
func (s *Store) GetOrCreateObservation(ctx context.Context, o catalogue.Observation) (catalogue.Observation, bool, error) {
	var out observation
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := fromObservation(o)
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
		if res.Error != nil {
			return fmt.Errorf("insert: %w", res.Error)
		}
		created = res.RowsAffected > 0
		return tx.Where("astro_object_id = ? AND parameter_id = ? AND reference_id = ?",
			int64(o.ObjectID), o.ParameterID, o.ReferenceID).First(&out).Error
	})
	if err != nil {
		return catalogue.Observation{}, false, fmt.Errorf("get or create observation: %w", err)
	}
	return out.toDomain(), created, nil
}

// CreateObservations bulk-inserts observations, skipping existing keys.
func (s *Store) CreateObservations(ctx context.Context, obs []catalogue.Observation) (int64, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	var inserted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inserted, err = insertObservations(tx, obs)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create observations: %w", err)
	}
	return inserted, nil
}

// ReplaceObservations deletes every observation of a reference and inserts
// obs in the same transaction.
func (s *Store) ReplaceObservations(ctx context.Context, referenceID int64, obs []catalogue.Observation) (deleted, created int64, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("reference_id = ?", referenceID).Delete(&observation{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		created, err = insertObservations(tx, obs)
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("replace observations: %w", err)
	}
	return deleted, created, nil
}

// insertObservations writes one statement per row so that duplicate keys
// inside the batch are counted the same way as in the SQLite store.
func insertObservations(tx *gorm.DB, obs []catalogue.Observation) (int64, error) {
	var inserted int64
	for _, o := range obs {
		row := fromObservation(o)
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return 0, res.Error
		}
		inserted += res.RowsAffected
	}
	return inserted, nil
}

// CreateProfiles bulk-inserts profiles.
func (s *Store) CreateProfiles(ctx context.Context, profiles []catalogue.Profile) error {
	rows, err := profileRows(profiles)
	if err != nil {
		return fmt.Errorf("create profiles: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("create profiles: %w", err)
	}
	return nil
}

// ReplaceProfiles deletes every profile of a reference and inserts
// profiles in the same transaction.
func (s *Store) ReplaceProfiles(ctx context.Context, referenceID int64, profiles []catalogue.Profile) (int64, error) {
	rows, err := profileRows(profiles)
	if err != nil {
		return 0, fmt.Errorf("replace profiles: %w", err)
	}
	var deleted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("reference_id = ?", referenceID).Delete(&profile{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return 0, fmt.Errorf("replace profiles: %w", err)
	}
	return deleted, nil
}

func profileRows(profiles []catalogue.Profile) ([]profile, error) {
	rows := make([]profile, len(profiles))
	for i, p := range profiles {
		if len(p.X) != len(p.Y) {
			return nil, fmt.Errorf("%q: x has %d points, y has %d", p.Name, len(p.X), len(p.Y))
		}
		rows[i] = profile{
			AstroObjectID: int64(p.ObjectID), ReferenceID: p.ReferenceID, Name: p.Name,
			X: p.X, Y: p.Y, YSigmaUp: p.YSigmaUp, YSigmaDown: p.YSigmaDown,
			XDescription: p.XDescription, YDescription: p.YDescription,
		}
	}
	return rows, nil
}

// GetAstroObject returns the object with the given id.
func (s *Store) GetAstroObject(ctx context.Context, id catalogue.ObjectID) (catalogue.AstroObject, error) {
	var m astroObject
	err := s.db.WithContext(ctx).Preload("Classifications").First(&m, int64(id)).Error
	if err != nil {
		return catalogue.AstroObject{}, fmt.Errorf("get astro object %d: %w", id, notFound(err))
	}
	return m.toDomain(), nil
}

// FindAstroObject returns the object whose name is exactly name.
func (s *Store) FindAstroObject(ctx context.Context, name string) (catalogue.AstroObject, error) {
	var m astroObject
	err := s.db.WithContext(ctx).Preload("Classifications").Where("name = ?", name).First(&m).Error
	if err != nil {
		return catalogue.AstroObject{}, fmt.Errorf("get astro object %q: %w", name, notFound(err))
	}
	return m.toDomain(), nil
}

// ListAstroObjects returns every object ordered by id.
func (s *Store) ListAstroObjects(ctx context.Context) ([]catalogue.AstroObject, error) {
	var rows []astroObject
	err := s.db.WithContext(ctx).Preload("Classifications", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list astro objects: %w", err)
	}
	out := make([]catalogue.AstroObject, len(rows))
	for i, m := range rows {
		out[i] = m.toDomain()
	}
	return out, nil
}

// GetParameter returns the parameter named name.
func (s *Store) GetParameter(ctx context.Context, name string) (catalogue.Parameter, error) {
	var m parameter
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		return catalogue.Parameter{}, fmt.Errorf("get parameter %q: %w", name, notFound(err))
	}
	return m.toDomain(), nil
}

// ListParameters returns every parameter ordered by id.
func (s *Store) ListParameters(ctx context.Context) ([]catalogue.Parameter, error) {
	var rows []parameter
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list parameters: %w", err)
	}
	out := make([]catalogue.Parameter, len(rows))
	for i, m := range rows {
		out[i] = m.toDomain()
	}
	return out, nil
}

// GetReference returns the reference keyed by the normalized URL.
func (s *Store) GetReference(ctx context.Context, adsURL string) (catalogue.Reference, error) {
	var m reference
	if err := s.db.WithContext(ctx).Where("ads_url = ?", adsURL).First(&m).Error; err != nil {
		return catalogue.Reference{}, fmt.Errorf("get reference %q: %w", adsURL, notFound(err))
	}
	return m.toDomain(), nil
}

// FilterObservations returns matching observations ordered by id.
func (s *Store) FilterObservations(ctx context.Context, f store.ObservationFilter) ([]catalogue.Observation, error) {
	q := s.db.WithContext(ctx).Model(&observation{})
	if f.ObjectID != 0 {
		q = q.Where("astro_object_id = ?", int64(f.ObjectID))
	}
	if f.ParameterID != 0 {
		q = q.Where("parameter_id = ?", f.ParameterID)
	}
	if f.ReferenceID != 0 {
		q = q.Where("reference_id = ?", f.ReferenceID)
	}

	var rows []observation
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("filter observations: %w", err)
	}
	out := make([]catalogue.Observation, len(rows))
	for i, m := range rows {
		out[i] = m.toDomain()
	}
	return out, nil
}

// FilterProfiles returns the profiles attached to a reference ordered by id.
func (s *Store) FilterProfiles(ctx context.Context, referenceID int64) ([]catalogue.Profile, error) {
	var rows []profile
	if err := s.db.WithContext(ctx).Where("reference_id = ?", referenceID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("filter profiles: %w", err)
	}
	out := make([]catalogue.Profile, len(rows))
	for i, m := range rows {
		out[i] = m.toDomain()
	}
	return out, nil
}

// Counts returns the number of rows in each catalogue table.
func (s *Store) Counts(ctx context.Context) (store.Counts, error) {
	c := store.Counts{}
	db := s.db.WithContext(ctx)
	counts := []struct {
		model any
		dst   *int64
	}{
		{&astroObject{}, &c.AstroObjects},
		{&parameter{}, &c.Parameters},
		{&reference{}, &c.References},
		{&observation{}, &c.Observations},
		{&profile{}, &c.Profiles},
	}
	for _, q := range counts {
		if err := db.Model(q.model).Count(q.dst).Error; err != nil {
			return store.Counts{}, fmt.Errorf("counts: %w", err)
		}
	}
	return c, nil
}

// BeginRun records the start of an ingestion run.
func (s *Store) BeginRun(ctx context.Context, id, dataset string, startedAt time.Time) error {
	run := ingestionRun{ID: id, Dataset: dataset, Status: store.RunRunning, StartedAt: startedAt.UTC(), Summary: "{}"}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of an ingestion run.
func (s *Store) FinishRun(ctx context.Context, id, status, summary string, finishedAt time.Time) error {
	finished := finishedAt.UTC()
	res := s.db.WithContext(ctx).Model(&ingestionRun{}).Where("id = ?", id).Updates(map[string]any{
		"status": status, "summary": summary, "finished_at": &finished,
	})
	if res.Error != nil {
		return fmt.Errorf("finish run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finish run %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// GetRun returns a recorded run.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	var m ingestionRun
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return store.Run{}, fmt.Errorf("get run %s: %w", id, notFound(err))
	}
	return store.Run{
		ID: m.ID, Dataset: m.Dataset, Status: m.Status,
		StartedAt: m.StartedAt, FinishedAt: m.FinishedAt, Summary: m.Summary,
	}, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}
