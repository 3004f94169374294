package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/supaharris/shingest/internal/catalogue"
)

// GetOrCreateAstroObject returns the object named name, creating it with
// altname if it does not exist. An existing object's altname is never
// changed.
func (s *Store) GetOrCreateAstroObject(ctx context.Context, name, altname string) (catalogue.AstroObject, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return catalogue.AstroObject{}, false, fmt.Errorf("get or create astro object: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO astro_objects (name, altname)
		VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, altname)
	if err != nil {
		return catalogue.AstroObject{}, false, fmt.Errorf("get or create astro object: insert: %w", err)
	}

	created, err := insertedRow(result)
	if err != nil {
		return catalogue.AstroObject{}, false, fmt.Errorf("get or create astro object: %w", err)
	}

	obj := catalogue.AstroObject{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, altname FROM astro_objects WHERE name = ?
	`, name).Scan(&obj.ID, &obj.Name, &obj.AltName)
	if err != nil {
		return catalogue.AstroObject{}, false, fmt.Errorf("get or create astro object: select: %w", err)
	}

	if !created {
		obj.Classifications, err = classificationsFor(ctx, tx, obj.ID)
		if err != nil {
			return catalogue.AstroObject{}, false, fmt.Errorf("get or create astro object: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return catalogue.AstroObject{}, false, fmt.Errorf("get or create astro object: commit: %w", err)
	}
	return obj, created, nil
}

// GetOrCreateClassification returns the classification tag, creating it if needed.
func (s *Store) GetOrCreateClassification(ctx context.Context, name string) (catalogue.Classification, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return catalogue.Classification{}, false, fmt.Errorf("get or create classification: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO classifications (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name)
	if err != nil {
		return catalogue.Classification{}, false, fmt.Errorf("get or create classification: insert: %w", err)
	}
	created, err := insertedRow(result)
	if err != nil {
		return catalogue.Classification{}, false, fmt.Errorf("get or create classification: %w", err)
	}

	c := catalogue.Classification{}
	err = tx.QueryRowContext(ctx, `SELECT id, name FROM classifications WHERE name = ?`, name).Scan(&c.ID, &c.Name)
	if err != nil {
		return catalogue.Classification{}, false, fmt.Errorf("get or create classification: select: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return catalogue.Classification{}, false, fmt.Errorf("get or create classification: commit: %w", err)
	}
	return c, created, nil
}

// AddClassification tags an object. Adding a tag twice is a no-op.
// Returns true if the tag was newly added.
func (s *Store) AddClassification(ctx context.Context, id catalogue.ObjectID, classificationID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO astro_object_classifications (astro_object_id, classification_id)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, id, classificationID)
	if err != nil {
		return false, fmt.Errorf("add classification: %w", err)
	}
	added, err := insertedRow(result)
	if err != nil {
		return false, fmt.Errorf("add classification: %w", err)
	}
	return added, nil
}

// GetOrCreateParameter returns the parameter named p.Name, creating it from
// p if it does not exist. Existing definitions are never overwritten.
func (s *Store) GetOrCreateParameter(ctx context.Context, p catalogue.Parameter) (catalogue.Parameter, bool, error) {
	scale := p.Scale
	if scale == 0 {
		scale = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return catalogue.Parameter{}, false, fmt.Errorf("get or create parameter: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO parameters (name, description, unit, scale)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, p.Name, p.Description, p.Unit, scale)
	if err != nil {
		return catalogue.Parameter{}, false, fmt.Errorf("get or create parameter: insert: %w", err)
	}
	created, err := insertedRow(result)
	if err != nil {
		return catalogue.Parameter{}, false, fmt.Errorf("get or create parameter: %w", err)
	}

	out, err := scanParameter(tx.QueryRowContext(ctx, `
		SELECT id, name, description, unit, scale FROM parameters WHERE name = ?
	`, p.Name))
	if err != nil {
		return catalogue.Parameter{}, false, fmt.Errorf("get or create parameter: select: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return catalogue.Parameter{}, false, fmt.Errorf("get or create parameter: commit: %w", err)
	}
	return out, created, nil
}

// GetOrCreateReference returns the reference keyed by r.ADSURL, creating
// it from r if it does not exist. Callers normalize the URL first.
func (s *Store) GetOrCreateReference(ctx context.Context, r catalogue.Reference) (catalogue.Reference, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return catalogue.Reference{}, false, fmt.Errorf("get or create reference: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO bib_references
		(ads_url, bib_code, slug, first_author, authors, title, journal, doi, year, month, volume, pages)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ads_url) DO NOTHING
	`,
		r.ADSURL, r.BibCode, r.Slug, r.FirstAuthor, r.Authors, r.Title,
		r.Journal, r.DOI, r.Year, r.Month, r.Volume, r.Pages,
	)
	if err != nil {
		return catalogue.Reference{}, false, fmt.Errorf("get or create reference: insert: %w", err)
	}
	created, err := insertedRow(result)
	if err != nil {
		return catalogue.Reference{}, false, fmt.Errorf("get or create reference: %w", err)
	}

	out, err := scanReference(tx.QueryRowContext(ctx, selectReference+` WHERE ads_url = ?`, r.ADSURL))
	if err != nil {
		return catalogue.Reference{}, false, fmt.Errorf("get or create reference: select: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return catalogue.Reference{}, false, fmt.Errorf("get or create reference: commit: %w", err)
	}
	return out, created, nil
}

// GetOrCreateObservation ensures one observation exists for o's key.
// If one already exists it is returned unchanged, whatever o's value.
func (s *Store) GetOrCreateObservation(ctx context.Context, o catalogue.Observation) (catalogue.Observation, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return catalogue.Observation{}, false, fmt.Errorf("get or create observation: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO observations
		(astro_object_id, parameter_id, reference_id, value, sigma_up, sigma_down)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(astro_object_id, parameter_id, reference_id) DO NOTHING
	`, o.ObjectID, o.ParameterID, o.ReferenceID, o.Value, nullFloat(o.SigmaUp), nullFloat(o.SigmaDown))
	if err != nil {
		return catalogue.Observation{}, false, fmt.Errorf("get or create observation: insert: %w", err)
	}
	created, err := insertedRow(result)
	if err != nil {
		return catalogue.Observation{}, false, fmt.Errorf("get or create observation: %w", err)
	}

	out, err := scanObservation(tx.QueryRowContext(ctx, selectObservation+`
		WHERE astro_object_id = ? AND parameter_id = ? AND reference_id = ?
	`, o.ObjectID, o.ParameterID, o.ReferenceID))
	if err != nil {
		return catalogue.Observation{}, false, fmt.Errorf("get or create observation: select: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return catalogue.Observation{}, false, fmt.Errorf("get or create observation: commit: %w", err)
	}
	return out, created, nil
}

// CreateObservations bulk-inserts observations in one transaction.
// Rows whose key already exists are skipped. Returns the number inserted.
func (s *Store) CreateObservations(ctx context.Context, obs []catalogue.Observation) (int64, error) {
	if len(obs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("create observations: begin tx: %w", err)
	}
	defer tx.Rollback()

	inserted, err := insertObservations(ctx, tx, obs)
	if err != nil {
		return 0, fmt.Errorf("create observations: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create observations: commit: %w", err)
	}
	return inserted, nil
}

// ReplaceObservations deletes every observation of a reference and inserts
// obs in the same transaction. On error nothing changes.
func (s *Store) ReplaceObservations(ctx context.Context, referenceID int64, obs []catalogue.Observation) (deleted, created int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("replace observations: begin tx: %w", err)
	}
	defer tx.Rollback()

	if deleted, err = execCount(ctx, tx, `DELETE FROM observations WHERE reference_id = ?`, referenceID); err != nil {
		return 0, 0, fmt.Errorf("replace observations: delete: %w", err)
	}
	if created, err = insertObservations(ctx, tx, obs); err != nil {
		return 0, 0, fmt.Errorf("replace observations: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("replace observations: commit: %w", err)
	}
	return deleted, created, nil
}

func insertObservations(ctx context.Context, tx *sql.Tx, obs []catalogue.Observation) (int64, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations
		(astro_object_id, parameter_id, reference_id, value, sigma_up, sigma_down)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(astro_object_id, parameter_id, reference_id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, o := range obs {
		result, err := stmt.ExecContext(ctx, o.ObjectID, o.ParameterID, o.ReferenceID, o.Value, nullFloat(o.SigmaUp), nullFloat(o.SigmaDown))
		if err != nil {
			return 0, fmt.Errorf("insert: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}

// CreateProfiles bulk-inserts profiles in one transaction.
func (s *Store) CreateProfiles(ctx context.Context, profiles []catalogue.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create profiles: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertProfiles(ctx, tx, profiles); err != nil {
		return fmt.Errorf("create profiles: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create profiles: commit: %w", err)
	}
	return nil
}

// ReplaceProfiles deletes every profile of a reference and inserts
// profiles in the same transaction. On error nothing changes.
func (s *Store) ReplaceProfiles(ctx context.Context, referenceID int64, profiles []catalogue.Profile) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("replace profiles: begin tx: %w", err)
	}
	defer tx.Rollback()

	deleted, err := execCount(ctx, tx, `DELETE FROM profiles WHERE reference_id = ?`, referenceID)
	if err != nil {
		return 0, fmt.Errorf("replace profiles: delete: %w", err)
	}
	if err := insertProfiles(ctx, tx, profiles); err != nil {
		return 0, fmt.Errorf("replace profiles: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("replace profiles: commit: %w", err)
	}
	return deleted, nil
}

func insertProfiles(ctx context.Context, tx *sql.Tx, profiles []catalogue.Profile) error {
	for _, p := range profiles {
		cols, err := marshalProfileSeries(p)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO profiles
			(astro_object_id, reference_id, name, x, y, y_sigma_up, y_sigma_down, x_description, y_description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ObjectID, p.ReferenceID, p.Name, cols.x, cols.y, cols.up, cols.down, p.XDescription, p.YDescription)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execCount runs a statement and returns the number of rows it touched.
func execCount(ctx context.Context, db execer, query string, args ...any) (int64, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// insertedRow reports whether an ON CONFLICT DO NOTHING insert wrote a row.
func insertedRow(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
