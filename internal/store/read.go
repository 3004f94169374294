package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/supaharris/shingest/internal/catalogue"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const selectReference = `
	SELECT id, ads_url, bib_code, slug, first_author, authors, title, journal, doi, year, month, volume, pages
	FROM bib_references`

const selectObservation = `
	SELECT id, astro_object_id, parameter_id, reference_id, value, sigma_up, sigma_down
	FROM observations`

// ObservationFilter selects observations. Zero fields match everything.
type ObservationFilter struct {
	ObjectID    catalogue.ObjectID
	ParameterID int64
	ReferenceID int64
}

// GetAstroObject returns the object with the given id.
func (s *Store) GetAstroObject(ctx context.Context, id catalogue.ObjectID) (catalogue.AstroObject, error) {
	return s.getAstroObject(ctx, `WHERE id = ?`, id)
}

// FindAstroObject returns the object whose name is exactly name.
func (s *Store) FindAstroObject(ctx context.Context, name string) (catalogue.AstroObject, error) {
	return s.getAstroObject(ctx, `WHERE name = ?`, name)
}

func (s *Store) getAstroObject(ctx context.Context, where string, arg any) (catalogue.AstroObject, error) {
	obj := catalogue.AstroObject{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name, altname FROM astro_objects `+where, arg).
		Scan(&obj.ID, &obj.Name, &obj.AltName)
	if errors.Is(err, sql.ErrNoRows) {
		return catalogue.AstroObject{}, fmt.Errorf("get astro object %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return catalogue.AstroObject{}, fmt.Errorf("get astro object %v: %w", arg, err)
	}

	obj.Classifications, err = classificationsFor(ctx, s.db, obj.ID)
	if err != nil {
		return catalogue.AstroObject{}, fmt.Errorf("get astro object %v: %w", arg, err)
	}
	return obj, nil
}

// ListAstroObjects returns every object ordered by id, with classifications.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListAstroObjects(ctx context.Context) ([]catalogue.AstroObject, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, altname FROM astro_objects ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list astro objects: %w", err)
	}
	defer rows.Close()

	objects := []catalogue.AstroObject{}
	index := map[catalogue.ObjectID]int{}
	for rows.Next() {
		obj := catalogue.AstroObject{}
		if err := rows.Scan(&obj.ID, &obj.Name, &obj.AltName); err != nil {
			return nil, fmt.Errorf("list astro objects: scan: %w", err)
		}
		index[obj.ID] = len(objects)
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list astro objects: iterate: %w", err)
	}

	tags, err := s.db.QueryContext(ctx, `
		SELECT oc.astro_object_id, c.name
		FROM astro_object_classifications oc
		JOIN classifications c ON c.id = oc.classification_id
		ORDER BY oc.astro_object_id ASC, c.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list astro objects: classifications: %w", err)
	}
	defer tags.Close()

	for tags.Next() {
		var id catalogue.ObjectID
		var name string
		if err := tags.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("list astro objects: scan classification: %w", err)
		}
		if i, ok := index[id]; ok {
			objects[i].Classifications = append(objects[i].Classifications, name)
		}
	}
	if err := tags.Err(); err != nil {
		return nil, fmt.Errorf("list astro objects: iterate classifications: %w", err)
	}

	return objects, nil
}

// GetParameter returns the parameter named name.
func (s *Store) GetParameter(ctx context.Context, name string) (catalogue.Parameter, error) {
	p, err := scanParameter(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, unit, scale FROM parameters WHERE name = ?
	`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return catalogue.Parameter{}, fmt.Errorf("get parameter %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return catalogue.Parameter{}, fmt.Errorf("get parameter %q: %w", name, err)
	}
	return p, nil
}

// ListParameters returns every parameter ordered by id.
func (s *Store) ListParameters(ctx context.Context) ([]catalogue.Parameter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, unit, scale FROM parameters ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list parameters: %w", err)
	}
	defer rows.Close()

	params := []catalogue.Parameter{}
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, fmt.Errorf("list parameters: scan: %w", err)
		}
		params = append(params, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list parameters: iterate: %w", err)
	}
	return params, nil
}

// GetReference returns the reference keyed by the normalized URL.
func (s *Store) GetReference(ctx context.Context, adsURL string) (catalogue.Reference, error) {
	r, err := scanReference(s.db.QueryRowContext(ctx, selectReference+` WHERE ads_url = ?`, adsURL))
	if errors.Is(err, sql.ErrNoRows) {
		return catalogue.Reference{}, fmt.Errorf("get reference %q: %w", adsURL, ErrNotFound)
	}
	if err != nil {
		return catalogue.Reference{}, fmt.Errorf("get reference %q: %w", adsURL, err)
	}
	return r, nil
}

// FilterObservations returns matching observations ordered by id.
func (s *Store) FilterObservations(ctx context.Context, f ObservationFilter) ([]catalogue.Observation, error) {
	query := selectObservation + ` WHERE 1 = 1`
	var args []any
	if f.ObjectID != 0 {
		query += ` AND astro_object_id = ?`
		args = append(args, f.ObjectID)
	}
	if f.ParameterID != 0 {
		query += ` AND parameter_id = ?`
		args = append(args, f.ParameterID)
	}
	if f.ReferenceID != 0 {
		query += ` AND reference_id = ?`
		args = append(args, f.ReferenceID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter observations: %w", err)
	}
	defer rows.Close()

	obs := []catalogue.Observation{}
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("filter observations: scan: %w", err)
		}
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("filter observations: iterate: %w", err)
	}
	return obs, nil
}

// FilterProfiles returns the profiles attached to a reference ordered by id.
func (s *Store) FilterProfiles(ctx context.Context, referenceID int64) ([]catalogue.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, astro_object_id, reference_id, name, x, y, y_sigma_up, y_sigma_down, x_description, y_description
		FROM profiles WHERE reference_id = ? ORDER BY id ASC
	`, referenceID)
	if err != nil {
		return nil, fmt.Errorf("filter profiles: %w", err)
	}
	defer rows.Close()

	profiles := []catalogue.Profile{}
	for rows.Next() {
		p := catalogue.Profile{}
		var cols profileColumns
		err := rows.Scan(&p.ID, &p.ObjectID, &p.ReferenceID, &p.Name,
			&cols.x, &cols.y, &cols.up, &cols.down, &p.XDescription, &p.YDescription)
		if err != nil {
			return nil, fmt.Errorf("filter profiles: scan: %w", err)
		}
		if err := unmarshalProfileSeries(cols, &p); err != nil {
			return nil, fmt.Errorf("filter profiles: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("filter profiles: iterate: %w", err)
	}
	return profiles, nil
}

// Counts is a row count per catalogue table.
type Counts struct {
	AstroObjects int64 `json:"astro_objects"`
	Parameters   int64 `json:"parameters"`
	References   int64 `json:"references"`
	Observations int64 `json:"observations"`
	Profiles     int64 `json:"profiles"`
}

// Counts returns the number of rows in each catalogue table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	c := Counts{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM astro_objects),
			(SELECT COUNT(*) FROM parameters),
			(SELECT COUNT(*) FROM bib_references),
			(SELECT COUNT(*) FROM observations),
			(SELECT COUNT(*) FROM profiles)
	`).Scan(&c.AstroObjects, &c.Parameters, &c.References, &c.Observations, &c.Profiles)
	if err != nil {
		return Counts{}, fmt.Errorf("counts: %w", err)
	}
	return c, nil
}

func classificationsFor(ctx context.Context, q queryer, id catalogue.ObjectID) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.name
		FROM astro_object_classifications oc
		JOIN classifications c ON c.id = oc.classification_id
		WHERE oc.astro_object_id = ?
		ORDER BY c.name ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan classification: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func scanParameter(row scanner) (catalogue.Parameter, error) {
	p := catalogue.Parameter{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Unit, &p.Scale)
	return p, err
}

func scanReference(row scanner) (catalogue.Reference, error) {
	r := catalogue.Reference{}
	err := row.Scan(&r.ID, &r.ADSURL, &r.BibCode, &r.Slug, &r.FirstAuthor, &r.Authors,
		&r.Title, &r.Journal, &r.DOI, &r.Year, &r.Month, &r.Volume, &r.Pages)
	return r, err
}

func scanObservation(row scanner) (catalogue.Observation, error) {
	o := catalogue.Observation{}
	var up, down sql.NullFloat64
	err := row.Scan(&o.ID, &o.ObjectID, &o.ParameterID, &o.ReferenceID, &o.Value, &up, &down)
	if err != nil {
		return catalogue.Observation{}, err
	}
	if up.Valid {
		o.SigmaUp = catalogue.Float(up.Float64)
	}
	if down.Valid {
		o.SigmaDown = catalogue.Float(down.Float64)
	}
	return o, nil
}
