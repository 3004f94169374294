package gormstore

import (
	"time"

	"github.com/supaharris/shingest/internal/catalogue"
)

type astroObject struct {
	ID              int64            `gorm:"primaryKey"`
	Name            string           `gorm:"uniqueIndex;not null"`
	AltName         string           `gorm:"column:altname;not null;default:''"`
	Classifications []classification `gorm:"many2many:astro_object_classifications;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time
}

func (astroObject) TableName() string { return "astro_objects" }

func (m astroObject) toDomain() catalogue.AstroObject {
	obj := catalogue.AstroObject{ID: catalogue.ObjectID(m.ID), Name: m.Name, AltName: m.AltName}
	for _, c := range m.Classifications {
		obj.Classifications = append(obj.Classifications, c.Name)
	}
	return obj
}

type classification struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

func (classification) TableName() string { return "classifications" }

type parameter struct {
	ID          int64   `gorm:"primaryKey"`
	Name        string  `gorm:"uniqueIndex;not null"`
	Description string  `gorm:"not null;default:''"`
	Unit        string  `gorm:"not null;default:''"`
	Scale       float64 `gorm:"not null;default:1"`
}

func (parameter) TableName() string { return "parameters" }

func (m parameter) toDomain() catalogue.Parameter {
	return catalogue.Parameter{ID: m.ID, Name: m.Name, Description: m.Description, Unit: m.Unit, Scale: m.Scale}
}

type reference struct {
	ID          int64  `gorm:"primaryKey"`
	ADSURL      string `gorm:"column:ads_url;uniqueIndex;not null"`
	BibCode     string `gorm:"not null;default:''"`
	Slug        string `gorm:"not null;default:''"`
	FirstAuthor string `gorm:"size:128;not null;default:''"`
	Authors     string `gorm:"size:1024;not null;default:''"`
	Title       string `gorm:"size:256;not null;default:''"`
	Journal     string `gorm:"size:64;not null;default:''"`
	DOI         string `gorm:"column:doi;size:64;not null;default:''"`
	Year        int    `gorm:"not null;default:0"`
	Month       int    `gorm:"not null;default:0"`
	Volume      string `gorm:"size:8;not null;default:''"`
	Pages       string `gorm:"size:16;not null;default:''"`
}

func (reference) TableName() string { return "bib_references" }

func fromReference(r catalogue.Reference) reference {
	return reference{
		ADSURL: r.ADSURL, BibCode: r.BibCode, Slug: r.Slug,
		FirstAuthor: r.FirstAuthor, Authors: r.Authors, Title: r.Title,
		Journal: r.Journal, DOI: r.DOI, Year: r.Year, Month: r.Month,
		Volume: r.Volume, Pages: r.Pages,
	}
}

func (m reference) toDomain() catalogue.Reference {
	return catalogue.Reference{
		ID: m.ID, ADSURL: m.ADSURL, BibCode: m.BibCode, Slug: m.Slug,
		FirstAuthor: m.FirstAuthor, Authors: m.Authors, Title: m.Title,
		Journal: m.Journal, DOI: m.DOI, Year: m.Year, Month: m.Month,
		Volume: m.Volume, Pages: m.Pages,
	}
}

type observation struct {
	ID            int64    `gorm:"primaryKey"`
	AstroObjectID int64    `gorm:"not null;uniqueIndex:idx_observations_key_unique,priority:1"`
	ParameterID   int64    `gorm:"not null;uniqueIndex:idx_observations_key_unique,priority:2"`
	ReferenceID   int64    `gorm:"not null;index;uniqueIndex:idx_observations_key_unique,priority:3"`
	Value         float64  `gorm:"not null"`
	SigmaUp       *float64
	SigmaDown     *float64
}

func (observation) TableName() string { return "observations" }

func fromObservation(o catalogue.Observation) observation {
	return observation{
		AstroObjectID: int64(o.ObjectID), ParameterID: o.ParameterID, ReferenceID: o.ReferenceID,
		Value: o.Value, SigmaUp: o.SigmaUp, SigmaDown: o.SigmaDown,
	}
}

func (m observation) toDomain() catalogue.Observation {
	return catalogue.Observation{
		ID: m.ID, ObjectID: catalogue.ObjectID(m.AstroObjectID), ParameterID: m.ParameterID,
		ReferenceID: m.ReferenceID, Value: m.Value, SigmaUp: m.SigmaUp, SigmaDown: m.SigmaDown,
	}
}

type profile struct {
	ID            int64     `gorm:"primaryKey"`
	AstroObjectID int64     `gorm:"not null"`
	ReferenceID   int64     `gorm:"not null;index"`
	Name          string    `gorm:"not null;default:''"`
	X             []float64 `gorm:"serializer:json;not null"`
	Y             []float64 `gorm:"serializer:json;not null"`
	YSigmaUp      []float64 `gorm:"serializer:json"`
	YSigmaDown    []float64 `gorm:"serializer:json"`
	XDescription  string    `gorm:"not null;default:''"`
	YDescription  string    `gorm:"not null;default:''"`
}

func (profile) TableName() string { return "profiles" }

func (m profile) toDomain() catalogue.Profile {
	p := catalogue.Profile{
		ID: m.ID, ObjectID: catalogue.ObjectID(m.AstroObjectID), ReferenceID: m.ReferenceID,
		Name: m.Name, X: m.X, Y: m.Y, YSigmaUp: m.YSigmaUp, YSigmaDown: m.YSigmaDown,
		XDescription: m.XDescription, YDescription: m.YDescription,
	}
	if len(p.YSigmaUp) == 0 {
		p.YSigmaUp = nil
	}
	if len(p.YSigmaDown) == 0 {
		p.YSigmaDown = nil
	}
	return p
}

type ingestionRun struct {
	ID         string    `gorm:"primaryKey"`
	Dataset    string    `gorm:"not null"`
	Status     string    `gorm:"not null"`
	StartedAt  time.Time `gorm:"not null"`
	FinishedAt *time.Time
	Summary    string `gorm:"not null;default:'{}'"`
}

func (ingestionRun) TableName() string { return "ingestion_runs" }
