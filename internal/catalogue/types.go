package catalogue

import (
	"strconv"
	"strings"
)

// ObjectID identifies a stored AstroObject.
type ObjectID int64

// AstroObject is one astronomical entity, typically a globular cluster.
type AstroObject struct {
	ID              ObjectID
	Name            string
	AltName         string
	Classifications []string
}

// Names returns the name and, when set, the altname.
func (o AstroObject) Names() []string {
	if o.AltName == "" || o.AltName == o.Name {
		return []string{o.Name}
	}
	return []string{o.Name, o.AltName}
}

// HasClassification reports whether the object carries the tag.
func (o AstroObject) HasClassification(name string) bool {
	for _, c := range o.Classifications {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// Classification is a tag such as "Globular Cluster".
type Classification struct {
	ID   int64
	Name string
}

// Parameter is a named physical quantity.
//
// Scale is the factor a stored value must be multiplied by for display;
// ingestion stores values as published.
type Parameter struct {
	ID          int64
	Name        string
	Description string
	Unit        string
	Scale       float64
}

// Reference is a bibliographic citation keyed by its normalized URL.
// Metadata fields may be empty when scraping failed.
type Reference struct {
	ID          int64
	ADSURL      string
	BibCode     string
	Slug        string
	FirstAuthor string
	Authors     string
	Title       string
	Journal     string
	DOI         string
	Year        int
	Month       int
	Volume      string
	Pages       string
}

// Short renders "Author (Year)" or the bib code when no metadata is known.
func (r Reference) Short() string {
	if r.FirstAuthor == "" || r.Year == 0 {
		return r.BibCode
	}
	return r.FirstAuthor + " (" + strconv.Itoa(r.Year) + ")"
}

// Observation ties one object, one parameter and one reference to a value.
// SigmaUp and SigmaDown are nil when the source reports no uncertainty.
type Observation struct {
	ID          int64
	ObjectID    ObjectID
	ParameterID int64
	ReferenceID int64
	Value       float64
	SigmaUp     *float64
	SigmaDown   *float64
}

// Key is the semantic uniqueness key of an Observation.
type Key struct {
	ObjectID    ObjectID
	ParameterID int64
	ReferenceID int64
}

// Key returns the observation's (object, parameter, reference) triple.
func (o Observation) Key() Key {
	return Key{ObjectID: o.ObjectID, ParameterID: o.ParameterID, ReferenceID: o.ReferenceID}
}

// Profile is a named data series attached to one object and reference.
// YSigmaUp and YSigmaDown are either empty or the same length as Y.
type Profile struct {
	ID           int64
	ObjectID     ObjectID
	ReferenceID  int64
	Name         string
	X            []float64
	Y            []float64
	YSigmaUp     []float64
	YSigmaDown   []float64
	XDescription string
	YDescription string
}

// Float returns a pointer to v, for optional uncertainties.
func Float(v float64) *float64 {
	return &v
}
