// Package manifest loads dataset manifests: CUE files that tell the
// orchestrator which files to read, how their columns are laid out and
// which parameters they map to.
//
// A manifest declares one or more datasets under the top-level
// `dataset` field:
//
//	dataset: harris_1996ed2010: {
//		reference: "https://ui.adsabs.harvard.edu/abs/1996AJ....112.1487H"
//		tables: [{
//			source: "MW_GCS_Harris1996e2010/f1.dat"
//			layout: {format: "fixed", columns: [...]}
//			name_column: "id"
//			observations: [{column: "r_sun", parameter: "R_Sun"}]
//		}]
//	}
//
// Each dataset is unified with the embedded #Dataset schema (schema.cue),
// so unknown fields and wrongly typed values are rejected with a source
// position. The built-in manifests for the published catalogues are
// embedded as well; manifests loaded from a directory override them by
// name.
package manifest

import (
	"github.com/supaharris/shingest/internal/catalogue"
	"github.com/supaharris/shingest/internal/ingest"
	"github.com/supaharris/shingest/internal/parser"
)

// The types below mirror schema.cue. They exist only to decode CUE values
// and are converted to ingest types straight away.

type datasetSpec struct {
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Reference           string          `json:"reference"`
	ExtraReferences     []string        `json:"extra_references"`
	Classification      string          `json:"classification"`
	OnMiss              string          `json:"on_miss"`
	FuzzyThreshold      int             `json:"fuzzy_threshold"`
	ReplaceObservations bool            `json:"replace_observations"`
	Parameters          []parameterSpec `json:"parameters"`
	Tables              []tableSpec     `json:"tables"`
	Profiles            []profileSpec   `json:"profiles"`
}

type parameterSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Unit        string   `json:"unit"`
	Scale       *float64 `json:"scale"`
}

type columnSpec struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Width    int    `json:"width"`
	Required bool   `json:"required"`
}

type layoutSpec struct {
	Format     string       `json:"format"`
	Columns    []columnSpec `json:"columns"`
	SkipHeader int          `json:"skip_header"`
	Comment    string       `json:"comment"`
	Delimiter  string       `json:"delimiter"`
	Missing    []string     `json:"missing"`
}

type observationSpec struct {
	Column    string `json:"column"`
	Parameter string `json:"parameter"`
	Sigma     string `json:"sigma"`
	SigmaUp   string `json:"sigma_up"`
	SigmaDown string `json:"sigma_down"`
}

type tableSpec struct {
	Source         string            `json:"source"`
	Layout         layoutSpec        `json:"layout"`
	NameColumn     string            `json:"name_column"`
	AltNameColumn  string            `json:"altname_column"`
	CanonicalNames bool              `json:"canonical_names"`
	Observations   []observationSpec `json:"observations"`
}

type profileSpec struct {
	Glob         string          `json:"glob"`
	NamePattern  string          `json:"name_pattern"`
	Source       string          `json:"source"`
	NameColumn   string          `json:"name_column"`
	Exclude      []rowFilterSpec `json:"exclude"`
	Name         string          `json:"name"`
	Layout       layoutSpec      `json:"layout"`
	X            string          `json:"x"`
	Y            string          `json:"y"`
	YSigma       string          `json:"y_sigma"`
	YSigmaUp     string          `json:"y_sigma_up"`
	YSigmaDown   string          `json:"y_sigma_down"`
	XDescription string          `json:"x_description"`
	YDescription string          `json:"y_description"`
}

type rowFilterSpec struct {
	Object string   `json:"object"`
	Column string   `json:"column"`
	Values []string `json:"values"`
}

func (d datasetSpec) toDataset() (ingest.Dataset, error) {
	policy, err := ingest.ParseMissPolicy(d.OnMiss)
	if err != nil {
		return ingest.Dataset{}, err
	}
	ds := ingest.Dataset{
		Name:                d.Name,
		Description:         d.Description,
		Reference:           d.Reference,
		ExtraReferences:     d.ExtraReferences,
		Classification:      d.Classification,
		OnMiss:              policy,
		FuzzyThreshold:      d.FuzzyThreshold,
		ReplaceObservations: d.ReplaceObservations,
	}
	for _, p := range d.Parameters {
		scale := 1.0
		if p.Scale != nil {
			scale = *p.Scale
		}
		ds.Parameters = append(ds.Parameters, catalogue.Parameter{
			Name:        p.Name,
			Description: p.Description,
			Unit:        p.Unit,
			Scale:       scale,
		})
	}
	for _, t := range d.Tables {
		table := ingest.Table{
			Source:         t.Source,
			Layout:         t.Layout.toLayout(),
			NameColumn:     t.NameColumn,
			AltNameColumn:  t.AltNameColumn,
			CanonicalNames: t.CanonicalNames,
		}
		for _, o := range t.Observations {
			table.Observations = append(table.Observations, ingest.ObservationMap(o))
		}
		ds.Tables = append(ds.Tables, table)
	}
	for _, p := range d.Profiles {
		var exclude []ingest.RowFilter
		for _, f := range p.Exclude {
			exclude = append(exclude, ingest.RowFilter(f))
		}
		ds.Profiles = append(ds.Profiles, ingest.ProfileSet{
			Glob:         p.Glob,
			NamePattern:  p.NamePattern,
			Source:       p.Source,
			NameColumn:   p.NameColumn,
			Exclude:      exclude,
			Name:         p.Name,
			Layout:       p.Layout.toLayout(),
			X:            p.X,
			Y:            p.Y,
			YSigma:       p.YSigma,
			YSigmaUp:     p.YSigmaUp,
			YSigmaDown:   p.YSigmaDown,
			XDescription: p.XDescription,
			YDescription: p.YDescription,
		})
	}
	return ds, nil
}

func (l layoutSpec) toLayout() parser.Layout {
	layout := parser.Layout{
		Format:     parser.Format(l.Format),
		SkipHeader: l.SkipHeader,
		Comment:    l.Comment,
		Delimiter:  l.Delimiter,
		Missing:    l.Missing,
	}
	for _, c := range l.Columns {
		typ := parser.Type(c.Type)
		if typ == "" {
			typ = parser.TypeFloat
		}
		layout.Columns = append(layout.Columns, parser.Column{
			Name:     c.Name,
			Type:     typ,
			Width:    c.Width,
			Required: c.Required,
		})
	}
	return layout
}
