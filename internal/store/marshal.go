package store

import (
	"encoding/json"
	"fmt"

	"github.com/supaharris/shingest/internal/catalogue"
)

// profileColumns holds a profile's series as JSON TEXT columns.
type profileColumns struct {
	x, y, up, down string
}

// marshalProfileSeries encodes each series as a JSON array. Empty
// uncertainty series are stored as "[]" so the columns stay NOT NULL.
func marshalProfileSeries(p catalogue.Profile) (profileColumns, error) {
	if len(p.X) != len(p.Y) {
		return profileColumns{}, fmt.Errorf("marshal profile %q: x has %d points, y has %d", p.Name, len(p.X), len(p.Y))
	}
	for _, s := range [][]float64{p.YSigmaUp, p.YSigmaDown} {
		if len(s) != 0 && len(s) != len(p.Y) {
			return profileColumns{}, fmt.Errorf("marshal profile %q: uncertainty has %d points, y has %d", p.Name, len(s), len(p.Y))
		}
	}

	var cols profileColumns
	var err error
	if cols.x, err = marshalSeries(p.X); err != nil {
		return profileColumns{}, fmt.Errorf("marshal profile x: %w", err)
	}
	if cols.y, err = marshalSeries(p.Y); err != nil {
		return profileColumns{}, fmt.Errorf("marshal profile y: %w", err)
	}
	if cols.up, err = marshalSeries(p.YSigmaUp); err != nil {
		return profileColumns{}, fmt.Errorf("marshal profile y_sigma_up: %w", err)
	}
	if cols.down, err = marshalSeries(p.YSigmaDown); err != nil {
		return profileColumns{}, fmt.Errorf("marshal profile y_sigma_down: %w", err)
	}
	return cols, nil
}

func unmarshalProfileSeries(cols profileColumns, p *catalogue.Profile) error {
	targets := []struct {
		data string
		dst  *[]float64
		name string
	}{
		{cols.x, &p.X, "x"},
		{cols.y, &p.Y, "y"},
		{cols.up, &p.YSigmaUp, "y_sigma_up"},
		{cols.down, &p.YSigmaDown, "y_sigma_down"},
	}
	for _, t := range targets {
		if err := json.Unmarshal([]byte(t.data), t.dst); err != nil {
			return fmt.Errorf("unmarshal profile %s: %w", t.name, err)
		}
		if len(*t.dst) == 0 {
			*t.dst = nil
		}
	}
	return nil
}

// marshalSeries encodes nil as "[]" rather than "null". NaN and Inf are
// rejected by encoding/json; callers drop missing points before storing.
func marshalSeries(s []float64) (string, error) {
	if s == nil {
		s = []float64{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
