// Package resolve maps object designations from source files to stored
// AstroObjects.
//
// A NameMap is built once per ingestion run from every known object,
// before any observation is written. Each object's name and altname are
// expanded into all spellings the canonicalizer recognizes, so that
// "Pal 1", "Palomar 1" and "pal1" resolve to the same id. Resolve is an
// exact lookup; a miss is not an error, it tells the caller the object is
// new.
//
// Approximate matching lives in FuzzyMatcher and never decides on its
// own: it can only propose a candidate for an operator to confirm.
package resolve

import (
	"sort"

	"go.uber.org/zap"

	"github.com/supaharris/shingest/internal/catalogue"
	"github.com/supaharris/shingest/internal/names"
)

// Conflict records a spelling claimed by two objects. The object
// registered first keeps it.
type Conflict struct {
	Variant string
	Kept    catalogue.ObjectID
	Dropped catalogue.ObjectID
}

// NameMap indexes every spelling of every known object.
type NameMap struct {
	canon     *names.Canonicalizer
	logger    *zap.Logger
	exact     map[string]catalogue.ObjectID
	loose     map[string]catalogue.ObjectID
	objects   map[catalogue.ObjectID]catalogue.AstroObject
	conflicts []Conflict
}

// Build indexes objects in ascending id order, so the oldest object wins
// a contested spelling.
func Build(objects []catalogue.AstroObject, canon *names.Canonicalizer, logger *zap.Logger) *NameMap {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &NameMap{
		canon:   canon,
		logger:  logger,
		exact:   map[string]catalogue.ObjectID{},
		loose:   map[string]catalogue.ObjectID{},
		objects: map[catalogue.ObjectID]catalogue.AstroObject{},
	}

	sorted := make([]catalogue.AstroObject, len(objects))
	copy(sorted, objects)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, obj := range sorted {
		m.Register(obj)
	}

	if len(m.conflicts) > 0 {
		logger.Warn("name variants claimed by more than one object",
			zap.Int("conflicts", len(m.conflicts)))
	}
	return m
}

// Register indexes obj. Used for objects created during a run so that
// later rows naming them resolve.
func (m *NameMap) Register(obj catalogue.AstroObject) {
	m.objects[obj.ID] = obj
	for _, name := range obj.Names() {
		for _, v := range m.canon.Variants(name) {
			m.claim(m.exact, v, v, obj.ID)
			m.claim(m.loose, names.LooseKey(v), v, obj.ID)
		}
	}
}

func (m *NameMap) claim(index map[string]catalogue.ObjectID, key, variant string, id catalogue.ObjectID) {
	if key == "" {
		return
	}
	prev, ok := index[key]
	if !ok {
		index[key] = id
		return
	}
	if prev != id {
		m.conflicts = append(m.conflicts, Conflict{Variant: variant, Kept: prev, Dropped: id})
		m.logger.Debug("name variant conflict",
			zap.String("variant", variant),
			zap.Int64("kept", int64(prev)),
			zap.Int64("dropped", int64(id)))
	}
}

// Alias makes designation resolve to id for the rest of the run. Used
// once an operator has accepted a fuzzy match.
func (m *NameMap) Alias(designation string, id catalogue.ObjectID) {
	cleaned := names.Clean(designation)
	m.claim(m.exact, cleaned, cleaned, id)
	m.claim(m.loose, names.LooseKey(cleaned), cleaned, id)
}

// Resolve returns the id of the object designation refers to. It tries
// the designation as written, then its canonical form, then both with
// case and separators folded.
func (m *NameMap) Resolve(designation string) (catalogue.ObjectID, bool) {
	cleaned := names.Clean(designation)
	if cleaned == "" {
		return 0, false
	}
	canonical := m.canon.Canonical(cleaned)

	if id, ok := m.exact[cleaned]; ok {
		return id, true
	}
	if id, ok := m.exact[canonical]; ok {
		return id, true
	}
	if id, ok := m.loose[names.LooseKey(cleaned)]; ok {
		return id, true
	}
	if id, ok := m.loose[names.LooseKey(canonical)]; ok {
		return id, true
	}
	return 0, false
}

// Object returns a registered object by id.
func (m *NameMap) Object(id catalogue.ObjectID) (catalogue.AstroObject, bool) {
	obj, ok := m.objects[id]
	return obj, ok
}

// Objects returns every registered object ordered by id.
func (m *NameMap) Objects() []catalogue.AstroObject {
	out := make([]catalogue.AstroObject, 0, len(m.objects))
	for _, obj := range m.objects {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of indexed spellings.
func (m *NameMap) Len() int {
	return len(m.exact)
}

// Conflicts returns the spellings claimed by more than one object.
func (m *NameMap) Conflicts() []Conflict {
	return m.conflicts
}
