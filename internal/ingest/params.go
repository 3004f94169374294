package ingest

import (
	"github.com/supaharris/shingest/internal/catalogue"
)

// ParamContext holds the parameters known to a run. It is built once in
// ensure_prerequisites and passed to every later stage.
type ParamContext struct {
	byName map[string]catalogue.Parameter
}

// NewParamContext indexes params by name.
func NewParamContext(params []catalogue.Parameter) *ParamContext {
	pc := &ParamContext{byName: make(map[string]catalogue.Parameter, len(params))}
	for _, p := range params {
		pc.Add(p)
	}
	return pc
}

// Add records a stored parameter.
func (pc *ParamContext) Add(p catalogue.Parameter) {
	pc.byName[p.Name] = p
}

// Lookup returns the stored parameter, or fallback wrapped as a Default
// when none is stored.
func (pc *ParamContext) Lookup(name string, fallback catalogue.Parameter) catalogue.ParameterSource {
	if p, ok := pc.byName[name]; ok {
		return catalogue.Found{Record: p}
	}
	return catalogue.Default{Fallback: fallback}
}

// Get returns a stored parameter by name.
func (pc *ParamContext) Get(name string) (catalogue.Parameter, bool) {
	p, ok := pc.byName[name]
	return p, ok
}

// Len returns the number of known parameters.
func (pc *ParamContext) Len() int {
	return len(pc.byName)
}
