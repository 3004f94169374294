package catalogue

// ParameterSource records where the definition of a Parameter came from
// when a dataset's prerequisites are checked.
//
// The set of implementations is closed: Found and Default.
type ParameterSource interface {
	Parameter() Parameter
	isParameterSource()
}

// Found is a Parameter already present in storage.
type Found struct {
	Record Parameter
}

// Default is a fallback definition (from a fixture or a dataset manifest)
// for a Parameter that storage does not yet hold.
type Default struct {
	Fallback Parameter
}

func (f Found) Parameter() Parameter   { return f.Record }
func (d Default) Parameter() Parameter { return d.Fallback }

func (Found) isParameterSource()   {}
func (Default) isParameterSource() {}
