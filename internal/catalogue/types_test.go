package catalogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAstroObjectNames(t *testing.T) {
	assert.Equal(t, []string{"Pal 2"}, AstroObject{Name: "Pal 2"}.Names())
	assert.Equal(t, []string{"Pal 2"}, AstroObject{Name: "Pal 2", AltName: "Pal 2"}.Names())
	assert.Equal(t, []string{"Pal 2", "Palomar 2"}, AstroObject{Name: "Pal 2", AltName: "Palomar 2"}.Names())
}

func TestAstroObjectHasClassification(t *testing.T) {
	obj := AstroObject{Name: "NGC 104", Classifications: []string{"Globular Cluster"}}
	assert.True(t, obj.HasClassification("globular cluster"))
	assert.False(t, obj.HasClassification("Open Cluster"))
}

func TestReferenceShort(t *testing.T) {
	assert.Equal(t, "1996AJ....112.1487H", Reference{BibCode: "1996AJ....112.1487H"}.Short())
	assert.Equal(t, "Harris (1996)", Reference{BibCode: "x", FirstAuthor: "Harris", Year: 1996}.Short())
}

func TestObservationKey(t *testing.T) {
	a := Observation{ObjectID: 1, ParameterID: 2, ReferenceID: 3, Value: 1.5}
	b := Observation{ObjectID: 1, ParameterID: 2, ReferenceID: 3, Value: 9, SigmaUp: Float(0.1)}
	assert.Equal(t, a.Key(), b.Key())
}

func TestParameterSource(t *testing.T) {
	p := Parameter{Name: "R_Sun", Unit: "kpc", Scale: 1}

	sources := []ParameterSource{Found{Record: p}, Default{Fallback: p}}
	for _, src := range sources {
		assert.Equal(t, "R_Sun", src.Parameter().Name)
	}

	_, isFound := sources[0].(Found)
	_, isDefault := sources[1].(Default)
	assert.True(t, isFound)
	assert.True(t, isDefault)
}
