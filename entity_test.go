package validus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityWith(t *testing.T) {
	e := Entity{Tech: "chp", Node: "region1"}

	bound, err := e.With(DimCarriers, "heat")
	assert.NoError(t, err)
	assert.Equal(t, "heat", bound.Carrier)
	assert.Equal(t, "chp", bound.Tech)
	// original unchanged
	assert.Equal(t, "", e.Carrier)

	rebound, err := bound.With(DimNodes, "region2")
	assert.NoError(t, err)
	assert.Equal(t, "region2", rebound.Node)

	_, err = e.With("seasons", "winter")
	assert.Error(t, err)
}

func TestEntityCoordinate(t *testing.T) {
	e := Entity{Tech: "pv", Node: "1", Carrier: "electricity"}

	for dim, expected := range map[string]string{
		DimTechs:    "pv",
		DimNodes:    "1",
		DimCarriers: "electricity",
	} {
		got, err := e.Coordinate(dim)
		assert.NoError(t, err)
		assert.Equal(t, expected, got)
	}

	_, err := e.Coordinate("bogus")
	assert.Error(t, err)
}

func TestEntityString(t *testing.T) {
	assert.Equal(t, "tech=pv, node=1", Entity{Tech: "pv", Node: "1"}.String())
	assert.Equal(t, "tech=pv, node=1, carrier=heat", Entity{Tech: "pv", Node: "1", Carrier: "heat"}.String())
	assert.Equal(t, "global", Global.String())
}
