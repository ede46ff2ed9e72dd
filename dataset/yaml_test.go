package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	validus "github.com/validus/validus-go"
)

const modelYAML = `
config:
  mode: plan
  solver:
    name: cbc
techs:
  supply_tech:
    base_tech: supply
    flow_cap_max: .inf
    flow_out_eff:
      electricity: 0.9
  transmission_tech:
    base_tech: transmission
nodes:
  "1--2":
    techs:
      supply_tech:
        flow_cap_max: 100
  hub:
    techs:
      supply_tech:
      transmission_tech:
        distance: 20
`

func TestLoadYAML(t *testing.T) {
	table, err := LoadYAML([]byte(modelYAML))
	require.NoError(t, err)

	// node keys expanded
	nodes, err := table.DimensionValues(validus.Entity{}, validus.DimNodes)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "hub"}, nodes)

	// per-node override vs inherited default vs distinguished inf
	v, ok := table.Get(validus.Entity{Tech: "supply_tech", Node: "1"}, "flow_cap_max")
	require.True(t, ok)
	assert.True(t, v.Equal(validus.Number(100)))

	v, ok = table.Get(validus.Entity{Tech: "supply_tech", Node: "hub"}, "flow_cap_max")
	require.True(t, ok)
	assert.True(t, v.IsInf())

	// carrier-dimensioned parameter
	v, ok = table.Get(validus.Entity{Tech: "supply_tech", Carrier: "electricity"}, "flow_out_eff")
	require.True(t, ok)
	assert.True(t, v.Equal(validus.Number(0.9)))
	assert.Equal(t, []string{validus.DimTechs, validus.DimCarriers}, table.ParameterDims("flow_out_eff"))

	// permission matrix: transmission_tech only placed at hub
	techs, err := table.DimensionValues(validus.Entity{Node: "1"}, validus.DimTechs)
	require.NoError(t, err)
	assert.Equal(t, []string{"supply_tech"}, techs)

	// config flattened to dotted keys
	mode, ok := table.Config("mode")
	require.True(t, ok)
	assert.Equal(t, "plan", mode.String())
	solver, ok := table.Config("solver.name")
	require.True(t, ok)
	assert.Equal(t, "cbc", solver.String())
}

func TestLoadYAMLScopeMismatch(t *testing.T) {
	doc := `
techs:
  supply_tech:
    flow_out_eff:
      electricity: 0.9
nodes:
  region1:
    techs:
      supply_tech:
        flow_out_eff: 0.5
`
	// a scalar node override of a per-carrier parameter cannot be stored;
	// it must surface as an error, not vanish
	_, err := LoadYAML([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow_out_eff")
}

func TestLoadYAMLDeclaredCarriers(t *testing.T) {
	bad := `
carriers: [electricity]
techs:
  supply_tech:
    flow_out_eff:
      heat: 0.5
`
	_, err := LoadYAML([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown carrier "heat"`)

	badNode := `
carriers: [electricity]
nodes:
  region1:
    techs:
      supply_tech:
        flow_out_eff:
          heat: 0.5
`
	_, err = LoadYAML([]byte(badNode))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown carrier "heat"`)

	good := `
carriers: [electricity, heat]
techs:
  supply_tech:
    flow_out_eff:
      heat: 0.5
`
	table, err := LoadYAML([]byte(good))
	require.NoError(t, err)
	v, ok := table.Get(validus.Entity{Tech: "supply_tech", Carrier: "heat"}, "flow_out_eff")
	require.True(t, ok)
	assert.True(t, v.Equal(validus.Number(0.5)))

	// declared carriers populate the axis even without cells
	carriers, err := table.DimensionValues(validus.Entity{}, validus.DimCarriers)
	require.NoError(t, err)
	assert.Equal(t, []string{"electricity", "heat"}, carriers)

	// without a carriers list the map keys are taken as carrier names
	_, err = LoadYAML([]byte("techs:\n  t:\n    flow_out_eff:\n      power: 1\n"))
	assert.NoError(t, err)
}

func TestLoadYAMLInvalid(t *testing.T) {
	_, err := LoadYAML([]byte("techs: ["))
	assert.Error(t, err)

	_, err = LoadYAML([]byte("nodes:\n  \"3--1\":\n    techs:\n      x:\n"))
	assert.Error(t, err)
}

func TestLoadJSON(t *testing.T) {
	data := []byte(`{
		"config": {"mode": "operate"},
		"techs": {
			"pv": {"base_tech": "supply", "flow_out_eff": {"electricity": 0.85}}
		},
		"nodes": {
			"roof": {"techs": {"pv": {"flow_cap_max": 5}}}
		}
	}`)

	table, err := LoadJSON(data)
	require.NoError(t, err)

	mode, ok := table.Config("mode")
	require.True(t, ok)
	assert.Equal(t, "operate", mode.String())

	v, ok := table.Get(validus.Entity{Tech: "pv", Node: "roof"}, "flow_cap_max")
	require.True(t, ok)
	assert.True(t, v.Equal(validus.Number(5)))

	v, ok = table.Get(validus.Entity{Tech: "pv", Carrier: "electricity"}, "flow_out_eff")
	require.True(t, ok)
	assert.True(t, v.Equal(validus.Number(0.85)))

	_, err = LoadJSON([]byte("{not json"))
	assert.Error(t, err)
}
