package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	validus "github.com/validus/validus-go"
)

func TestSetScopeMismatch(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Set(validus.Entity{Tech: "t1", Carrier: "power"}, "flow_out_eff", validus.Number(0.9)))

	// looser binding: no carrier coordinate for a carrier-scoped parameter
	err := b.Set(validus.Entity{Tech: "t1", Node: "n1"}, "flow_out_eff", validus.Number(0.5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow_out_eff")

	// tighter binding: the node coordinate has no axis to land on
	err = b.Set(validus.Entity{Tech: "t1", Node: "n1", Carrier: "power"}, "flow_out_eff", validus.Number(0.7))
	require.Error(t, err)

	// the original cell survives both rejected writes
	table := b.Build()
	v, ok := table.Get(validus.Entity{Tech: "t1", Node: "n1", Carrier: "power"}, "flow_out_eff")
	require.True(t, ok)
	assert.True(t, v.Equal(validus.Number(0.9)))
}

func TestSetWidensUntilFirstCell(t *testing.T) {
	b := NewBuilder()
	b.SetDefault("t1", "flow_cap_max", validus.Number(50))
	require.NoError(t, b.Set(validus.Entity{Tech: "t1", Node: "n1"}, "flow_cap_max", validus.Number(100)))

	table := b.Build()
	assert.Equal(t, []string{validus.DimTechs, validus.DimNodes}, table.ParameterDims("flow_cap_max"))

	v, ok := table.Get(validus.Entity{Tech: "t1", Node: "n1"}, "flow_cap_max")
	require.True(t, ok)
	assert.True(t, v.Equal(validus.Number(100)))

	// no cell at n2: the tech default fills in
	v, ok = table.Get(validus.Entity{Tech: "t1", Node: "n2"}, "flow_cap_max")
	require.True(t, ok)
	assert.True(t, v.Equal(validus.Number(50)))
}

func TestDeclareFixesScope(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Declare("flow_out_eff", validus.DimTechs, validus.DimCarriers))

	err := b.Set(validus.Entity{Tech: "t1", Node: "n1"}, "flow_out_eff", validus.Number(0.5))
	require.Error(t, err)

	require.NoError(t, b.Set(validus.Entity{Tech: "t1", Carrier: "power"}, "flow_out_eff", validus.Number(0.9)))
}
