package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/dataset"
)

func testDataset(t *testing.T) *dataset.Table {
	t.Helper()
	b := dataset.NewBuilder()
	b.Allow("region1", "supply_tech")
	b.Allow("region2", "supply_tech")
	b.Allow("region1", "transmission_tech")

	b.SetDefault("supply_tech", "flow_cap_max", validus.Number(100))
	b.Set(validus.Entity{Tech: "supply_tech", Node: "region2"}, "flow_cap_max", validus.Number(500))
	b.SetDefault("transmission_tech", "base_tech", validus.Str("transmission"))
	b.Set(validus.Entity{Tech: "supply_tech", Carrier: "electricity"}, "flow_out_eff", validus.Number(0.9))
	b.SetConfig("mode", validus.Str("plan"))
	return b.Build()
}

func TestQueryRun(t *testing.T) {
	ds := testDataset(t)

	q, err := Compile("flow_cap_max > 100")
	require.NoError(t, err)

	matches, err := q.Run(ds)
	require.NoError(t, err)
	assert.Equal(t, []validus.Entity{{Tech: "supply_tech", Node: "region2"}}, matches)
}

func TestQueryAbsentAttributeDoesNotMatch(t *testing.T) {
	ds := testDataset(t)

	// transmission_tech has no flow_cap_max anywhere; nil > 100 is false
	q, err := Compile("flow_cap_max != nil && flow_cap_max > 1")
	require.NoError(t, err)

	matches, err := q.Run(ds)
	require.NoError(t, err)
	for _, e := range matches {
		assert.Equal(t, "supply_tech", e.Tech)
	}
	assert.Len(t, matches, 2)
}

func TestQueryCoordinatesAndConfig(t *testing.T) {
	ds := testDataset(t)

	q, err := Compile(`tech == "transmission_tech" && config.mode == "plan"`)
	require.NoError(t, err)

	matches, err := q.Run(ds)
	require.NoError(t, err)
	assert.Equal(t, []validus.Entity{{Tech: "transmission_tech", Node: "region1"}}, matches)
}

func TestQueryCarrierScope(t *testing.T) {
	ds := testDataset(t)

	q, err := Compile("flow_out_eff != nil && flow_out_eff > 0.5")
	require.NoError(t, err)

	matches, err := q.Run(ds)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, e := range matches {
		assert.Equal(t, "electricity", e.Carrier)
	}
}

func TestQueryNonBooleanResult(t *testing.T) {
	ds := testDataset(t)

	q, err := Compile("flow_cap_max")
	require.NoError(t, err)

	_, err = q.Run(ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boolean")
}

func TestQueryCompileError(t *testing.T) {
	_, err := Compile("flow_cap_max >")
	require.Error(t, err)
}
