package sqlsource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/adapters"
)

func TestValidateConfigDefaults(t *testing.T) {
	config := &Config{Driver: "postgres", DSN: "postgres://localhost/validus", Query: "SELECT 1"}
	require.NoError(t, validateConfig(config))
	assert.Equal(t, "tech", config.Columns.Tech)
	assert.Equal(t, "node", config.Columns.Node)
	assert.Equal(t, "carrier", config.Columns.Carrier)
	assert.Equal(t, "param", config.Columns.Param)
	assert.Equal(t, "value", config.Columns.Value)
	assert.Equal(t, 30*time.Second, config.Timeout)
}

func TestValidateConfigErrors(t *testing.T) {
	assert.Error(t, validateConfig(nil))
	assert.Error(t, validateConfig(&Config{DSN: "x", Query: "q"}))
	assert.Error(t, validateConfig(&Config{Driver: "sqlite", DSN: "x", Query: "q"}))
	assert.Error(t, validateConfig(&Config{Driver: "mysql", Query: "q"}))
	assert.Error(t, validateConfig(&Config{Driver: "mysql", DSN: "x"}))
}

func TestParseScalar(t *testing.T) {
	cases := []struct {
		in   string
		want validus.Value
		ok   bool
	}{
		{"100", validus.Number(100), true},
		{"-2.5", validus.Number(-2.5), true},
		{"true", validus.Bool(true), true},
		{"FALSE", validus.Bool(false), true},
		{"inf", validus.Inf(), true},
		{".inf", validus.Inf(), true},
		{"-inf", validus.NegInf(), true},
		{"electricity", validus.Str("electricity"), true},
		{"  ", validus.Value{}, false},
	}
	for _, tc := range cases {
		got, ok := parseScalar(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if ok {
			assert.True(t, tc.want.Equal(got), "parseScalar(%q) = %v", tc.in, got)
		}
	}
}

func TestCellValue(t *testing.T) {
	v, ok := cellValue([]byte("42"))
	require.True(t, ok)
	num, _ := v.Num()
	assert.Equal(t, float64(42), num)

	v, ok = cellValue(3.5)
	require.True(t, ok)
	num, _ = v.Num()
	assert.Equal(t, 3.5, num)

	_, ok = cellValue(nil)
	assert.False(t, ok)
}

func TestFactoryValidateConfig(t *testing.T) {
	f := &Factory{}
	assert.Error(t, f.ValidateConfig(adapters.SourceConfig{Config: map[string]interface{}{}}))
	assert.Error(t, f.ValidateConfig(adapters.SourceConfig{Config: map[string]interface{}{
		"driver": "mysql", "dsn": "root@/validus",
	}}))
	assert.NoError(t, f.ValidateConfig(adapters.SourceConfig{Config: map[string]interface{}{
		"driver": "mysql", "dsn": "root@/validus", "query": "SELECT * FROM params",
	}}))
}

func TestFactoryCreate(t *testing.T) {
	src, err := adapters.CreateSource(adapters.SourceConfig{
		Type: "sql",
		Config: map[string]interface{}{
			"driver": "postgres",
			"dsn":    "postgres://localhost/validus?sslmode=disable",
			"query":  "SELECT tech, node, carrier, param, value FROM params",
			"columns": map[string]interface{}{
				"param": "parameter_name",
			},
		},
	})
	require.NoError(t, err)
	defer src.Close()

	sqlSrc := src.(*Source)
	assert.Equal(t, "parameter_name", sqlSrc.config.Columns.Param)
	assert.Equal(t, "tech", sqlSrc.config.Columns.Tech)
}
