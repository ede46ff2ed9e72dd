package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	validus "github.com/validus/validus-go"
)

const rulesYAML = `
name: model-checks
version: 1.0.0
fail:
  - where: not base_tech
    message: "technology must declare a base_tech"
  - where: cost_flow_cap<0 AND not flow_cap_max
    message: "negative flow cost requires a capacity bound"
warn:
  - where: source_use_equals=inf or sink_use_equals=inf
    message: "unbounded source or sink use"
`

func TestLoad(t *testing.T) {
	rs, err := Load([]byte(rulesYAML))
	require.NoError(t, err)

	assert.Equal(t, "model-checks", rs.Name)
	assert.Equal(t, "1.0.0", rs.Version)
	require.Len(t, rs.Fail, 2)
	require.Len(t, rs.Warn, 1)
	assert.Equal(t, "not base_tech", rs.Fail[0].Where)
	assert.Equal(t, 3, rs.Len())
}

func TestRulesOrderAndIndices(t *testing.T) {
	rs, err := Load([]byte(rulesYAML))
	require.NoError(t, err)

	rules := rs.Rules()
	require.Len(t, rules, 3)

	assert.Equal(t, validus.SeverityFail, rules[0].Severity)
	assert.Equal(t, 0, rules[0].Index)
	assert.Equal(t, validus.SeverityFail, rules[1].Severity)
	assert.Equal(t, 1, rules[1].Index)
	assert.Equal(t, validus.SeverityWarn, rules[2].Severity)
	assert.Equal(t, 2, rules[2].Index)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing where", doc: "fail:\n  - message: broken\n"},
		{name: "missing message", doc: "warn:\n  - where: base_tech\n"},
		{name: "blank where", doc: "fail:\n  - where: \"  \"\n    message: broken\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			assert.Error(t, err)
		})
	}

	// empty lists are a valid, if pointless, ruleset
	rs, err := Load([]byte("name: empty\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capacity.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fail:\n  - where: base_tech\n    message: ok\n"), 0o644))

	rs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "capacity", rs.Name)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
