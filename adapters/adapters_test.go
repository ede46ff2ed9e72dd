package adapters

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/validus/validus-go/dataset"
)

type stubSource struct{}

func (stubSource) Load(ctx context.Context) (*dataset.Table, error) { return nil, nil }
func (stubSource) Close() error                                     { return nil }

type stubFactory struct {
	fail bool
}

func (f *stubFactory) Create(config SourceConfig) (DatasetSource, error) {
	return stubSource{}, nil
}

func (f *stubFactory) ValidateConfig(config SourceConfig) error {
	if f.fail {
		return fmt.Errorf("bad config")
	}
	return nil
}

func TestSourceRegistry(t *testing.T) {
	reg := NewSourceRegistry()
	require.NoError(t, reg.Register("stub", &stubFactory{}))
	require.NoError(t, reg.Register("alpha", &stubFactory{}))

	assert.Error(t, reg.Register("", &stubFactory{}))
	assert.Error(t, reg.Register("nil", nil))

	src, err := reg.Create(SourceConfig{Type: "stub"})
	require.NoError(t, err)
	assert.NotNil(t, src)

	_, err = reg.Create(SourceConfig{Type: "missing"})
	assert.Error(t, err)

	assert.Equal(t, []string{"alpha", "stub"}, reg.Types())
}

func TestSourceRegistryValidatesConfig(t *testing.T) {
	reg := NewSourceRegistry()
	require.NoError(t, reg.Register("stub", &stubFactory{fail: true}))
	_, err := reg.Create(SourceConfig{Type: "stub"})
	assert.ErrorContains(t, err, "bad config")
}

func TestResolvePath(t *testing.T) {
	config := SourceConfig{BaseDir: "/etc/validus"}
	assert.Equal(t, "/etc/validus/model.yaml", ResolvePath(config, "model.yaml"))
	assert.Equal(t, "/tmp/model.yaml", ResolvePath(config, "/tmp/model.yaml"))
	assert.Equal(t, "", ResolvePath(config, ""))
	assert.Equal(t, "model.yaml", ResolvePath(SourceConfig{}, "model.yaml"))
}

func TestConfigOptions(t *testing.T) {
	config := map[string]interface{}{
		"name":     "primary",
		"enabled":  true,
		"limit":    42,
		"ratio":    3.0,
		"timeout":  "45s",
		"bad_time": "nope",
	}
	assert.Equal(t, "primary", StringOption(config, "name"))
	assert.Equal(t, "", StringOption(config, "missing"))
	assert.True(t, BoolOption(config, "enabled"))
	assert.False(t, BoolOption(config, "missing"))
	assert.Equal(t, 42, IntOption(config, "limit"))
	assert.Equal(t, 3, IntOption(config, "ratio"))
	assert.Equal(t, 0, IntOption(config, "missing"))
	assert.Equal(t, 45*time.Second, DurationOption(config, "timeout"))
	assert.Equal(t, time.Duration(0), DurationOption(config, "bad_time"))
}
