package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/adapters"
)

const modelYAML = `
config:
  mode: plan
techs:
  supply_tech:
    flow_cap_max: 100
nodes:
  region1:
    techs:
      supply_tech: {}
`

func writeModel(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestSourceLoadYAML(t *testing.T) {
	path := writeModel(t, t.TempDir(), "model.yaml", modelYAML)

	src, err := NewSource(path)
	require.NoError(t, err)
	defer src.Close()

	table, err := src.Load(context.Background())
	require.NoError(t, err)

	v, ok := table.Get(validus.Entity{Tech: "supply_tech", Node: "region1"}, "flow_cap_max")
	require.True(t, ok)
	num, _ := v.Num()
	assert.Equal(t, float64(100), num)

	mode, ok := table.Config("mode")
	require.True(t, ok)
	assert.Equal(t, "plan", mode.String())
}

func TestSourceMissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = NewSource("")
	assert.Error(t, err)
}

func TestFactoryThroughRegistry(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "model.yaml", modelYAML)

	src, err := adapters.CreateSource(adapters.SourceConfig{
		Type:    "file",
		BaseDir: dir,
		Config:  map[string]interface{}{"path": "model.yaml"},
	})
	require.NoError(t, err)
	defer src.Close()

	table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, table.HasParameter("flow_cap_max"))

	_, err = adapters.CreateSource(adapters.SourceConfig{Type: "file"})
	assert.Error(t, err)
}

func TestWatcherDebounce(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir, "model.yaml", modelYAML)

	changes := make(chan []string, 4)
	w, err := NewWatcher([]string{path}, 50*time.Millisecond, func(changed []string) {
		changes <- changed
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// A burst of writes should collapse into one callback.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(modelYAML), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case changed := <-changes:
		assert.Contains(t, changed, path)
	case <-time.After(5 * time.Second):
		t.Fatal("no change callback")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcherRejectsBadConfig(t *testing.T) {
	_, err := NewWatcher(nil, 0, func([]string) {})
	assert.Error(t, err)

	_, err = NewWatcher([]string{t.TempDir()}, 0, nil)
	assert.Error(t, err)

	_, err = NewWatcher([]string{filepath.Join(t.TempDir(), "absent")}, 0, func([]string) {})
	assert.Error(t, err)
}
