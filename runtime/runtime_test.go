package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/dataset"
)

func writeRuleset(t *testing.T, dir, file, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644))
}

func rulesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeRuleset(t, dir, "sanity-1.0.yaml", `
name: sanity
version: 1.0.0
fail:
  - where: flow_cap_max > 50
    message: "cap too high at {node}"
warn:
  - where: flow_cap_max > 10
    message: "large cap"
`)
	writeRuleset(t, dir, "sanity-1.1.yaml", `
name: sanity
version: 1.1.0
fail:
  - where: flow_cap_max > 200
    message: "cap too high at {node}"
`)
	writeRuleset(t, dir, "limits.yaml", `
warn:
  - where: config.mode = "plan"
    message: "planning mode"
`)
	return dir
}

func runtimeDataset(t *testing.T) validus.Dataset {
	t.Helper()
	b := dataset.NewBuilder()
	b.Allow("region1", "supply_tech")
	require.NoError(t, b.Declare("flow_cap_max", validus.DimTechs, validus.DimNodes))
	b.Set(validus.Entity{Tech: "supply_tech", Node: "region1"}, "flow_cap_max", validus.Number(100))
	b.SetConfig("mode", validus.Str("plan"))
	return b.Build()
}

type fakeSink struct {
	runs   []*Run
	closed bool
}

func (s *fakeSink) Publish(ctx context.Context, run *Run) error {
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

func TestManagerLoadPicksLatest(t *testing.T) {
	mgr := NewRulesetManager(&ManagerConfig{Directory: rulesDir(t)}, nil)
	require.NoError(t, mgr.Load(context.Background()))

	stored, ok := mgr.Get("sanity")
	require.True(t, ok)
	assert.Equal(t, "1.1.0", stored.Ruleset.Version)

	stored, ok = mgr.Get("limits")
	require.True(t, ok)
	assert.Equal(t, "limits", stored.Ruleset.Name)

	list := mgr.List()
	require.Len(t, list, 2)
	assert.Equal(t, "limits", list[0].Ruleset.Name)
	assert.Equal(t, "sanity", list[1].Ruleset.Name)
}

func TestManagerActivateEnvironment(t *testing.T) {
	mgr := NewRulesetManager(&ManagerConfig{
		Directory: rulesDir(t),
		Environments: []Environment{
			{Name: "prod", Constraints: map[string]string{"sanity": "~1.0.0"}},
		},
	}, nil)
	require.NoError(t, mgr.Load(context.Background()))
	require.NoError(t, mgr.Activate("prod"))

	stored, ok := mgr.Get("sanity")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", stored.Ruleset.Version)

	assert.Error(t, mgr.Activate("staging"))
}

func TestManagerEmptyDirectory(t *testing.T) {
	mgr := NewRulesetManager(&ManagerConfig{Directory: t.TempDir()}, nil)
	assert.Error(t, mgr.Load(context.Background()))
}

func TestValidationRuntime(t *testing.T) {
	ctx := context.Background()
	mgr := NewRulesetManager(&ManagerConfig{
		Directory: rulesDir(t),
		Environments: []Environment{
			{Name: "prod", Constraints: map[string]string{"sanity": "1.0.0"}},
		},
	}, nil)

	store := NewInMemoryRunStore()
	sink := &fakeSink{}
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	vr := NewValidationRuntime(mgr, store,
		WithSinks(sink),
		WithWorkers(2),
		WithClock(func() time.Time { return clock }),
	)

	assert.Equal(t, StateInitializing, vr.State())
	require.NoError(t, vr.Start(ctx))
	require.NoError(t, mgr.Activate("prod"))
	assert.Equal(t, StateReady, vr.State())

	run, err := vr.Validate(ctx, "sanity", runtimeDataset(t))
	require.NoError(t, err)
	assert.True(t, run.Failed)
	assert.Equal(t, 1, run.FailCount)
	assert.Equal(t, 1, run.WarnCount)
	assert.Equal(t, clock, run.StartedAt)
	assert.Equal(t, "cap too high at region1", run.Report.Fail[0].Message)

	stored, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, stored.ID)

	require.Len(t, sink.runs, 1)
	assert.Equal(t, run.ID, sink.runs[0].ID)

	_, err = vr.Validate(ctx, "nope", runtimeDataset(t))
	assert.Error(t, err)

	require.NoError(t, vr.Close())
	assert.True(t, sink.closed)
}

func TestValidationRuntimeConfigOnlyRuleset(t *testing.T) {
	ctx := context.Background()
	mgr := NewRulesetManager(&ManagerConfig{Directory: rulesDir(t)}, nil)
	vr := NewValidationRuntime(mgr, NewInMemoryRunStore())
	require.NoError(t, vr.Start(ctx))

	run, err := vr.Validate(ctx, "limits", runtimeDataset(t))
	require.NoError(t, err)
	assert.False(t, run.Failed)
	assert.Equal(t, 1, run.WarnCount)
	assert.Equal(t, "planning mode", run.Report.Warn[0].Message)
}
