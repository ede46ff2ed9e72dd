package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/validus/validus-go/report"
)

func makeRun(id, rulesetName string, failed bool, started time.Time) *Run {
	rep := &report.Report{}
	return &Run{
		ID:        id,
		Ruleset:   rulesetName,
		StartedAt: started,
		Duration:  5 * time.Millisecond,
		Failed:    failed,
		Report:    rep,
	}
}

func TestInMemoryRunStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryRunStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRun(ctx, makeRun("a", "sanity", false, base)))
	require.NoError(t, store.SaveRun(ctx, makeRun("b", "sanity", true, base.Add(time.Minute))))
	require.NoError(t, store.SaveRun(ctx, makeRun("c", "limits", false, base.Add(2*time.Minute))))

	run, err := store.GetRun(ctx, "b")
	require.NoError(t, err)
	assert.True(t, run.Failed)

	_, err = store.GetRun(ctx, "missing")
	assert.Error(t, err)

	runs, err := store.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "a", runs[2].ID)

	runs, err = store.ListRuns(ctx, RunFilter{Ruleset: "sanity"})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)

	runs, err = store.ListRuns(ctx, RunFilter{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "b", runs[0].ID)

	runs, err = store.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "c", runs[0].ID)
}

func TestInMemoryRunStoreRejectsEmptyID(t *testing.T) {
	store := NewInMemoryRunStore()
	err := store.SaveRun(context.Background(), &Run{})
	assert.Error(t, err)
}

func TestInMemoryRunStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryRunStore()
	base := time.Now()

	require.NoError(t, store.SaveRun(ctx, makeRun("a", "sanity", false, base)))
	require.NoError(t, store.SaveRun(ctx, makeRun("a", "sanity", true, base)))

	runs, err := store.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Failed)
}
