package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleister1102/mirrorinc/internal/common"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "db", "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_LatestRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := store.LatestRun(ctx, "https://ex.com/", "")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.RecordRun(ctx, Run{
		RunID: "run-1", TargetURL: "https://ex.com/", StartedAt: start, CompletedAt: start.Add(time.Minute),
		Status: StatusCompleted, Document: "<p>one</p>", AssetURLs: []string{"https://ex.com/a.png"},
	}))
	require.NoError(t, store.RecordRun(ctx, Run{
		RunID: "run-2", TargetURL: "https://ex.com/", StartedAt: start.Add(time.Hour), CompletedAt: start.Add(time.Hour),
		Status: StatusPartial, Downloaded: 3, Failed: 1, TotalBytes: 42, Document: "<p>two</p>",
	}))
	require.NoError(t, store.RecordRun(ctx, Run{
		RunID: "run-3", TargetURL: "https://other.com/", StartedAt: start.Add(2 * time.Hour), CompletedAt: start.Add(2 * time.Hour),
		Status: StatusCompleted,
	}))

	latest, err := store.LatestRun(ctx, "https://ex.com/", "")
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
	assert.Equal(t, StatusPartial, latest.Status)
	assert.Equal(t, 3, latest.Downloaded)
	assert.Equal(t, int64(42), latest.TotalBytes)
	assert.Equal(t, "<p>two</p>", latest.Document)
	assert.Empty(t, latest.AssetURLs)

	previous, err := store.LatestRun(ctx, "https://ex.com/", "run-2")
	require.NoError(t, err)
	assert.Equal(t, "run-1", previous.RunID)
	assert.Equal(t, []string{"https://ex.com/a.png"}, previous.AssetURLs)
	assert.True(t, previous.StartedAt.Equal(start))
}

func TestStore_DuplicateRunID(t *testing.T) {
	store := newTestStore(t)
	run := Run{RunID: "same", TargetURL: "https://ex.com/", StartedAt: time.Now(), CompletedAt: time.Now(), Status: StatusCompleted}

	require.NoError(t, store.RecordRun(context.Background(), run))
	assert.Error(t, store.RecordRun(context.Background(), run))
}

func TestComparer_Compare(t *testing.T) {
	previous := &Run{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Document:  "<html>\n<p>a</p>\n<p>b</p>\n</html>\n",
		AssetURLs: []string{"https://ex.com/a.png", "https://ex.com/b.png"},
	}

	cmp := NewComparer().Compare(previous, "<html>\n<p>a</p>\n<p>c</p>\n<p>d</p>\n</html>\n",
		[]string{"https://ex.com/a.png", "https://ex.com/c.png", "https://ex.com/d.png"})

	assert.Equal(t, "run-1", cmp.PreviousRunID)
	assert.Equal(t, "2026-03-01T10:00:00Z", cmp.PreviousTime)
	assert.True(t, cmp.Changed)
	assert.Equal(t, 2, cmp.LinesAdded)
	assert.Equal(t, 1, cmp.LinesDeleted)
	assert.Equal(t, 2, cmp.AssetsAdded)
	assert.Equal(t, 1, cmp.AssetsRemoved)
	assert.Equal(t, 2, cmp.PreviousAssets)
}

func TestComparer_Unchanged(t *testing.T) {
	previous := &Run{RunID: "run-1", Document: "<p>same</p>", AssetURLs: []string{"https://ex.com/a.png"}}

	cmp := NewComparer().Compare(previous, "<p>same</p>", []string{"https://ex.com/a.png"})
	assert.False(t, cmp.Changed)
	assert.Zero(t, cmp.LinesAdded)
	assert.Zero(t, cmp.LinesDeleted)
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
