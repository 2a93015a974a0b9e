package history

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"fbinsights/pkg/analytics"
	"fbinsights/pkg/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func postAnalytics(id, impressions string) graph.PostAnalytics {
	insights := graph.NewPostInsights()
	insights.Set("post_impressions", json.Number(impressions))
	insights.Set("post_reactions_like_total", "3")
	return graph.PostAnalytics{
		PostDetails: json.RawMessage(`{"id":"` + id + `","message":"hello"}`),
		Insights:    insights,
		Summary:     graph.Summarize(insights),
	}
}

func runResult(startedAt time.Time, posts ...graph.PostAnalytics) *analytics.Result {
	if posts == nil {
		posts = []graph.PostAnalytics{}
	}
	return &analytics.Result{
		Clean: analytics.CleanReport{
			PageLevelSummary: map[string]json.RawMessage{
				"page_fans": json.RawMessage("1200"),
			},
			ComprehensivePostAnalytics: posts,
		},
		PageID:    "654529707751538",
		Period:    "days_28",
		StartedAt: startedAt,
		Duration:  1500 * time.Millisecond,
	}
}

func TestRecordAndListRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := store.RecordRun(ctx, runResult(started,
		postAnalytics("1_1", "98765432109876543210"),
		postAnalytics("1_2", "15"),
	))
	require.NoError(t, err)
	assert.Positive(t, id)

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, id, run.ID)
	assert.True(t, started.Equal(run.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, run.Duration)
	assert.Equal(t, "654529707751538", run.PageID)
	assert.Equal(t, "days_28", run.Period)
	assert.Equal(t, 2, run.PostCount)
	assert.Equal(t, 2*8, run.Unavailable)
	assert.JSONEq(t, `{"page_fans":1200}`, string(run.PageSummary))

	posts, err := store.RunPosts(ctx, id)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "1_1", posts[0].PostID)
	assert.Equal(t, json.Number("98765432109876543210"), posts[0].Impressions)
	assert.Equal(t, json.Number("0"), posts[0].Reach)
	assert.Equal(t, json.Number("3"), posts[0].TotalLikes)
	assert.Equal(t, "1_2", posts[1].PostID)
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.RecordRun(ctx, runResult(base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	runs, err := store.RecentRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
	assert.True(t, runs[1].StartedAt.After(runs[2].StartedAt))
	assert.True(t, base.Add(4*time.Hour).Equal(runs[0].StartedAt))

	_, err = store.RecentRuns(ctx, 0)
	assert.Error(t, err)
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	oldID, err := store.RecordRun(ctx, runResult(time.Now().Add(-48*time.Hour), postAnalytics("1_1", "5")))
	require.NoError(t, err)
	_, err = store.RecordRun(ctx, runResult(time.Now()))
	require.NoError(t, err)

	removed, err := store.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	posts, err := store.RunPosts(ctx, oldID)
	require.NoError(t, err)
	assert.Empty(t, posts, "post rows go with their run")
}

func TestForeignKeysOnFreshConnections(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// no idle connections, so every statement runs on a new one
	store.db.SetMaxIdleConns(0)

	var enabled int
	require.NoError(t, store.db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&enabled))
	assert.Equal(t, 1, enabled)

	oldID, err := store.RecordRun(ctx, runResult(time.Now().Add(-48*time.Hour), postAnalytics("1_1", "5")))
	require.NoError(t, err)

	removed, err := store.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var orphans int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM run_posts WHERE run_id = ?`, oldID).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.RecordRun(ctx, runResult(time.Now()))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.RecentRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordRunNil(t *testing.T) {
	store := openTestStore(t)
	_, err := store.RecordRun(context.Background(), nil)
	assert.Error(t, err)
}
