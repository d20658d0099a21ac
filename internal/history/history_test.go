package history

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, h.Close()) })
	return h
}

// TestOpenCreatesFile verifies the database file and its parent directory are created
func TestOpenCreatesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "state", "history.db")

	h, err := Open(dbPath)
	require.NoError(t, err)
	defer h.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

// TestWALModeEnabled verifies that WAL mode is properly configured
func TestWALModeEnabled(t *testing.T) {
	h := openTestDB(t)

	var mode string
	require.NoError(t, h.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpenFailsOnUnwritableLocation(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := Open(filepath.Join(blocker, "history.db"))
	assert.Error(t, err)
}

func TestRecordRunAndItems(t *testing.T) {
	h := openTestDB(t)

	started := time.Now().Add(-time.Minute).Truncate(time.Second)
	id, err := h.RecordRun(Run{
		StartedAt:  started,
		Forced:     false,
		Tier:       "prompt",
		ResultCode: 0,
		Succeeded:  true,
		Items:      []string{"b.txt", "a.txt", "b.txt"},
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	items, err := h.RunItems(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "a.txt", "b.txt"}, items, "order and duplicates are kept")

	run, err := h.RunWithItems(id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, 3, run.ItemCount)
	assert.Equal(t, "prompt", run.Tier)
	assert.True(t, run.Succeeded)
	assert.False(t, run.Aborted)
	assert.True(t, started.Equal(run.StartedAt), "started_at round-trips: want %v got %v", started, run.StartedAt)
	assert.Equal(t, items, run.Items)
}

func TestRunWithItemsMissing(t *testing.T) {
	h := openTestDB(t)

	_, err := h.RunWithItems(42)
	assert.Error(t, err)
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	h := openTestDB(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := h.RecordRun(Run{
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Tier:      "single",
			Succeeded: true,
			Items:     []string{filepath.Join("/tmp", string(rune('a'+i)))},
		})
		require.NoError(t, err)
	}

	runs, err := h.RecentRuns(3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
	assert.True(t, runs[1].StartedAt.After(runs[2].StartedAt))
	assert.Nil(t, runs[0].Items)
}

func TestRunsByPath(t *testing.T) {
	h := openTestDB(t)

	now := time.Now()
	first, err := h.RecordRun(Run{StartedAt: now.Add(-2 * time.Minute), Tier: "single", Succeeded: true,
		Items: []string{"/home/u/report.pdf"}})
	require.NoError(t, err)
	second, err := h.RecordRun(Run{StartedAt: now.Add(-time.Minute), Tier: "prompt", Succeeded: true,
		Items: []string{"/home/u/a.log", "/home/u/b.log", "/home/u/c.log"}})
	require.NoError(t, err)

	tests := []struct {
		name    string
		pattern string
		want    []int64
	}{
		{"exact", "/home/u/report.pdf", []int64{first}},
		{"suffix wildcard", "%.log", []int64{second}},
		{"run listed once", "/home/u/%", []int64{second, first}},
		{"no match", "/nowhere/%", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := h.RunsByPath(tt.pattern)
			require.NoError(t, err)
			var got []int64
			for _, r := range runs {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStats(t *testing.T) {
	h := openTestDB(t)

	now := time.Now()
	records := []Run{
		{StartedAt: now.Add(-time.Hour), Tier: "single", Succeeded: true, Items: []string{"a"}},
		{StartedAt: now.Add(-time.Hour), Tier: "forced", Forced: true, Succeeded: true, Items: []string{"b", "c", "d"}},
		{StartedAt: now.Add(-time.Hour), Tier: "prompt", ResultCode: 2, Aborted: true, Items: []string{"e", "f"}},
		{StartedAt: now.Add(-time.Hour), Tier: "single", ResultCode: 2, Items: []string{"g"}},
		// Outside the window
		{StartedAt: now.AddDate(0, 0, -10), Tier: "single", Succeeded: true, Items: []string{"old"}},
	}
	for _, r := range records {
		_, err := h.RecordRun(r)
		require.NoError(t, err)
	}

	stats, err := h.Stats(7)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalRuns)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Aborted)
	assert.Equal(t, 4, stats.ItemsTrashed)
	assert.Equal(t, map[string]int{"single": 2, "forced": 1, "prompt": 1}, stats.ByTier)
	assert.True(t, stats.StartDate.Before(stats.EndDate))
}

func TestStatsEmpty(t *testing.T) {
	h := openTestDB(t)

	stats, err := h.Stats(30)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRuns)
	assert.Zero(t, stats.ItemsTrashed)
	assert.Empty(t, stats.ByTier)
}

func TestPruneOlderThan(t *testing.T) {
	h := openTestDB(t)

	now := time.Now()
	oldID, err := h.RecordRun(Run{StartedAt: now.AddDate(0, 0, -40), Tier: "single", Succeeded: true,
		Items: []string{"/old"}})
	require.NoError(t, err)
	newID, err := h.RecordRun(Run{StartedAt: now.AddDate(0, 0, -1), Tier: "single", Succeeded: true,
		Items: []string{"/new"}})
	require.NoError(t, err)

	n, err := h.PruneOlderThan(30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	runs, err := h.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, newID, runs[0].ID)

	items, err := h.RunItems(oldID)
	require.NoError(t, err)
	assert.Empty(t, items, "items of pruned runs are removed")

	require.NoError(t, h.Vacuum())
}

// TestConcurrentRecords verifies WAL mode handles concurrent writers
func TestConcurrentRecords(t *testing.T) {
	h := openTestDB(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.RecordRun(Run{
				StartedAt: time.Now(),
				Tier:      "single",
				Succeeded: true,
				Items:     []string{filepath.Join("/tmp", "worker", string(rune('a'+i)))},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	runs, err := h.RecentRuns(workers * 2)
	require.NoError(t, err)
	assert.Len(t, runs, workers)
}
