package history

import (
	"fmt"
	"time"
)

const runColumns = `id, started_at, item_count, forced, tier, result_code, aborted, succeeded, created_at`

// RecentRuns returns the N most recent runs
func (h *DB) RecentRuns(limit int) ([]Run, error) {
	query := `
	SELECT ` + runColumns + `
	FROM runs
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`

	return h.queryRuns(query, limit)
}

// RunsByPath returns runs that included an item matching a SQL LIKE pattern
func (h *DB) RunsByPath(pathPattern string) ([]Run, error) {
	query := `
	SELECT ` + runColumns + `
	FROM runs
	WHERE id IN (SELECT run_id FROM run_items WHERE path LIKE ?)
	ORDER BY started_at DESC, id DESC
	`

	return h.queryRuns(query, pathPattern)
}

// RunItems returns the items of a run in the order they were trashed
func (h *DB) RunItems(runID int64) ([]string, error) {
	rows, err := h.db.Query(`
	SELECT path FROM run_items WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// RunWithItems returns a run and its items
func (h *DB) RunWithItems(runID int64) (*Run, error) {
	runs, err := h.queryRuns(`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %d not found", runID)
	}

	run := runs[0]
	run.Items, err = h.RunItems(runID)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Stats holds aggregated statistics
type Stats struct {
	TotalRuns    int            `json:"total_runs"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	Aborted      int            `json:"aborted"`
	ItemsTrashed int            `json:"items_trashed"`
	ByTier       map[string]int `json:"by_tier"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      time.Time      `json:"end_date"`
}

// Stats returns statistics for runs started in the last days
func (h *DB) Stats(days int) (*Stats, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	stats := &Stats{
		StartDate: since,
		EndDate:   now,
		ByTier:    make(map[string]int),
	}

	err := h.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN succeeded = 1 THEN 1 END),
			COUNT(CASE WHEN succeeded = 0 AND aborted = 0 THEN 1 END),
			COUNT(CASE WHEN aborted = 1 THEN 1 END),
			COALESCE(SUM(CASE WHEN succeeded = 1 THEN item_count END), 0)
		FROM runs
		WHERE started_at >= ?
	`, since).Scan(&stats.TotalRuns, &stats.Succeeded, &stats.Failed, &stats.Aborted, &stats.ItemsTrashed)
	if err != nil {
		return nil, err
	}

	rows, err := h.db.Query(`
		SELECT tier, COUNT(*)
		FROM runs
		WHERE started_at >= ?
		GROUP BY tier
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tier string
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, err
		}
		stats.ByTier[tier] = count
	}

	return stats, rows.Err()
}

// PruneOlderThan removes runs started more than days ago, with their items
func (h *DB) PruneOlderThan(days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	tx, err := h.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM run_items WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)
	`, cutoff); err != nil {
		return 0, err
	}

	result, err := tx.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return n, tx.Commit()
}

// queryRuns is a helper function to execute queries and scan results
func (h *DB) queryRuns(query string, args ...interface{}) ([]Run, error) {
	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.ItemCount, &r.Forced, &r.Tier,
			&r.ResultCode, &r.Aborted, &r.Succeeded, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
