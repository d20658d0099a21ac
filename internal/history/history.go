package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB manages the SQLite database of trash runs
type DB struct {
	db *sql.DB
}

// Run is one call to the recycle bin and the items it was given
type Run struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	ItemCount  int       `json:"item_count"`
	Forced     bool      `json:"forced"`
	Tier       string    `json:"tier"`
	ResultCode int       `json:"result_code"`
	Aborted    bool      `json:"aborted"`
	Succeeded  bool      `json:"succeeded"`
	CreatedAt  time.Time `json:"created_at"`
	Items      []string  `json:"items,omitempty"` // Only filled by RecordRun input and RunWithItems
}

// Open creates a database connection and initializes the schema
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}

	// _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// A query instead of Ping() so the file is created right away
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize history database (check permissions on %s): %w", dbPath, err)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	h := &DB{db: db}
	if err = h.initSchema(); err != nil {
		return nil, err
	}
	return h, nil
}

// initSchema creates tables and indexes if they don't exist
func (h *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		item_count INTEGER NOT NULL,
		forced INTEGER NOT NULL,
		tier TEXT NOT NULL,
		result_code INTEGER NOT NULL,
		aborted INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS run_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		path TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_run_items_run ON run_items(run_id, position);
	CREATE INDEX IF NOT EXISTS idx_run_items_path ON run_items(path);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := h.db.Exec(schema)
	return err
}

// RecordRun stores a run and its items in one transaction and returns the run ID
func (h *DB) RecordRun(run Run) (int64, error) {
	tx, err := h.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	count := run.ItemCount
	if count == 0 {
		count = len(run.Items)
	}

	res, err := tx.Exec(`
	INSERT INTO runs (started_at, item_count, forced, tier, result_code, aborted, succeeded)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.StartedAt, count, run.Forced, run.Tier, run.ResultCode, run.Aborted, run.Succeeded)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO run_items (run_id, position, path) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare items: %w", err)
	}
	defer stmt.Close()

	for i, p := range run.Items {
		if _, err := stmt.Exec(id, i, p); err != nil {
			return 0, fmt.Errorf("insert item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Close closes the database connection
func (h *DB) Close() error {
	return h.db.Close()
}

// Vacuum optimizes the database (run after large prunes)
func (h *DB) Vacuum() error {
	_, err := h.db.Exec("VACUUM")
	return err
}
