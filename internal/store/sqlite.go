package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with initialization logic.
type DB struct {
	*sql.DB
}

// Open creates or opens the SQLite database at the given path, runs schema
// initialization, and configures WAL mode so readers never wait on the writer.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One logical writer (the capture loop) plus concurrent API readers.
	// WAL lets readers proceed against the last committed snapshot.
	db.SetMaxOpenConns(4)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS observations (
  id TEXT PRIMARY KEY,
  ts INTEGER NOT NULL,
  active_application TEXT NOT NULL DEFAULT '',
  window_title TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  labels TEXT,
  tags TEXT,
  private INTEGER NOT NULL DEFAULT 0,
  embedding BLOB,
  embedding_model TEXT,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_observations_ts ON observations(ts);

CREATE TABLE IF NOT EXISTS embedding_cache (
  model TEXT NOT NULL,
  content_hash TEXT NOT NULL,
  embedding BLOB NOT NULL,
  dimension INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  last_used_at INTEGER NOT NULL,
  PRIMARY KEY (model, content_hash)
);

CREATE INDEX IF NOT EXISTS idx_embedding_cache_used ON embedding_cache(last_used_at);
`
	if err := dropStaleCache(db); err != nil {
		return err
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// dropStaleCache removes an embedding_cache table from before entries were
// keyed by model. It only holds derived vectors, so nothing is lost.
func dropStaleCache(db *sql.DB) error {
	var tables, current int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'embedding_cache'`).Scan(&tables)
	if err != nil {
		return fmt.Errorf("inspect embedding cache: %w", err)
	}
	if tables == 0 {
		return nil
	}
	err = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('embedding_cache') WHERE name = 'last_used_at'`).Scan(&current)
	if err != nil {
		return fmt.Errorf("inspect embedding cache: %w", err)
	}
	if current > 0 {
		return nil
	}
	if _, err := db.Exec(`DROP TABLE embedding_cache`); err != nil {
		return fmt.Errorf("drop stale embedding cache: %w", err)
	}
	return nil
}

// ObservationCount returns the total number of stored observations.
func (db *DB) ObservationCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM observations").Scan(&count)
	return count, err
}
