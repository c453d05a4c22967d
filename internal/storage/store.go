// Package storage persists the learning engine's state.
//
// Architecture:
//   - Single SQLite database (WAL mode) holding items, sessions,
//     segments, aggregate stats and the append-only review-event log.
//   - The review-event log is the source of truth for streaks and
//     achievement reconciliation; the stats row is a cache.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store handles persistence for all engine entities.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database under baseDir.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(baseDir, "studyloop.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewInMemory opens a throwaway in-memory store, used by tests.
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// initSchema creates the database tables.
func (s *Store) initSchema() error {
	if err := s.createBaseSchema(); err != nil {
		return err
	}
	return s.migrateSchema()
}

func (s *Store) createBaseSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS learning_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		topic_id TEXT,
		content TEXT,
		priority INTEGER DEFAULT 3,
		review_count INTEGER DEFAULT 0,
		last_reviewed_at DATETIME,
		next_review_at DATETIME,
		ease_factor REAL DEFAULT 2.5,
		status TEXT DEFAULT 'active',
		maintenance_interval_days INTEGER,
		mode TEXT DEFAULT 'steady',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_user ON learning_items(user_id);
	CREATE INDEX IF NOT EXISTS idx_items_next_review ON learning_items(next_review_at);
	CREATE INDEX IF NOT EXISTS idx_items_status ON learning_items(status);

	CREATE TABLE IF NOT EXISTS focus_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		goal_minutes INTEGER DEFAULT 0,
		total_work_minutes REAL DEFAULT 0,
		total_break_minutes REAL DEFAULT 0,
		adherence_pct REAL DEFAULT 0,
		is_active INTEGER DEFAULT 1,
		is_incomplete INTEGER DEFAULT 0,
		points_earned INTEGER DEFAULT 0,
		points_penalty INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user ON focus_sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_active ON focus_sessions(user_id, is_active);

	CREATE TABLE IF NOT EXISTS focus_segments (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		segment_type TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		duration_minutes REAL DEFAULT 0,
		FOREIGN KEY (session_id) REFERENCES focus_sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_segments_session ON focus_segments(session_id);

	CREATE TABLE IF NOT EXISTS review_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		reviewed_at DATETIME NOT NULL,
		timing_status TEXT,
		points INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_user ON review_events(user_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_time ON review_events(reviewed_at);

	CREATE TABLE IF NOT EXISTS user_stats (
		user_id TEXT PRIMARY KEY,
		total_points INTEGER DEFAULT 0,
		current_streak INTEGER DEFAULT 0,
		longest_streak INTEGER DEFAULT 0,
		last_review_date DATETIME,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS achievement_unlocks (
		user_id TEXT NOT NULL,
		achievement_id TEXT NOT NULL,
		unlocked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, achievement_id)
	);

	CREATE TABLE IF NOT EXISTS pending_completions (
		session_id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		queued_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// migrateSchema handles schema migrations for existing databases.
func (s *Store) migrateSchema() error {
	migrations := []string{
		`ALTER TABLE focus_sessions ADD COLUMN is_incomplete INTEGER DEFAULT 0`,
		`ALTER TABLE learning_items ADD COLUMN maintenance_interval_days INTEGER`,
		`ALTER TABLE learning_items ADD COLUMN ease_factor REAL DEFAULT 2.5`,
	}

	for _, migration := range migrations {
		// Fails when the column already exists, which is fine.
		_, _ = s.db.Exec(migration)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
