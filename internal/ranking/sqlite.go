package ranking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS highscores (
	position INTEGER PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	score    INTEGER NOT NULL
);`

// SQLiteStorage persists the leaderboard in a single SQLite table. The
// position column records registration order so the Store's tie-break
// survives restarts.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLite opens (creating if missing) the leaderboard database at path.
func OpenSQLite(path string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ranking: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("ranking: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ranking: create schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Load reads all rows in registration order.
func (s *SQLiteStorage) Load() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT username, score FROM highscores ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("ranking: load: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Username, &e.Score); err != nil {
			return nil, fmt.Errorf("ranking: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ranking: load: %w", err)
	}
	return entries, nil
}

// Save replaces the table contents with entries, keeping their order.
func (s *SQLiteStorage) Save(entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("ranking: save: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM highscores`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("ranking: clear: %w", err)
	}
	for i, e := range entries {
		if _, err := tx.Exec(
			`INSERT INTO highscores (position, username, score) VALUES (?, ?, ?)`,
			i, e.Username, e.Score,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("ranking: insert %s: %w", e.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ranking: commit: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
