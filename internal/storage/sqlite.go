package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brizzai/notion-tasks-sync/internal/models"
	_ "modernc.org/sqlite" // SQLite driver
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	email          TEXT NOT NULL DEFAULT '',
	tasks_list_id  TEXT NOT NULL DEFAULT '',
	database_id    TEXT NOT NULL DEFAULT '',
	last_synced_at TEXT,
	updated_at     TEXT NOT NULL
)`

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. ":memory:" is
// accepted for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(usersSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating users table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	var (
		rec        models.UserRecord
		lastSynced sql.NullString
		updatedAt  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, tasks_list_id, database_id, last_synced_at, updated_at FROM users WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Email, &rec.TasksListID, &rec.DatabaseID, &lastSynced, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if lastSynced.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastSynced.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_synced_at: %w", err)
		}
		rec.LastSyncedAt = &t
	}
	return &rec, nil
}

func (s *SQLiteStore) SaveUser(ctx context.Context, rec *models.UserRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("user record needs an id")
	}

	var lastSynced sql.NullString
	if rec.LastSyncedAt != nil {
		lastSynced = sql.NullString{String: rec.LastSyncedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, tasks_list_id, database_id, last_synced_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			tasks_list_id = excluded.tasks_list_id,
			database_id = excluded.database_id,
			last_synced_at = excluded.last_synced_at,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Email, rec.TasksListID, rec.DatabaseID, lastSynced, rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
