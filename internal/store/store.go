package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/studentatlas/internal/model"

	_ "modernc.org/sqlite"
)

// ErrConflict is returned when a versioned write finds the row changed
// since it was read.
var ErrConflict = errors.New("store: value changed since it was read")

const (
	keySemesters    = "semesters"
	keyAchievements = "achievements"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		lang TEXT NOT NULL DEFAULT 'en',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_data (
		user_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, key)
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		user_id TEXT NOT NULL,
		path TEXT NOT NULL,
		hash TEXT NOT NULL,
		PRIMARY KEY (user_id, path)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadSemesters returns the user's semesters and the version they were
// read at. A user with nothing saved gets an empty list and version 0.
func (s *Store) LoadSemesters(ctx context.Context, userID string) ([]model.Semester, int64, error) {
	raw, version, err := s.GetValue(ctx, userID, keySemesters)
	if err != nil {
		return nil, 0, err
	}
	semesters := []model.Semester{}
	if raw == "" {
		return semesters, version, nil
	}
	if err := json.Unmarshal([]byte(raw), &semesters); err != nil {
		return nil, 0, fmt.Errorf("decode semesters for %s: %w", userID, err)
	}
	return semesters, version, nil
}

// SaveSemesters writes the whole collection if it is still at version.
func (s *Store) SaveSemesters(ctx context.Context, userID string, semesters []model.Semester, version int64) (int64, error) {
	if semesters == nil {
		semesters = []model.Semester{}
	}
	data, err := json.Marshal(semesters)
	if err != nil {
		return 0, fmt.Errorf("encode semesters: %w", err)
	}
	return s.PutValue(ctx, userID, keySemesters, string(data), version)
}

// DeleteSemesters removes every semester the user has saved.
func (s *Store) DeleteSemesters(ctx context.Context, userID string) error {
	return s.DeleteValue(ctx, userID, keySemesters)
}

// LoadAchievements returns the stored achievement states, or nil.
func (s *Store) LoadAchievements(ctx context.Context, userID string) ([]model.Achievement, error) {
	raw, _, err := s.GetValue(ctx, userID, keyAchievements)
	if err != nil || raw == "" {
		return nil, err
	}
	var out []model.Achievement
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode achievements for %s: %w", userID, err)
	}
	return out, nil
}

// SaveAchievements overwrites the stored achievement states.
func (s *Store) SaveAchievements(ctx context.Context, userID string, achievements []model.Achievement) error {
	data, err := json.Marshal(achievements)
	if err != nil {
		return fmt.Errorf("encode achievements: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_data (user_id, key, value, version, updated_at) VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value, version = version + 1, updated_at = excluded.updated_at`,
		userID, keyAchievements, string(data), time.Now(),
	)
	return err
}
