package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/pavelanni/studentatlas/internal/model"
)

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, u model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if u.Lang == "" {
		u.Lang = "en"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, display_name, email, lang, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.DisplayName, u.Email, u.Lang, u.CreatedAt,
	)
	if err != nil {
		slog.Error("failed to create user", "user_id", u.ID, "error", err)
		return err
	}
	slog.Info("created user", "user_id", u.ID)
	return nil
}

// GetUser returns a user by ID, or nil if absent.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, email, lang, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.DisplayName, &u.Email, &u.Lang, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureUser returns the user with the given ID, creating it if needed.
func (s *Store) EnsureUser(ctx context.Context, u model.User) (*model.User, error) {
	existing, err := s.GetUser(ctx, u.ID)
	if err != nil || existing != nil {
		return existing, err
	}
	if err := s.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, u.ID)
}

// UpdateUser changes a user's profile fields.
func (s *Store) UpdateUser(ctx context.Context, u model.User) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET display_name = ?, email = ?, lang = ? WHERE id = ?`,
		u.DisplayName, u.Email, u.Lang, u.ID,
	)
	return err
}

// ListUsers returns all users.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, display_name, email, lang, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email, &u.Lang, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
