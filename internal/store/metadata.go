package store

import (
	"context"
	"database/sql"
	"time"
)

// GetValue returns a user's value for key and its version.
// A missing key yields an empty string, version 0 and a nil error.
func (s *Store) GetValue(ctx context.Context, userID, key string) (string, int64, error) {
	var value string
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, version FROM user_data WHERE user_id = ? AND key = ?`, userID, key,
	).Scan(&value, &version)
	if err == sql.ErrNoRows {
		return "", 0, nil
	}
	return value, version, err
}

// PutValue stores value under key if the row is still at version.
// Version 0 means the caller saw no row. It returns the new version.
func (s *Store) PutValue(ctx context.Context, userID, key, value string, version int64) (int64, error) {
	now := time.Now()
	var res sql.Result
	var err error
	if version == 0 {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO user_data (user_id, key, value, version, updated_at) VALUES (?, ?, ?, 1, ?)
			 ON CONFLICT(user_id, key) DO NOTHING`,
			userID, key, value, now,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE user_data SET value = ?, version = version + 1, updated_at = ?
			 WHERE user_id = ? AND key = ? AND version = ?`,
			value, now, userID, key, version,
		)
	}
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrConflict
	}
	return version + 1, nil
}

// DeleteValue removes a user's key. Deleting a missing key is not an error.
func (s *Store) DeleteValue(ctx context.Context, userID, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_data WHERE user_id = ? AND key = ?`, userID, key)
	return err
}

// GetImportedFileHash returns the hash recorded for an imported file, or "".
func (s *Store) GetImportedFileHash(ctx context.Context, userID, path string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT hash FROM imported_files WHERE user_id = ? AND path = ?`, userID, path,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records the hash of an imported file.
func (s *Store) SetImportedFileHash(ctx context.Context, userID, path, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO imported_files (user_id, path, hash) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, path) DO UPDATE SET hash = excluded.hash`,
		userID, path, hash,
	)
	return err
}
