package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// FindUserByUsername looks up a User by its unique username. The core
// treats User/AuthInfo as an opaque boundary (spec §3); these helpers
// exist only so the bcrypt hash has somewhere to live.
func (s *Store) FindUserByUsername(ctx context.Context, tx *sql.Tx, username string) (User, error) {
	var u User
	err := tx.QueryRowContext(ctx, `SELECT id, username FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username)
	return u, err
}

// CreateUser inserts a new User row with its AuthInfo hash in the same
// transaction.
func (s *Store) CreateUser(ctx context.Context, tx *sql.Tx, username, passwordHash string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO users (username) VALUES (?)`, username)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create user id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO auth_info (user_id, password_hash) VALUES (?, ?)`, id, passwordHash); err != nil {
		return 0, fmt.Errorf("create auth info: %w", err)
	}
	return id, nil
}

// GetAuthInfo loads the password hash for a user.
func (s *Store) GetAuthInfo(ctx context.Context, tx *sql.Tx, userID int64) (AuthInfo, error) {
	var a AuthInfo
	err := tx.QueryRowContext(ctx,
		`SELECT user_id, password_hash FROM auth_info WHERE user_id = ?`, userID,
	).Scan(&a.UserID, &a.PasswordHash)
	return a, err
}

// SetPasswordHash replaces a user's stored password hash.
func (s *Store) SetPasswordHash(ctx context.Context, tx *sql.Tx, userID int64, hash string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO auth_info (user_id, password_hash) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET password_hash = excluded.password_hash`,
		userID, hash)
	if err != nil {
		return fmt.Errorf("set password hash for user %d: %w", userID, err)
	}
	return nil
}
