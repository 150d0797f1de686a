package store

import (
	"context"
	"database/sql"
	"time"

	"airthlab/models"
)

const userColumns = `id, email, COALESCE(username, ''), COALESCE(password_hash, ''), is_verified, created_at, last_login`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsVerified, &u.CreatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

// CreateUser inserts a new user. Empty username or passwordHash are stored as
// NULL so the unique constraint on username ignores them.
func (s *Store) CreateUser(ctx context.Context, email, username, passwordHash string, verified bool) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (email, username, password_hash, is_verified)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
		 RETURNING id, created_at`,
		email, username, passwordHash, verified,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Email = email
	u.Username = username
	u.PasswordHash = passwordHash
	u.IsVerified = verified
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&taken)
	return taken, err
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&taken)
	return taken, err
}

func (s *Store) SetLastLogin(ctx context.Context, userID int, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = $1 WHERE id = $2`, at, userID)
	return err
}

// ResetPassword sets a new password hash and consumes the OTP that authorized
// the reset in a single transaction.
func (s *Store) ResetPassword(ctx context.Context, email string, otpID int, passwordHash string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET password_hash = $1 WHERE email = $2`, passwordHash, email); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE otps SET is_used = TRUE WHERE id = $1`, otpID)
		return err
	})
}
