package store

import (
	"context"
	"database/sql"
	"time"

	"airthlab/models"
)

// DeleteUnusedOTPs removes every unused code for the email. Issuing a new OTP
// supersedes all prior ones.
func (s *Store) DeleteUnusedOTPs(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM otps WHERE email = $1 AND is_used = FALSE`, email)
	return err
}

func (s *Store) CreateOTP(ctx context.Context, email, code string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO otps (email, code, expires_at) VALUES ($1, $2, $3)`,
		email, code, expiresAt)
	return err
}

// LatestUnusedOTP returns the most recently issued unused code for the email,
// or sql.ErrNoRows.
func (s *Store) LatestUnusedOTP(ctx context.Context, email string) (*models.OTP, error) {
	var o models.OTP
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, code, expires_at, is_used
		 FROM otps
		 WHERE email = $1 AND is_used = FALSE
		 ORDER BY id DESC LIMIT 1`, email,
	).Scan(&o.ID, &o.Email, &o.Code, &o.ExpiresAt, &o.IsUsed)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ConsumeOTP marks the code used and records the login in one transaction.
func (s *Store) ConsumeOTP(ctx context.Context, otpID int, email string, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE otps SET is_used = TRUE WHERE id = $1`, otpID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE users SET last_login = $1 WHERE email = $2`, at, email)
		return err
	})
}
