package store

import (
	"context"
)

// BlacklistToken records a revoked token. Rows are never deleted; the guard
// checks the raw string on every protected request.
func (s *Store) BlacklistToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO token_blacklist (token) VALUES ($1)`, token)
	return err
}

func (s *Store) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE token = $1)`, token,
	).Scan(&revoked)
	return revoked, err
}
