package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airthlab/config"
)

func newTokenService(secret string) *TokenService {
	return NewTokenService(&config.Config{
		SecretKey:                secret,
		AccessTokenExpireMinutes: 30,
		RefreshTokenExpireDays:   7,
	})
}

func TestIssueAndParseAccessToken(t *testing.T) {
	t.Parallel()
	svc := newTokenService("super-secret")

	tok, err := svc.IssueAccessToken("a@x.com")
	require.NoError(t, err)

	claims, err := svc.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotNil(t, claims.IssuedAt)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestRefreshTokenTypeDiscriminator(t *testing.T) {
	t.Parallel()
	svc := newTokenService("super-secret")

	tok, err := svc.IssueRefreshToken("a@x.com")
	require.NoError(t, err)

	claims, err := svc.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.True(t, claims.ExpiresAt.After(time.Now().Add(6*24*time.Hour)))
}

func TestParseExpiredToken(t *testing.T) {
	t.Parallel()
	svc := newTokenService("super-secret")
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	tok, err := svc.IssueAccessToken("a@x.com")
	require.NoError(t, err)

	_, err = svc.Parse(tok)
	require.Error(t, err)
}

func TestParseWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := newTokenService("right-secret").IssueAccessToken("a@x.com")
	require.NoError(t, err)

	_, err = newTokenService("wrong-secret").Parse(tok)
	require.Error(t, err)
}

func TestParseGarbage(t *testing.T) {
	t.Parallel()
	svc := newTokenService("super-secret")

	_, err := svc.Parse("not-a-jwt")
	require.Error(t, err)
}

func TestIssuePair(t *testing.T) {
	t.Parallel()
	svc := newTokenService("super-secret")

	pair, err := svc.IssuePair("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access, err := svc.Parse(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := svc.Parse(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
}
