package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"airthlab/config"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carries the registered claim set plus the access/refresh
// discriminator. The subject is the user's email.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// TokenService signs and verifies HS256 tokens with a shared secret.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.SecretKey),
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
		now:        time.Now,
	}
}

func (s *TokenService) IssueAccessToken(email string) (string, error) {
	return s.issue(email, TokenTypeAccess, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(email string) (string, error) {
	return s.issue(email, TokenTypeRefresh, s.refreshTTL)
}

// IssuePair mints the access+refresh pair returned by every login flow.
func (s *TokenService) IssuePair(email string) (*TokenPair, error) {
	access, err := s.IssueAccessToken(email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefreshToken(email)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func (s *TokenService) issue(email, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
	})
	return token.SignedString(s.secret)
}

// Parse verifies the signature and expiry and returns the claims.
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
