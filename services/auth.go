// Package services contains the business logic between the HTTP layer and the
// store: credential handling, OTP issuance and verification, token signing,
// and the subscription ledger.
package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"airthlab/config"
	"airthlab/models"
)

const minPasswordLength = 8

// AuthStore is the data access surface the auth flows need.
type AuthStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string, verified bool) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	SetLastLogin(ctx context.Context, userID int, at time.Time) error
	ResetPassword(ctx context.Context, email string, otpID int, passwordHash string) error

	DeleteUnusedOTPs(ctx context.Context, email string) error
	CreateOTP(ctx context.Context, email, code string, expiresAt time.Time) error
	LatestUnusedOTP(ctx context.Context, email string) (*models.OTP, error)
	ConsumeOTP(ctx context.Context, otpID int, email string, at time.Time) error

	BlacklistToken(ctx context.Context, token string) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

type AuthService struct {
	store  AuthStore
	tokens *TokenService
	mailer Mailer
	otpTTL time.Duration
	now    func() time.Time
}

func NewAuthService(st AuthStore, tokens *TokenService, mailer Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		store:  st,
		tokens: tokens,
		mailer: mailer,
		otpTTL: cfg.OTPTTL(),
		now:    time.Now,
	}
}

// Register creates a verified account with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	if len(password) < minPasswordLength {
		return nil, invalidInput("Password must be at least 8 characters")
	}

	taken, err := s.store.EmailTaken(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if taken {
		return nil, conflict("Email already registered")
	}

	taken, err = s.store.UsernameTaken(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if taken {
		return nil, conflict("Username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, username, string(hash), true)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Login verifies the password and mints a token pair. Accounts created through
// the OTP-only flow have no password and cannot log in here.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, unauthorized("Invalid credentials")
	}
	if !user.IsVerified {
		return nil, forbidden("Account not verified")
	}

	if err := s.store.SetLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("recording login: %w", err)
	}
	return s.tokens.IssuePair(user.Email)
}

// RequestOTP supersedes any unused codes for the email, stores a fresh one,
// and emails it. A delivery failure is surfaced; the stored code stays valid
// so a retry simply supersedes it.
func (s *AuthService) RequestOTP(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("User not found")
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	if err := s.store.DeleteUnusedOTPs(ctx, user.Email); err != nil {
		return fmt.Errorf("superseding OTPs: %w", err)
	}

	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("generating OTP: %w", err)
	}
	if err := s.store.CreateOTP(ctx, user.Email, code, s.now().UTC().Add(s.otpTTL)); err != nil {
		return fmt.Errorf("storing OTP: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, user.Email, code); err != nil {
		return unavailable("Failed to send OTP email")
	}
	return nil
}

// VerifyOTP checks the code against the most recently issued unused OTP,
// consumes it, and mints a token pair.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*TokenPair, error) {
	otp, err := s.checkOTP(ctx, email, code)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("User not found")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.store.ConsumeOTP(ctx, otp.ID, user.Email, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("consuming OTP: %w", err)
	}
	return s.tokens.IssuePair(user.Email)
}

// ForgotPassword issues a password-reset OTP. Same semantics as RequestOTP.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.RequestOTP(ctx, email)
}

// ResetPassword consumes a valid OTP and replaces the password hash
// atomically.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return invalidInput("Password must be at least 8 characters")
	}

	otp, err := s.checkOTP(ctx, email, code)
	if err != nil {
		return err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("User not found")
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.store.ResetPassword(ctx, user.Email, otp.ID, string(hash)); err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	return nil
}

func (s *AuthService) checkOTP(ctx context.Context, email, code string) (*models.OTP, error) {
	otp, err := s.store.LatestUnusedOTP(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("OTP not found")
		}
		return nil, fmt.Errorf("looking up OTP: %w", err)
	}
	if otp.ExpiresAt.Before(s.now().UTC()) {
		return nil, expired("OTP expired")
	}
	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return nil, invalidInput("Invalid OTP")
	}
	return otp, nil
}

// Logout revokes the presented token. The guard rejects it from now on even
// though its embedded expiry may still be in the future.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.store.BlacklistToken(ctx, token); err != nil {
		return fmt.Errorf("blacklisting token: %w", err)
	}
	return nil
}

// ResolveUser is the session guard: blacklist check, signature/expiry check,
// subject extraction, then user lookup.
func (s *AuthService) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	revoked, err := s.store.IsTokenBlacklisted(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("checking blacklist: %w", err)
	}
	if revoked {
		return nil, unauthorized("Token has been revoked")
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, unauthorized("Invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, unauthorized("Invalid token payload")
	}

	user, err := s.store.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("User not found")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return user, nil
}

// generateOTPCode draws a 6-digit code in [100000, 999999] from crypto/rand.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
