package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"airthlab/config"
	"airthlab/middleware"
	"airthlab/models"
	"airthlab/services"
)

// memStore is an in-memory stand-in for the Postgres store, implementing both
// the auth and subscription data access surfaces.
type memStore struct {
	users     map[string]*models.User
	otps      []*models.OTP
	blacklist map[string]bool
	plans     map[int]*models.SubscriptionPlan
	subs      []*models.UserSubscription
	nextID    int
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]*models.User),
		blacklist: make(map[string]bool),
		plans:     make(map[int]*models.SubscriptionPlan),
	}
}

func (m *memStore) CreateUser(_ context.Context, email, username, passwordHash string, verified bool) (*models.User, error) {
	m.nextID++
	u := &models.User{ID: m.nextID, Email: email, Username: username,
		PasswordHash: passwordHash, IsVerified: verified, CreatedAt: time.Now().UTC()}
	m.users[email] = u
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) EmailTaken(_ context.Context, email string) (bool, error) {
	_, ok := m.users[email]
	return ok, nil
}

func (m *memStore) UsernameTaken(_ context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) SetLastLogin(_ context.Context, userID int, at time.Time) error {
	for _, u := range m.users {
		if u.ID == userID {
			u.LastLogin = &at
		}
	}
	return nil
}

func (m *memStore) ResetPassword(_ context.Context, email string, otpID int, passwordHash string) error {
	if u, ok := m.users[email]; ok {
		u.PasswordHash = passwordHash
	}
	for _, o := range m.otps {
		if o.ID == otpID {
			o.IsUsed = true
		}
	}
	return nil
}

func (m *memStore) DeleteUnusedOTPs(_ context.Context, email string) error {
	kept := m.otps[:0]
	for _, o := range m.otps {
		if o.Email != email || o.IsUsed {
			kept = append(kept, o)
		}
	}
	m.otps = kept
	return nil
}

func (m *memStore) CreateOTP(_ context.Context, email, code string, expiresAt time.Time) error {
	m.nextID++
	m.otps = append(m.otps, &models.OTP{ID: m.nextID, Email: email, Code: code, ExpiresAt: expiresAt})
	return nil
}

func (m *memStore) LatestUnusedOTP(_ context.Context, email string) (*models.OTP, error) {
	for i := len(m.otps) - 1; i >= 0; i-- {
		if m.otps[i].Email == email && !m.otps[i].IsUsed {
			cp := *m.otps[i]
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) ConsumeOTP(_ context.Context, otpID int, email string, at time.Time) error {
	for _, o := range m.otps {
		if o.ID == otpID {
			o.IsUsed = true
		}
	}
	if u, ok := m.users[email]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (m *memStore) BlacklistToken(_ context.Context, token string) error {
	m.blacklist[token] = true
	return nil
}

func (m *memStore) IsTokenBlacklisted(_ context.Context, token string) (bool, error) {
	return m.blacklist[token], nil
}

func (m *memStore) addPlan(p models.SubscriptionPlan) *models.SubscriptionPlan {
	m.nextID++
	p.ID = m.nextID
	m.plans[p.ID] = &p
	return &p
}

func (m *memStore) ActivePlans(context.Context) ([]models.SubscriptionPlan, error) {
	var out []models.SubscriptionPlan
	for id := 1; id <= m.nextID; id++ {
		if p, ok := m.plans[id]; ok && p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) GetActivePlan(_ context.Context, planID int) (*models.SubscriptionPlan, error) {
	p, ok := m.plans[planID]
	if !ok || !p.IsActive {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetPlan(_ context.Context, planID int) (*models.SubscriptionPlan, error) {
	p, ok := m.plans[planID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) SeedPlan(_ context.Context, p models.SubscriptionPlan) error {
	for _, existing := range m.plans {
		if existing.Name == p.Name {
			return nil
		}
	}
	m.addPlan(p)
	return nil
}

func (m *memStore) ActiveSubscription(_ context.Context, userID int) (*models.UserSubscription, error) {
	for i := len(m.subs) - 1; i >= 0; i-- {
		if m.subs[i].UserID == userID && m.subs[i].Status == models.SubscriptionActive {
			cp := *m.subs[i]
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) ReplaceActiveSubscription(_ context.Context, userID, planID int, start, end time.Time) (*models.UserSubscription, error) {
	for _, s := range m.subs {
		if s.UserID == userID && s.Status == models.SubscriptionActive {
			s.Status = models.SubscriptionExpired
		}
	}
	m.nextID++
	sub := &models.UserSubscription{ID: m.nextID, UserID: userID, PlanID: planID,
		StartDate: start, EndDate: end, Status: models.SubscriptionActive}
	m.subs = append(m.subs, sub)
	cp := *sub
	return &cp, nil
}

func (m *memStore) SetSubscriptionStatus(_ context.Context, subscriptionID int, status string) error {
	for _, s := range m.subs {
		if s.ID == subscriptionID {
			s.Status = status
		}
	}
	return nil
}

// captureMailer records the codes "delivered" so tests can complete OTP flows.
type captureMailer struct {
	codes []string
}

func (m *captureMailer) SendOTP(_ context.Context, _, code string) error {
	m.codes = append(m.codes, code)
	return nil
}

type testServer struct {
	router *gin.Engine
	store  *memStore
	mailer *captureMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		SecretKey:                "test-secret",
		AccessTokenExpireMinutes: 30,
		RefreshTokenExpireDays:   7,
		OTPExpireMinutes:         5,
	}
	st := newMemStore()
	mailer := &captureMailer{}
	tokens := services.NewTokenService(cfg)
	auth := services.NewAuthService(st, tokens, mailer, cfg)
	subs := services.NewSubscriptionService(st)

	authHandler := NewAuthHandler(auth)
	subsHandler := NewSubscriptionHandler(subs)
	guard := middleware.AuthRequired(auth)

	r := gin.New()
	authGroup := r.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/request-otp", authHandler.RequestOTP)
	authGroup.POST("/verify-otp", authHandler.VerifyOTP)
	authGroup.POST("/forgot-password", authHandler.ForgotPassword)
	authGroup.POST("/reset-password", authHandler.ResetPassword)
	authGroup.GET("/protected", guard, authHandler.Protected)
	authGroup.POST("/logout", guard, authHandler.Logout)

	subsGroup := r.Group("/subscriptions")
	subsGroup.GET("/plans", subsHandler.ListPlans)
	subsGroup.POST("/subscribe", guard, subsHandler.Subscribe)
	subsGroup.GET("/my-subscription", guard, subsHandler.MySubscription)
	subsGroup.POST("/cancel", guard, subsHandler.Cancel)

	return &testServer{router: r, store: st, mailer: mailer}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (ts *testServer) register(t *testing.T, email, username, password string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email": email, "username": username, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}
