package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"autoclaim/internal/shared/config"
	"autoclaim/internal/shared/middleware"
	"autoclaim/internal/users"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]*users.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*users.User{}}
}

func (m *memRepo) CreateUser(_ context.Context, u *users.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrUserAlreadyExists
		}
	}
	u.ID = uuid.New()
	cp := *u
	m.users[u.ID.String()] = &cp
	return nil
}

func (m *memRepo) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memRepo) GetUserByID(_ context.Context, id string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) UpdateUserPassword(_ context.Context, id, hashed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Password = hashed
	return nil
}

func (m *memRepo) UpdateClaimEmails(_ context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.ClaimEmails = enabled
	return nil
}

func (m *memRepo) RecordLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *memRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			JWTExpiresIn:     15 * time.Minute,
			RefreshExpiresIn: time.Hour,
			AdminEmails:      []string{"ops@autoclaim.app"},
		},
	}
}

func register(t *testing.T, svc Service, email string) *AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &RegisterRequest{
		FirstName: "John",
		LastName:  "Smith",
		Email:     email,
		Password:  "secret123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return resp
}

func TestRegisterAssignsRoles(t *testing.T) {
	svc := NewService(newMemRepo(), testConfig(), nil)

	user := register(t, svc, "John@Example.com ")
	if user.User.Role != string(users.RoleUser) || user.User.Email != "john@example.com" {
		t.Errorf("user = %+v", user.User)
	}

	admin := register(t, svc, "OPS@autoclaim.app")
	if admin.User.Role != string(users.RoleAdmin) {
		t.Errorf("admin role = %s", admin.User.Role)
	}

	_, err := svc.Register(context.Background(), &RegisterRequest{
		FirstName: "J", LastName: "S", Email: "john@example.com", Password: "secret123",
	})
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("duplicate err = %v", err)
	}
}

func TestLoginAndRefresh(t *testing.T) {
	svc := NewService(newMemRepo(), testConfig(), nil)
	register(t, svc, "john@example.com")

	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "john@example.com", Password: "wrong-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "secret123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}

	resp, err := svc.Login(context.Background(), &LoginRequest{Email: "JOHN@example.com", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}

	claims, err := svc.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Type != tokenTypeAccess || claims.Issuer != tokenIssuer || claims.UserID != resp.User.ID {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.RefreshToken(context.Background(), resp.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh with access token err = %v", err)
	}
	pair, err := svc.RefreshToken(context.Background(), resp.RefreshToken)
	if err != nil || pair.AccessToken == "" {
		t.Fatalf("refresh = %+v, %v", pair, err)
	}
}

func TestExpiredTokenIsReported(t *testing.T) {
	svc := NewService(newMemRepo(), testConfig(), nil)
	resp := register(t, svc, "john@example.com")

	svc.(*service).now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	pair, err := svc.RefreshToken(context.Background(), resp.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := NewService(newMemRepo(), testConfig(), nil)
	resp := register(t, svc, "john@example.com")

	err := svc.ChangePassword(context.Background(), resp.User.ID, &ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "another1"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v", err)
	}
	if err := svc.ChangePassword(context.Background(), resp.User.ID, &ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "another1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "john@example.com", Password: "another1"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestMiddlewareAcceptsOnlyAccessTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	svc := NewService(newMemRepo(), cfg, nil)
	admin := register(t, svc, "ops@autoclaim.app")
	user := register(t, svc, "john@example.com")

	r := gin.New()
	r.GET("/me", middleware.JWTAuthWithConfig(cfg), func(c *gin.Context) {
		id, err := middleware.UserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	r.GET("/admin", middleware.JWTAuthWithConfig(cfg), middleware.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	call := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := call("/me", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: %d", w.Code)
	}
	if w := call("/me", user.RefreshToken); w.Code != http.StatusUnauthorized {
		t.Errorf("refresh token: %d", w.Code)
	}
	if w := call("/me", user.AccessToken); w.Code != http.StatusOK || w.Body.String() != user.User.ID {
		t.Errorf("access token: %d %s", w.Code, w.Body.String())
	}
	if w := call("/admin", user.AccessToken); w.Code != http.StatusForbidden {
		t.Errorf("user on admin route: %d", w.Code)
	}
	if w := call("/admin", admin.AccessToken); w.Code != http.StatusNoContent {
		t.Errorf("admin on admin route: %d", w.Code)
	}
}

func TestClaimEmailPreference(t *testing.T) {
	svc := NewService(newMemRepo(), testConfig(), nil)
	resp := register(t, svc, "john@example.com")
	if !resp.User.ClaimEmails {
		t.Fatal("claim emails should default to on")
	}

	off := false
	quiet, err := svc.Register(context.Background(), &RegisterRequest{
		FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Password: "secret123", ClaimEmails: &off,
	})
	if err != nil {
		t.Fatal(err)
	}
	if quiet.User.ClaimEmails {
		t.Error("opt-out at registration was ignored")
	}

	profile, err := svc.UpdatePreferences(context.Background(), resp.User.ID, &UpdatePreferencesRequest{ClaimEmails: &off})
	if err != nil {
		t.Fatal(err)
	}
	if profile.ClaimEmails {
		t.Error("preference not updated")
	}

	dir := NewContactDirectory(svc.(*service).repo)
	enabled, err := dir.ClaimEmailsEnabled(context.Background(), uuid.MustParse(resp.User.ID))
	if err != nil || enabled {
		t.Fatalf("directory = %v, %v", enabled, err)
	}
	email, _, _, err := dir.GetUserByID(context.Background(), uuid.MustParse(resp.User.ID))
	if err != nil || email != "john@example.com" {
		t.Fatalf("contact = %q, %v", email, err)
	}
}

func TestLoginRecordsLastLogin(t *testing.T) {
	svc := NewService(newMemRepo(), testConfig(), nil)
	resp := register(t, svc, "john@example.com")
	if resp.User.LastLoginAt != nil {
		t.Fatal("new account has a login time")
	}

	at := time.Date(2026, time.January, 7, 9, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return at }
	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "john@example.com", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}

	profile, err := svc.GetProfile(context.Background(), resp.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if profile.LastLoginAt == nil || !profile.LastLoginAt.Equal(at) {
		t.Fatalf("last login = %v", profile.LastLoginAt)
	}
}
