package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newAuthEngine(t *testing.T) (*gin.Engine, Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	svc := NewService(newMemRepo(), cfg, nil)

	r := gin.New()
	SetupAuthRoutes(r.Group("/api/v1"), NewController(svc), cfg, nil)
	return r, svc
}

func doJSON(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	r, _ := newAuthEngine(t)
	body := `{"first_name":"Jane","last_name":"Doe","email":"jane@example.com","password":"secret123"}`

	if w := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", body); w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", body); w.Code != http.StatusConflict {
		t.Errorf("duplicate: %d", w.Code)
	}

	short := `{"first_name":"Jane","last_name":"Doe","email":"j2@example.com","password":"short"}`
	if w := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", short); w.Code != http.StatusBadRequest {
		t.Errorf("short password: %d", w.Code)
	}
}

func TestLoginEndpointHidesAccountExistence(t *testing.T) {
	r, svc := newAuthEngine(t)
	register(t, svc, "jane@example.com")

	wrong := doJSON(r, http.MethodPost, "/api/v1/auth/login", "", `{"email":"jane@example.com","password":"nope-nope"}`)
	missing := doJSON(r, http.MethodPost, "/api/v1/auth/login", "", `{"email":"who@example.com","password":"nope-nope"}`)
	if wrong.Code != http.StatusUnauthorized || missing.Code != http.StatusUnauthorized {
		t.Fatalf("codes = %d %d", wrong.Code, missing.Code)
	}
	if wrong.Body.String() != missing.Body.String() {
		t.Errorf("bodies differ:\n%s\n%s", wrong.Body.String(), missing.Body.String())
	}
}

func TestMeAndPreferencesEndpoints(t *testing.T) {
	r, svc := newAuthEngine(t)
	resp := register(t, svc, "jane@example.com")

	if w := doJSON(r, http.MethodGet, "/api/v1/auth/me", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous me: %d", w.Code)
	}

	w := doJSON(r, http.MethodPatch, "/api/v1/auth/me/preferences", resp.AccessToken, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing preference: %d", w.Code)
	}

	w = doJSON(r, http.MethodPatch, "/api/v1/auth/me/preferences", resp.AccessToken, `{"claim_emails":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("preferences: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/api/v1/auth/me", resp.AccessToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d", w.Code)
	}
	var body struct {
		Data UserResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Email != "jane@example.com" || body.Data.ClaimEmails {
		t.Errorf("profile = %+v", body.Data)
	}
}
