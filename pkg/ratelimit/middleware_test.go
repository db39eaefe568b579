package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestGetRateLimitType(t *testing.T) {
	cases := map[string]RateLimitType{
		"/health":                          RateLimitTypeHealth,
		"/metrics":                         RateLimitTypeHealth,
		"/api/v1/admin/pipeline/sweep":     RateLimitTypeAdmin,
		"/api/v1/claims/:id":               RateLimitTypeClaim,
		"/api/v1/bookings/:id/eligibility": RateLimitTypeClaim,
		"/api/v1/auth/me":                  RateLimitTypeDefault,
		"":                                 RateLimitTypeDefault,
	}
	for path, want := range cases {
		if got := getRateLimitType(path); got != want {
			t.Errorf("getRateLimitType(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"bad forwarded falls through", map[string]string{"X-Forwarded-For": "garbage", "X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
		{"remote addr", nil, "192.0.2.1"},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		for k, v := range tc.headers {
			c.Request.Header.Set(k, v)
		}
		if got := getClientIP(c); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func testConfig() *Config {
	return &Config{
		Enabled:         true,
		WindowDuration:  time.Minute,
		DefaultRequests: 60,
		AuthRequests:    10,
		WhitelistedIPs:  []string{"192.0.2.1"},
	}
}

// unreachable fails every command with connection refused.
func unreachable() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func serve(h gin.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/auth/login", h, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWhitelistedClientSkipsRedis(t *testing.T) {
	client := unreachable()
	defer client.Close()

	w := serve(ForType(NewRateLimiter(client, testConfig()), RateLimitTypeAuth), "192.0.2.1:5000")
	if w.Code != http.StatusNoContent {
		t.Fatalf("code = %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "10" {
		t.Errorf("limit header = %q", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRedisFailureFailsOpen(t *testing.T) {
	client := unreachable()
	defer client.Close()

	w := serve(ForType(NewRateLimiter(client, testConfig()), RateLimitTypeAuth), "198.51.100.9:5000")
	if w.Code != http.StatusNoContent {
		t.Fatalf("code = %d, want request to pass", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "" {
		t.Error("headers set without a limit decision")
	}
}

func TestForTypeNilLimiter(t *testing.T) {
	if ForType(nil, RateLimitTypeAuth) != nil {
		t.Fatal("nil limiter should produce no middleware")
	}
}
