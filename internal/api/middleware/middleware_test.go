package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func router(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r http.Handler, ip string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerClient(t *testing.T) {
	r := router(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1", nil).Code)

	w := get(r, "10.0.0.1", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.2", nil).Code, "other clients have their own bucket")
}

func TestLimiterSweep(t *testing.T) {
	l := NewLimiter(RateLimitConfig{RequestsPerSecond: 5, Burst: 5, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Reserve("a")
	now = now.Add(30 * time.Second)
	l.Reserve("b")
	require.Equal(t, 2, l.Clients())

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Clients())
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		cfg         CORSConfig
		origin      string
		allowOrigin string
		credentials string
	}{
		{"wildcard", DefaultCORSConfig(), "https://any.example", "*", ""},
		{
			name:        "explicit origin",
			cfg:         CORSConfig{AllowOrigins: []string{"https://app.example"}, AllowMethods: []string{"GET"}, AllowCredentials: true},
			origin:      "https://app.example",
			allowOrigin: "https://app.example",
			credentials: "true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := router(CORS(tt.cfg))
			w := get(r, "10.0.0.1", map[string]string{"Origin": tt.origin})
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.allowOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.credentials, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}

	r := router(CORS(CORSConfig{AllowOrigins: []string{"https://app.example"}}))
	w := get(r, "10.0.0.1", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
