package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ecodepin/ecodepin-api/models"
)

func serve(router *gin.Engine, method, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		origins        []string
		origin         string
		method         string
		expectedStatus int
		expectedAllow  string
	}{
		{name: "Wildcard Reflects Origin", origins: []string{"*"}, origin: "https://app.example", method: http.MethodGet, expectedStatus: http.StatusOK, expectedAllow: "https://app.example"},
		{name: "Listed Origin", origins: []string{"https://a.example", "https://b.example"}, origin: "https://b.example", method: http.MethodGet, expectedStatus: http.StatusOK, expectedAllow: "https://b.example"},
		{name: "Unlisted Origin", origins: []string{"https://a.example"}, origin: "https://evil.example", method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "Preflight", origins: []string{"*"}, origin: "https://app.example", method: http.MethodOptions, expectedStatus: http.StatusNoContent, expectedAllow: "https://app.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.origins))
			router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := serve(router, tt.method, "/test", func(r *http.Request) { r.Header.Set("Origin", tt.origin) })
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedAllow, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.expectedAllow != "" {
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/api/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, http.MethodGet, "/api/x", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := serve(router, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "kaboom")

	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	assert.Equal(t, "kaboom", logs.All()[0].ContextMap()["panic"])
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(userKey, &models.User{ID: "user_1"})
		c.Next()
	})
	router.Use(RequestLogger(zap.New(core)))
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(router, http.MethodGet, "/items/42", nil)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/items/:id", fields["route"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, "user_1", fields["user_id"])
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Blocks After Burst", func(t *testing.T) {
		rl := NewRateLimiter(1, 2, zap.NewNop())
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		router := gin.New()
		router.Use(rl.Handler())
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		fromIP := func(r *http.Request) { r.RemoteAddr = "10.0.0.1:1234" }
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", fromIP).Code)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", fromIP).Code)

		w := serve(router, http.MethodGet, "/test", fromIP)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Too many requests"}`, w.Body.String())

		// Another caller has its own bucket.
		other := func(r *http.Request) { r.RemoteAddr = "10.0.0.2:1234" }
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", other).Code)

		now = now.Add(time.Second)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", fromIP).Code)
	})

	t.Run("Keys On User When Authenticated", func(t *testing.T) {
		rl := NewRateLimiter(1, 1, zap.NewNop())
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set(userKey, &models.User{ID: c.GetHeader("X-User")})
			c.Next()
		})
		router.Use(rl.Handler())
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		as := func(id string) func(*http.Request) {
			return func(r *http.Request) { r.Header.Set("X-User", id) }
		}
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", as("a")).Code)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", as("b")).Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodGet, "/test", as("a")).Code)
	})

	t.Run("Prune", func(t *testing.T) {
		rl := NewRateLimiter(1, 1, zap.NewNop())
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		rl.allow("old")
		now = now.Add(time.Hour)
		rl.allow("new")

		assert.Equal(t, 1, rl.Prune(30*time.Minute))
		assert.Equal(t, 1, rl.Len())
	})
}

func TestMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(m.Instrument())
	router.GET("/metrics", m.Handler())
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/items/1", nil)
	serve(router, http.MethodGet, "/items/2", nil)
	m.RecordJobRun("session_cleanup", 3, 10*time.Millisecond, true)

	w := serve(router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `ecodepin_http_requests_total{method="GET",route="/items/:id",status="200"} 2`)
	assert.Contains(t, body, `ecodepin_jobs_runs_total{job="session_cleanup",success="true"} 1`)
	assert.Contains(t, body, `ecodepin_jobs_processed_total{job="session_cleanup"} 3`)
}
