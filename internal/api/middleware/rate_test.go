package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRateLimitedRouter(t *testing.T, cfg RateLimitConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	limiter, stop := RateLimit(cfg)
	t.Cleanup(stop)

	router := gin.New()
	router.Use(limiter)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})
	return router
}

func TestRateLimitAllowsWithinBurst(t *testing.T) {
	router := newRateLimitedRouter(t, RateLimitConfig{RequestsPerSecond: 100, Burst: 5})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitRejectsOverBurst(t *testing.T) {
	router := newRateLimitedRouter(t, RateLimitConfig{RequestsPerSecond: 1, Burst: 1})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimitStopIsIdempotent(t *testing.T) {
	_, stop := RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	stop()
	stop() // must not panic
}
