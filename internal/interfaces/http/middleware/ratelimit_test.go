package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/stretchr/testify/assert"
)

var limiterStart = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

func TestRateLimiter(t *testing.T) {
	t.Run("allows up to the limit then blocks", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Minute, clock.Fake(limiterStart))

		assert.True(t, rl.Allow("10.0.0.1"))
		assert.True(t, rl.Allow("10.0.0.1"))
		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))
		assert.Equal(t, 0, rl.Remaining("10.0.0.1"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute, clock.Fake(limiterStart))

		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
		assert.True(t, rl.Allow("b"))
	})

	t.Run("window reset restores tokens", func(t *testing.T) {
		clk := clock.Fake(limiterStart)
		rl := NewRateLimiter(1, time.Minute, clk)

		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))

		clk.Advance(time.Minute)
		assert.Equal(t, 1, rl.Remaining("a"))
		assert.True(t, rl.Allow("a"))
	})

	t.Run("idle clients are evicted", func(t *testing.T) {
		clk := clock.Fake(limiterStart)
		rl := NewRateLimiter(1, time.Minute, clk)
		rl.Allow("a")

		clk.Advance(3 * time.Minute)
		rl.Allow("b")

		rl.mu.Lock()
		defer rl.mu.Unlock()
		assert.NotContains(t, rl.clients, "a")
		assert.Contains(t, rl.clients, "b")
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(2, time.Minute, clock.Fake(limiterStart))

	router := gin.New()
	router.Use(RequestID(), RateLimit(rl))
	router.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.10:4321"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send().Code)

	w = send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
}
