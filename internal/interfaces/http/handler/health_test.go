package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantState  string
		wantCheck  string
	}{
		{"no database", nil, http.StatusOK, "ok", ""},
		{"database up", stubPinger{}, http.StatusOK, "ok", "ok"},
		{"database down", stubPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "degraded", "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := clock.Fake(shiftStart)
			h := NewHealthHandler("1.2.3", tt.db, clk)
			clk.Advance(90 * time.Second)

			router := gin.New()
			router.GET("/health", h.Health)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			var body struct {
				Data HealthResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Data.Status)
			assert.Equal(t, "1.2.3", body.Data.Version)
			assert.Equal(t, "1m30s", body.Data.Uptime)
			assert.Equal(t, tt.wantCheck, body.Data.Checks["database"])
		})
	}
}

func TestHealthHandler_SQLite(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	decode(t, w, &resp)
	assert.Equal(t, "ok", resp.Checks["database"])
}
