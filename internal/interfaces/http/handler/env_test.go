package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appattendance "github.com/merchpulse/backend/internal/application/attendance"
	appaudit "github.com/merchpulse/backend/internal/application/audit"
	"github.com/merchpulse/backend/internal/application/authz"
	appidentity "github.com/merchpulse/backend/internal/application/identity"
	"github.com/merchpulse/backend/internal/application/session"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/merchpulse/backend/internal/infrastructure/auth"
	"github.com/merchpulse/backend/internal/infrastructure/cache"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/merchpulse/backend/internal/infrastructure/config"
	"github.com/merchpulse/backend/internal/infrastructure/persistence"
	"github.com/merchpulse/backend/internal/interfaces/http/dto"
	"github.com/merchpulse/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"gorm.io/driver/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var shiftStart = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

const testPIN = "1234"

// testEnv is the full HTTP stack over an in-memory SQLite roster
type testEnv struct {
	router    *gin.Engine
	clock     *clock.FakeClock
	db        *persistence.Database
	employees *persistence.GormEmployeeRepository
	punches   *persistence.GormPunchRepository
	byName    map[string]*identity.Employee
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := persistence.NewDatabaseFromDialector(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate())

	clk := clock.Fake(shiftStart)
	log := zap.NewNop()
	employees := persistence.NewGormEmployeeRepository(db.DB)
	punches := persistence.NewGormPunchRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)

	sessions := session.ContextProvider{}
	policy := authz.NewPolicy(sessions, nil, log)
	auditService := appaudit.NewService(auditRepo, sessions, policy, clk, 0, log)
	blacklist := auth.NewInMemoryTokenBlacklist(clk)
	jwtService, err := auth.NewJWTService(config.JWTConfig{
		Secret:                "handler-test-secret-with-enough-length",
		AccessTokenExpiration: 8 * time.Hour,
		Issuer:                "merchpulse-test",
	}, clk)
	require.NoError(t, err)

	authService := appidentity.NewAuthService(employees, jwtService, blacklist, clk, log)
	employeeService := appidentity.NewEmployeeService(employees, policy, auditService, blacklist, 8*time.Hour, clk, nil, log)

	earnings, err := appattendance.NewEarningsPolicy(decimal.NewFromInt(20), "USD", false, language.English)
	require.NoError(t, err)
	engine := appattendance.NewEngine(appattendance.EngineDeps{
		Punches:     punches,
		Employees:   employees,
		Session:     sessions,
		Policy:      policy,
		Audit:       auditService,
		Idempotency: cache.NewInMemoryIdempotencyStore(clk),
		Clock:       clk,
		Logger:      log,
	}, appattendance.EngineConfig{Location: time.UTC, Earnings: earnings})

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.JWTAuthMiddleware(authService))

	health := NewHealthHandler("test", db, clk)
	router.GET("/health", health.Health)

	v1 := router.Group("/api/v1")
	authHandler := NewAuthHandler(authService)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/logout", authHandler.Logout)

	attendanceHandler := NewAttendanceHandler(engine)
	v1.GET("/attendance/status", attendanceHandler.Status)
	v1.POST("/attendance/punches", attendanceHandler.RecordPunch)
	v1.PUT("/attendance/punches/:id", attendanceHandler.CorrectPunch)
	v1.GET("/attendance/team", attendanceHandler.TeamDay)

	auditHandler := NewAuditHandler(auditService)
	v1.GET("/audit/recent", auditHandler.Recent)
	v1.GET("/audit/:entity_type/:entity_id", auditHandler.ForEntity)

	employeeHandler := NewEmployeeHandler(employeeService)
	v1.GET("/employees", employeeHandler.List)
	v1.POST("/employees", employeeHandler.Create)
	v1.PUT("/employees/:id", employeeHandler.Update)
	v1.POST("/employees/:id/deactivate", employeeHandler.Deactivate)

	env := &testEnv{
		router:    router,
		clock:     clk,
		db:        db,
		employees: employees,
		punches:   punches,
		byName:    map[string]*identity.Employee{},
	}
	env.seed(t, "Ada Admin", "ada", identity.RoleAdmin)
	env.seed(t, "Max Manager", "max", identity.RoleManager)
	env.seed(t, "Sam Staff", "sam", identity.RoleStaff)
	return env
}

func (e *testEnv) seed(t *testing.T, name, username string, role identity.Role) {
	t.Helper()
	emp, err := identity.NewEmployee(name, username, testPIN, role, shiftStart.AddDate(0, -1, 0))
	require.NoError(t, err)
	require.NoError(t, e.employees.Save(t.Context(), emp))
	e.byName[username] = emp
}

// login signs in through the API and returns the bearer token
func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "pin": testPIN}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token.AccessToken)
	return body.Data.Token.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the data field of a success envelope into out
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

// errorCode returns the error code of a failure envelope
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}
