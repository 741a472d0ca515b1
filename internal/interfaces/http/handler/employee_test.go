package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeHandler_List(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/employees", env.login(t, "sam"), nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/employees", env.login(t, "ada"), nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var employees []EmployeeResponse
	decode(t, w, &employees)
	assert.Len(t, employees, 3)
}

func TestEmployeeHandler_CreateAndLogin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "ada")

	w := env.do(t, http.MethodPost, "/api/v1/employees", admin, map[string]any{
		"name": "Nia New", "username": "nia", "pin": "5678", "role": "STAFF",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created EmployeeResponse
	decode(t, w, &created)
	assert.Equal(t, "nia", created.Username)
	assert.True(t, created.Active)
	assert.ElementsMatch(t, []string{"punch:self", "punch:view_own"}, created.Permissions)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "nia", "pin": "5678"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/audit/employee/"+created.ID.String(), admin, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []AuditEntryResponse
	decode(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "EMPLOYEE_CREATED", entries[0].Action)
}

func TestEmployeeHandler_CreateFailures(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "ada")

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{"taken username", map[string]any{"name": "Sam Two", "username": "sam", "pin": "1111", "role": "STAFF"},
			http.StatusConflict, "ERR_ALREADY_EXISTS"},
		{"unknown role", map[string]any{"name": "Ola", "username": "ola", "pin": "1111", "role": "OWNER"},
			http.StatusBadRequest, "ERR_VALIDATION"},
		{"short pin", map[string]any{"name": "Ola", "username": "ola", "pin": "12", "role": "STAFF"},
			http.StatusBadRequest, "ERR_VALIDATION"},
		{"unknown permission", map[string]any{"name": "Ola", "username": "ola", "pin": "1111", "role": "STAFF",
			"permissions": []string{"punch:self", "vault:open"}},
			http.StatusBadRequest, "ERR_INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/employees", admin, tt.body, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestEmployeeHandler_UpdateRole(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "ada")
	sam := env.byName["sam"]

	w := env.do(t, http.MethodPut, "/api/v1/employees/"+sam.ID.String(), admin, map[string]any{"role": "MANAGER"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated EmployeeResponse
	decode(t, w, &updated)
	assert.Equal(t, "MANAGER", updated.Role)
	assert.Contains(t, updated.Permissions, "punch:view_all")
	assert.Equal(t, "Sam Staff", updated.Name)

	w = env.do(t, http.MethodPut, "/api/v1/employees/not-a-uuid", admin, map[string]any{"name": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_BAD_REQUEST", errorCode(t, w))

	w = env.do(t, http.MethodPut, "/api/v1/employees/"+uuid.NewString(), admin, map[string]any{"name": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEmployeeHandler_Deactivate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "ada")
	staffToken := env.login(t, "sam")
	sam := env.byName["sam"]

	w := env.do(t, http.MethodPost, "/api/v1/employees/"+env.byName["ada"].ID.String()+"/deactivate", admin, nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INVALID_STATE", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/api/v1/employees/"+sam.ID.String()+"/deactivate", admin, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var deactivated EmployeeResponse
	decode(t, w, &deactivated)
	assert.False(t, deactivated.Active)

	w = env.do(t, http.MethodGet, "/api/v1/attendance/status", staffToken, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "sam", "pin": testPIN}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "ERR_ACCOUNT_DEACTIVATED", errorCode(t, w))
}
