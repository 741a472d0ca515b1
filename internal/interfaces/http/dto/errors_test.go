package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodePersistence, http.StatusServiceUnavailable},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeTokenRevoked, http.StatusUnauthorized},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeAccountDeactivated, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeDuplicatePunch, http.StatusConflict},
		{ErrCodePunchOutOfOrder, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"UNAUTHORIZED", ErrCodeForbidden},
		{"PERSISTENCE_FAILURE", ErrCodePersistence},
		{"DUPLICATE_PUNCH_TYPE", ErrCodeDuplicatePunch},
		{"PUNCH_OUT_OF_ORDER", ErrCodePunchOutOfOrder},
		{"INVALID_PIN", ErrCodeInvalidInput},
		{"INVALID_ENTITY_TYPE", ErrCodeInvalidInput},
		{"TOKEN_EXPIRED", ErrCodeTokenExpired},
		{"INVALID_CREDENTIALS", ErrCodeInvalidCredentials},
		// already normalized or unknown codes pass through
		{ErrCodeNotFound, ErrCodeNotFound},
		{"SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestEveryDomainCodeHasAStatus(t *testing.T) {
	for domainCode, apiCode := range DomainErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[apiCode]
		assert.True(t, ok, "%s maps to %s which has no HTTP status", domainCode, apiCode)
	}
}

func TestResponses(t *testing.T) {
	t.Run("success omits error", func(t *testing.T) {
		data, err := json.Marshal(NewSuccessResponse(map[string]string{"status": "CLOCKED_IN"}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":{"status":"CLOCKED_IN"}}`, string(data))
	})

	t.Run("error carries request id", func(t *testing.T) {
		resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Punch not found", "req-1")
		assert.False(t, resp.Success)
		assert.Nil(t, resp.Data)
		assert.Equal(t, "req-1", resp.Error.RequestID)
	})

	t.Run("validation details", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
			{Field: "pin", Message: "Must be numeric"},
		})
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "pin", resp.Error.Details[0].Field)
	})
}
