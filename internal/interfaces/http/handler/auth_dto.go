package handler

import (
	"time"

	"github.com/google/uuid"
	appidentity "github.com/merchpulse/backend/internal/application/identity"
	"github.com/merchpulse/backend/internal/domain/identity"
)

// LoginRequest represents the request body for employee login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	PIN      string `json:"pin" binding:"required,numeric,min=4,max=12"`
}

// TokenResponse represents the token data in auth responses
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
}

// EmployeeResponse is the public view of an employee
type EmployeeResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	Active      bool      `json:"active"`
	JoinedAt    time.Time `json:"joined_at"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token    TokenResponse    `json:"token"`
	Employee EmployeeResponse `json:"employee"`
}

func toEmployeeResponse(info appidentity.EmployeeInfo) EmployeeResponse {
	perms := info.Permissions
	if perms == nil {
		perms = []string{}
	}
	return EmployeeResponse{
		ID:          info.ID,
		Name:        info.Name,
		Username:    info.Username,
		Role:        info.Role.String(),
		Permissions: perms,
		Active:      info.Active,
		JoinedAt:    info.JoinedAt,
	}
}

func toEmployeeResponses(employees []*identity.Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, len(employees))
	for i, e := range employees {
		out[i] = toEmployeeResponse(appidentity.ToEmployeeInfo(e))
	}
	return out
}
