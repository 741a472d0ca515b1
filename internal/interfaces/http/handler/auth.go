package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/merchpulse/backend/internal/application/identity"
	"github.com/merchpulse/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles login and logout
type AuthHandler struct {
	BaseHandler
	authService *appidentity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *appidentity.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login verifies username and PIN and issues an access token.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), appidentity.LoginInput{
		Username: req.Username,
		PIN:      req.PIN,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LoginResponse{
		Token: TokenResponse{
			AccessToken: result.AccessToken,
			ExpiresAt:   result.AccessTokenExpiresAt,
			TokenType:   result.TokenType,
		},
		Employee: toEmployeeResponse(result.Employee),
	})
}

// Logout revokes the presented token.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	actor := middleware.GetActor(c)
	if claims == nil || actor == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	err := h.authService.Logout(c.Request.Context(), appidentity.LogoutInput{
		EmployeeID: actor.ID,
		TokenJTI:   claims.ID,
		ExpiresAt:  claims.GetExpiresAtTime(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Logged out"})
}
