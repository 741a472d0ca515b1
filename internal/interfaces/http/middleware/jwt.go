package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/merchpulse/backend/internal/application/session"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/auth"
	"github.com/merchpulse/backend/internal/infrastructure/logger"
	"github.com/merchpulse/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey     = "jwt_claims"
	JWTEmployeeIDKey = "jwt_employee_id"
	ActorKey         = "actor"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// Authenticator resolves a bearer token to the active employee it was issued to
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identity.Employee, *auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Authenticator Authenticator
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(authn Authenticator) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		Authenticator: authn,
		SkipPaths: []string{
			"/health",
			"/api/v1/auth/login",
		},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(authn))
}

// JWTAuthMiddlewareWithConfig authenticates the bearer token and installs the
// employee as the request actor. Inactive employees are rejected.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		if tokenString == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing token")
			return
		}

		employee, claims, err := cfg.Authenticator.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			handleAuthError(c, log, err)
			return
		}

		employeeID := employee.ID.String()
		c.Set(JWTClaimsKey, claims)
		c.Set(JWTEmployeeIDKey, employeeID)
		c.Set(ActorKey, employee)

		ctx := session.WithActor(c.Request.Context(), employee)
		ctx = logger.WithEmployeeID(ctx, employeeID)
		c.Request = c.Request.WithContext(ctx)

		log.Debug("JWT authentication successful",
			zap.String("employee_id", employeeID),
			zap.String("username", employee.Username),
		)
		c.Next()
	}
}

// handleAuthError maps authentication failures to 401, or 503 when the roster could not be read
func handleAuthError(c *gin.Context, log *zap.Logger, err error) {
	if errors.Is(err, shared.ErrPersistenceFailure) {
		log.Error("Authentication lookup failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
			dto.ErrCodePersistence, shared.ErrPersistenceFailure.Message, getRequestID(c)))
		return
	}

	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	code := dto.ErrCodeTokenInvalid
	message := "Invalid token"
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = dto.NormalizeErrorCode(domainErr.Code)
		message = domainErr.Message
	}
	abortUnauthorized(c, code, message)
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTEmployeeID retrieves the authenticated employee id from context
func GetJWTEmployeeID(c *gin.Context) string {
	return c.GetString(JWTEmployeeIDKey)
}

// GetActor retrieves the authenticated employee from context
func GetActor(c *gin.Context) *identity.Employee {
	if actor, exists := c.Get(ActorKey); exists {
		if e, ok := actor.(*identity.Employee); ok {
			return e
		}
	}
	return nil
}
