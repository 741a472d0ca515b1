package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/merchpulse/backend/internal/infrastructure/config"
)

// TokenType represents the type of JWT token
type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

// Common errors
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrTokenNotYetValid   = errors.New("token is not yet valid")
	ErrMissingEmployeeID  = errors.New("missing employee_id in claims")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrMissingTokenSecret = errors.New("jwt secret is required")
)

// Claims identify the employee a token was issued to.
// Capabilities are deliberately absent: they are re-read from the employee record on every request.
type Claims struct {
	jwt.RegisteredClaims
	EmployeeID string    `json:"employee_id"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	TokenType  TokenType `json:"token_type"`
}

// AccessToken is an issued bearer token
type AccessToken struct {
	Token     string    `json:"access_token"`
	ID        string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"` // Bearer
}

// JWTService handles JWT token operations
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	clock      clock.Clock
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig, clk clock.Clock) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingTokenSecret
	}
	if clk == nil {
		clk = clock.Real()
	}
	expiration := cfg.AccessTokenExpiration
	if expiration <= 0 {
		expiration = 12 * time.Hour
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: expiration,
		issuer:     cfg.Issuer,
		clock:      clk,
	}, nil
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	EmployeeID uuid.UUID
	Username   string
	Role       string
}

// GenerateAccessToken issues a signed access token
func (s *JWTService) GenerateAccessToken(input GenerateTokenInput) (*AccessToken, error) {
	if input.EmployeeID == uuid.Nil {
		return nil, ErrMissingEmployeeID
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.expiration)
	jti := uuid.NewString()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   input.EmployeeID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		EmployeeID: input.EmployeeID.String(),
		Username:   input.Username,
		Role:       input.Role,
		TokenType:  TokenTypeAccess,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &AccessToken{
		Token:     token,
		ID:        jti,
		ExpiresAt: expiresAt,
		TokenType: "Bearer",
	}, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithIssuer(s.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	if claims.EmployeeID == "" {
		return nil, ErrMissingEmployeeID
	}

	return claims, nil
}

// GetEmployeeUUID parses the employee id claim
func (c *Claims) GetEmployeeUUID() (uuid.UUID, error) {
	return uuid.Parse(c.EmployeeID)
}

// GetIssuedAtTime returns the issued-at time
func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GetExpiresAtTime returns the expiration time
func (c *Claims) GetExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// RemainingTTL returns how long the token stays valid after now
func (c *Claims) RemainingTTL(now time.Time) time.Duration {
	remaining := c.GetExpiresAtTime().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GetAccessTokenExpiration returns the access token lifetime
func (s *JWTService) GetAccessTokenExpiration() time.Duration {
	return s.expiration
}
