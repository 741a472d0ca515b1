package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/auth"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"go.uber.org/zap"
)

// Authentication errors
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or PIN")
	ErrAccountDeactivated = shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	ErrTokenInvalid       = shared.NewDomainError("TOKEN_INVALID", "Invalid access token")
	ErrTokenExpired       = shared.NewDomainError("TOKEN_EXPIRED", "Access token has expired")
	ErrTokenRevoked       = shared.NewDomainError("TOKEN_REVOKED", "Access token has been revoked")
)

// AuthService handles authentication operations
type AuthService struct {
	employees  identity.EmployeeRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	clock      clock.Clock
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service. blacklist may be nil.
func NewAuthService(
	employees identity.EmployeeRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	clk clock.Clock,
	logger *zap.Logger,
) *AuthService {
	if clk == nil {
		clk = clock.Real()
	}
	return &AuthService{
		employees:  employees,
		jwtService: jwtService,
		blacklist:  blacklist,
		clock:      clk,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

// Login verifies the PIN and issues an access token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	s.logger.Info("Login attempt", zap.String("username", input.Username), zap.String("ip", input.IP))

	if err := s.validate.Struct(input); err != nil {
		return nil, ErrInvalidCredentials
	}

	employee, err := s.employees.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Employee not found during login", zap.String("username", input.Username))
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Failed to load employee during login", zap.Error(err))
		return nil, shared.NewPersistenceError("load employee", err)
	}

	if !employee.Active {
		s.logger.Warn("Login attempt for deactivated account", zap.String("username", input.Username))
		return nil, ErrAccountDeactivated
	}

	if !employee.CheckPIN(input.PIN) {
		s.logger.Warn("Invalid PIN attempt", zap.String("username", input.Username))
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateAccessToken(auth.GenerateTokenInput{
		EmployeeID: employee.ID,
		Username:   employee.Username,
		Role:       employee.Role.String(),
	})
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}

	s.logger.Info("Employee logged in",
		zap.String("username", employee.Username),
		zap.String("employee_id", employee.ID.String()))

	return &LoginResult{
		AccessToken:          token.Token,
		AccessTokenExpiresAt: token.ExpiresAt,
		TokenType:            token.TokenType,
		Employee:             ToEmployeeInfo(employee),
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("Logout", zap.String("employee_id", input.EmployeeID.String()))

	if s.blacklist == nil || input.TokenJTI == "" {
		return nil
	}

	ttl := input.ExpiresAt.Sub(s.clock.Now())
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, ttl); err != nil {
		s.logger.Error("Failed to revoke token on logout", zap.Error(err))
		return shared.NewPersistenceError("revoke token", err)
	}
	return nil
}

// Authenticate resolves a bearer token to an active employee
func (s *AuthService) Authenticate(ctx context.Context, token string) (*identity.Employee, *auth.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, nil, ErrTokenExpired
		}
		return nil, nil, ErrTokenInvalid
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("Token blacklist lookup failed", zap.Error(err))
		}
		if revoked {
			return nil, nil, ErrTokenRevoked
		}

		invalidated, err := s.blacklist.IsEmployeeTokenInvalidated(ctx, claims.EmployeeID, claims.GetIssuedAtTime())
		if err != nil {
			s.logger.Warn("Employee token invalidation lookup failed", zap.Error(err))
		}
		if invalidated {
			return nil, nil, ErrTokenRevoked
		}
	}

	employeeID, err := claims.GetEmployeeUUID()
	if err != nil {
		return nil, nil, ErrTokenInvalid
	}

	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, shared.NewPersistenceError("load employee", err)
	}
	if !employee.Active {
		return nil, nil, ErrAccountDeactivated
	}

	return employee, claims, nil
}
