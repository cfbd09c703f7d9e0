package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/equinex/backend/internal/auth"
	"github.com/equinex/backend/internal/models"
)

// AuthService handles registration and login, delegating credential
// work to the authenticator and issuing JWTs for the transport layer.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{authenticator: authenticator, jwtManager: jwtManager}
}

// Register creates a new user account and returns the user with a
// freshly issued token.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	if name == "" || email == "" {
		return nil, "", validationf("name and email are required")
	}

	user, err := s.authenticator.Register(ctx, email, name, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, "", conflictf("email already registered")
		case errors.Is(err, auth.ErrWeakPassword):
			return nil, "", validationf("password must be at least 8 characters")
		default:
			return nil, "", internal("registration failed", err)
		}
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, "", internal("failed to generate token", err)
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// Login authenticates a user and returns the user with a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", validationf("email and password are required")
	}

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		slog.Warn("login failed", "email", email)
		return nil, "", unauthorizedf("invalid email or password")
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, "", internal("failed to generate token", err)
	}

	slog.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}
