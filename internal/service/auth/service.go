package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/cardboxhq/cardbox/internal/domain"
	"github.com/cardboxhq/cardbox/internal/repository"
	"github.com/cardboxhq/cardbox/pkg/config"
	"github.com/cardboxhq/cardbox/pkg/crypto"
	jwtpkg "github.com/cardboxhq/cardbox/pkg/jwt"
)

var (
	// ErrInvalidCredentials is returned for any login failure. Callers must
	// not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidInput covers malformed or duplicate registration input.
	ErrInvalidInput = errors.New("auth: invalid input")
)

// Service handles authentication workflows.
type Service struct {
	users  repository.UserRepository
	resets repository.PasswordResetRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, resets repository.PasswordResetRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, resets: resets, logger: logger, cfg: cfg}
}

// Register creates a new cardholder account.
func (s Service) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidInput
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		s.logger.Warn("password hash failed", "error", err)
		return nil, ErrInvalidInput
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates a user and returns a signed access token.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := jwtpkg.GenerateToken(user.ID, user.Email, s.cfg.JWTSecret, s.accessTTL())
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// Authorize validates a bearer token and returns the associated user and claims.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, *jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil, errors.New("token required")
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

func (s Service) accessTTL() time.Duration {
	if s.cfg.AccessTokenTTL > 0 {
		return s.cfg.AccessTokenTTL
	}
	return time.Hour
}
