package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardboxhq/cardbox/internal/domain"
	"github.com/cardboxhq/cardbox/internal/repository"
	"github.com/cardboxhq/cardbox/pkg/crypto"
)

var (
	ErrResetTokenInvalid  = errors.New("auth: reset token invalid")
	ErrResetTokenExpired  = errors.New("auth: reset token expired")
	ErrResetTokenConsumed = errors.New("auth: reset token consumed")
)

// RequestPasswordReset mints a single-use reset token for the account. An
// unknown email produces no token and no error, so responses stay uniform.
// Delivery is out of scope; the token is surfaced through the audit log.
func (s Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return "", nil
		}
		return "", err
	}
	now := time.Now().UTC()
	reset := &domain.PasswordReset{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Status:    domain.PasswordResetStatusPending,
		ExpiresAt: now.Add(s.resetTTL()),
		CreatedAt: now,
	}
	if err := s.resets.CreatePasswordReset(ctx, reset); err != nil {
		return "", err
	}
	s.logger.Info("password reset token issued", "user_id", user.ID, "token", reset.Token, "expires_at", reset.ExpiresAt)
	return reset.Token, nil
}

// ResetPassword validates and consumes a reset token, then rehashes the
// account password.
func (s Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrResetTokenInvalid
	}
	reset, err := s.resets.GetPasswordReset(ctx, trimmed)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	now := time.Now().UTC()
	if reset.Expired(now) || reset.Status == domain.PasswordResetStatusExpired {
		return ErrResetTokenExpired
	}
	if reset.Status == domain.PasswordResetStatusConsumed {
		return ErrResetTokenConsumed
	}
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if user.ID != reset.UserID {
		return ErrResetTokenInvalid
	}
	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return ErrInvalidInput
	}
	if err := s.resets.ConsumePasswordReset(ctx, trimmed, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenConsumed
		}
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}
	s.logger.Info("password reset completed", "user_id", user.ID)
	return nil
}

func (s Service) resetTTL() time.Duration {
	if s.cfg.ResetTokenTTL > 0 {
		return s.cfg.ResetTokenTTL
	}
	return 15 * time.Minute
}
