package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cardboxhq/cardbox/internal/domain"
	"github.com/cardboxhq/cardbox/internal/repository"
	"github.com/cardboxhq/cardbox/pkg/config"
	"github.com/cardboxhq/cardbox/pkg/crypto"
	jwtpkg "github.com/cardboxhq/cardbox/pkg/jwt"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type userRepoMock struct {
	createFunc     func(ctx context.Context, user *domain.User) error
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	getByIDFunc    func(ctx context.Context, id string) (*domain.User, error)
	updateHashFunc func(ctx context.Context, userID string, hash []byte) error
}

func (m userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, user)
}

func (m userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getByEmailFunc(ctx, email)
}

func (m userRepoMock) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getByIDFunc(ctx, id)
}

func (m userRepoMock) UpdatePasswordHash(ctx context.Context, userID string, hash []byte) error {
	if m.updateHashFunc == nil {
		return nil
	}
	return m.updateHashFunc(ctx, userID, hash)
}

type resetRepoMock struct {
	createFunc  func(ctx context.Context, reset *domain.PasswordReset) error
	getFunc     func(ctx context.Context, token string) (*domain.PasswordReset, error)
	consumeFunc func(ctx context.Context, token string, at time.Time) error
}

func (m resetRepoMock) CreatePasswordReset(ctx context.Context, reset *domain.PasswordReset) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, reset)
}

func (m resetRepoMock) GetPasswordReset(ctx context.Context, token string) (*domain.PasswordReset, error) {
	if m.getFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getFunc(ctx, token)
}

func (m resetRepoMock) ConsumePasswordReset(ctx context.Context, token string, at time.Time) error {
	if m.consumeFunc == nil {
		return nil
	}
	return m.consumeFunc(ctx, token, at)
}

func testConfig() config.APIConfig {
	return config.APIConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Hour, ResetTokenTTL: 15 * time.Minute}
}

func TestRegisterThenLoginRoundTrip(t *testing.T) {
	var stored *domain.User
	users := userRepoMock{
		createFunc: func(_ context.Context, user *domain.User) error {
			if user.ID == "" {
				t.Fatalf("expected generated user id")
			}
			if string(user.PasswordHash) == "p1" {
				t.Fatalf("password stored in plaintext")
			}
			stored = user
			return nil
		},
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if stored == nil || stored.Email != email {
				return nil, repository.ErrNotFound
			}
			return stored, nil
		},
	}
	svc := New(users, resetRepoMock{}, newLogger(), testConfig())

	user, err := svc.Register(context.Background(), "A", "a@x.com", "p1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Fatalf("unexpected email: %s", user.Email)
	}

	loggedIn, token, err := svc.Login(context.Background(), "a@x.com", "p1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("user mismatch: %s != %s", loggedIn.ID, user.ID)
	}

	claims, err := jwtpkg.Parse(token, "test-secret")
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token userId %q does not match registered id %q", claims.UserID, user.ID)
	}
	if claims.Email != "a@x.com" {
		t.Fatalf("unexpected token email: %s", claims.Email)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := New(userRepoMock{}, resetRepoMock{}, newLogger(), testConfig())

	cases := []struct {
		name, email, password string
	}{
		{"", "a@x.com", "p1"},
		{"A", "", "p1"},
		{"A", "not-an-email", "p1"},
		{"A", "a@x.com", ""},
	}
	for _, tc := range cases {
		if _, err := svc.Register(context.Background(), tc.name, tc.email, tc.password); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", tc, err)
		}
	}
}

func TestRegisterDuplicateEmailIsGeneric(t *testing.T) {
	users := userRepoMock{
		createFunc: func(_ context.Context, _ *domain.User) error {
			return repository.ErrDuplicate
		},
	}
	svc := New(users, resetRepoMock{}, newLogger(), testConfig())
	if _, err := svc.Register(context.Background(), "A", "a@x.com", "p1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	hash, err := crypto.HashPassword("correct")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email != "known@x.com" {
				return nil, repository.ErrNotFound
			}
			return &domain.User{ID: "u1", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := New(users, resetRepoMock{}, newLogger(), testConfig())

	if _, _, err := svc.Login(context.Background(), "unknown@x.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "known@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthorizeRejectsExpiredToken(t *testing.T) {
	users := userRepoMock{
		getByIDFunc: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id}, nil
		},
	}
	svc := New(users, resetRepoMock{}, newLogger(), testConfig())

	expired, err := jwtpkg.GenerateToken("u1", "a@x.com", "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, _, err := svc.Authorize(context.Background(), expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	valid, err := jwtpkg.GenerateToken("u1", "a@x.com", "test-secret", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	user, claims, err := svc.Authorize(context.Background(), valid)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if user.ID != "u1" || claims.UserID != "u1" {
		t.Fatalf("unexpected identity: %s / %s", user.ID, claims.UserID)
	}
}

func TestRequestPasswordResetUnknownEmailSucceedsQuietly(t *testing.T) {
	created := false
	resets := resetRepoMock{
		createFunc: func(_ context.Context, _ *domain.PasswordReset) error {
			created = true
			return nil
		},
	}
	svc := New(userRepoMock{}, resets, newLogger(), testConfig())

	token, err := svc.RequestPasswordReset(context.Background(), "nobody@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" || created {
		t.Fatalf("expected no token for unknown email")
	}
}

func TestResetPasswordConsumesToken(t *testing.T) {
	hash, _ := crypto.HashPassword("old")
	user := &domain.User{ID: "u1", Email: "a@x.com", PasswordHash: hash}

	var issued *domain.PasswordReset
	resets := resetRepoMock{
		createFunc: func(_ context.Context, reset *domain.PasswordReset) error {
			if reset.Status != domain.PasswordResetStatusPending {
				t.Fatalf("unexpected status: %s", reset.Status)
			}
			if time.Until(reset.ExpiresAt) <= 0 {
				t.Fatalf("expected expiry in future")
			}
			issued = reset
			return nil
		},
		getFunc: func(_ context.Context, token string) (*domain.PasswordReset, error) {
			if issued == nil || issued.Token != token {
				return nil, repository.ErrNotFound
			}
			copied := *issued
			return &copied, nil
		},
		consumeFunc: func(_ context.Context, token string, at time.Time) error {
			if issued.Status != domain.PasswordResetStatusPending {
				return repository.ErrNotFound
			}
			issued.Status = domain.PasswordResetStatusConsumed
			issued.ConsumedAt = &at
			return nil
		},
	}
	var updatedHash []byte
	users := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email != user.Email {
				return nil, repository.ErrNotFound
			}
			return user, nil
		},
		updateHashFunc: func(_ context.Context, userID string, hash []byte) error {
			if userID != user.ID {
				t.Fatalf("unexpected user id: %s", userID)
			}
			updatedHash = hash
			return nil
		},
	}
	svc := New(users, resets, newLogger(), testConfig())

	token, err := svc.RequestPasswordReset(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if token == "" {
		t.Fatalf("expected reset token")
	}

	if err := svc.ResetPassword(context.Background(), "a@x.com", token, "newpass"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if err := crypto.ComparePassword(updatedHash, "newpass"); err != nil {
		t.Fatalf("new password does not verify: %v", err)
	}

	// single use
	if err := svc.ResetPassword(context.Background(), "a@x.com", token, "again"); !errors.Is(err, ErrResetTokenConsumed) {
		t.Fatalf("expected ErrResetTokenConsumed, got %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	resets := resetRepoMock{
		getFunc: func(_ context.Context, token string) (*domain.PasswordReset, error) {
			return &domain.PasswordReset{
				Token:     token,
				UserID:    "u1",
				Status:    domain.PasswordResetStatusPending,
				ExpiresAt: time.Now().UTC().Add(-time.Minute),
			}, nil
		},
	}
	svc := New(userRepoMock{}, resets, newLogger(), testConfig())
	if err := svc.ResetPassword(context.Background(), "a@x.com", "tok", "new"); !errors.Is(err, ErrResetTokenExpired) {
		t.Fatalf("expected ErrResetTokenExpired, got %v", err)
	}
}
