package domain

import "time"

// PasswordReset token states.
const (
	PasswordResetStatusPending  = "pending"
	PasswordResetStatusConsumed = "consumed"
	PasswordResetStatusExpired  = "expired"
)

// PasswordReset tracks the lifecycle of a single-use reset token.
type PasswordReset struct {
	Token      string
	UserID     string
	Status     string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	ConsumedAt *time.Time
}

// Expired reports whether the reset token is expired relative to now.
func (p PasswordReset) Expired(now time.Time) bool {
	if p.ExpiresAt.IsZero() {
		return false
	}
	return now.UTC().After(p.ExpiresAt.UTC())
}
