package reward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/cardboxhq/cardbox/internal/domain"
	"github.com/cardboxhq/cardbox/internal/repository"
)

const defaultHistoryLimit = 50

var (
	ErrInvalidPoints      = errors.New("reward: points must be positive")
	ErrInsufficientPoints = errors.New("reward: insufficient points balance")
)

// Notifier pushes account events to the cardholder.
type Notifier interface {
	Notify(ctx context.Context, userID, kind, message string) error
}

// Service maintains the rewards points ledger.
type Service struct {
	repo   repository.RewardRepository
	notify Notifier
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.RewardRepository, notify Notifier, logger *slog.Logger) Service {
	return Service{repo: repo, notify: notify, logger: logger}
}

// Earn appends positive points to the ledger.
func (s Service) Earn(ctx context.Context, userID string, points int64, reason string) error {
	if points <= 0 {
		return ErrInvalidPoints
	}
	entry := &domain.RewardEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      domain.RewardKindEarn,
		Points:    points,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	return s.repo.AppendRewardEntry(ctx, entry)
}

// Redeem deducts points, never letting the balance go negative.
func (s Service) Redeem(ctx context.Context, userID string, points int64, reason string) (int64, error) {
	if points <= 0 {
		return 0, ErrInvalidPoints
	}
	balance, err := s.repo.RewardBalance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if points > balance {
		return balance, ErrInsufficientPoints
	}
	entry := &domain.RewardEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      domain.RewardKindRedeem,
		Points:    -points,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AppendRewardEntry(ctx, entry); err != nil {
		return balance, err
	}
	remaining := balance - points
	s.logger.Info("points redeemed", "user_id", userID, "points", points, "remaining", remaining)
	if s.notify != nil {
		_ = s.notify.Notify(ctx, userID, domain.NotificationKindReward,
			fmt.Sprintf("Redeemed %d points, %d remaining", points, remaining))
	}
	return remaining, nil
}

// Balance sums the user's ledger.
func (s Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.repo.RewardBalance(ctx, userID)
}

// History returns recent ledger entries.
func (s Service) History(ctx context.Context, userID string) ([]domain.RewardEntry, error) {
	return s.repo.ListRewardEntries(ctx, userID, defaultHistoryLimit)
}
