package dispute

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/cardboxhq/cardbox/internal/domain"
	"github.com/cardboxhq/cardbox/internal/repository"
)

var (
	ErrReasonRequired = errors.New("dispute: reason is required")
	ErrDisputeClosed  = errors.New("dispute: dispute is already closed")
)

// Notifier pushes account events to the cardholder.
type Notifier interface {
	Notify(ctx context.Context, userID, kind, message string) error
}

// Service handles transaction disputes.
type Service struct {
	disputes repository.DisputeRepository
	txs      repository.TransactionRepository
	cards    repository.CardRepository
	notify   Notifier
	logger   *slog.Logger
}

// New constructs a Service.
func New(disputes repository.DisputeRepository, txs repository.TransactionRepository, cards repository.CardRepository, notify Notifier, logger *slog.Logger) Service {
	return Service{disputes: disputes, txs: txs, cards: cards, notify: notify, logger: logger}
}

// Open files a dispute against a transaction on one of the user's cards.
func (s Service) Open(ctx context.Context, userID, transactionID, reason string) (*domain.Dispute, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	tx, err := s.txs.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	card, err := s.cards.GetCardByID(ctx, tx.CardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		return nil, repository.ErrNotFound
	}
	now := time.Now().UTC()
	dispute := &domain.Dispute{
		ID:            uuid.NewString(),
		UserID:        userID,
		TransactionID: transactionID,
		Reason:        reason,
		Status:        domain.DisputeStatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.disputes.CreateDispute(ctx, dispute); err != nil {
		return nil, err
	}
	s.logger.Info("dispute opened", "dispute_id", dispute.ID, "transaction_id", transactionID)
	if s.notify != nil {
		_ = s.notify.Notify(ctx, userID, domain.NotificationKindDispute,
			"Dispute opened for charge at "+tx.Merchant)
	}
	return dispute, nil
}

// Get fetches a dispute owned by the user.
func (s Service) Get(ctx context.Context, userID, disputeID string) (*domain.Dispute, error) {
	dispute, err := s.disputes.GetDisputeByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return dispute, nil
}

// List returns the user's disputes.
func (s Service) List(ctx context.Context, userID string) ([]domain.Dispute, error) {
	return s.disputes.ListDisputesByUser(ctx, userID)
}

// Withdraw retires a dispute the user no longer wants to pursue. Only open
// or in-review disputes can be withdrawn; a settled one stays settled.
func (s Service) Withdraw(ctx context.Context, userID, disputeID string) (*domain.Dispute, error) {
	dispute, err := s.Get(ctx, userID, disputeID)
	if err != nil {
		return nil, err
	}
	switch dispute.Status {
	case domain.DisputeStatusOpen, domain.DisputeStatusUnderReview:
	default:
		return nil, ErrDisputeClosed
	}
	now := time.Now().UTC()
	if err := s.disputes.UpdateDisputeStatus(ctx, disputeID, domain.DisputeStatusResolved, now); err != nil {
		return nil, err
	}
	dispute.Status = domain.DisputeStatusResolved
	dispute.UpdatedAt = now
	s.logger.Info("dispute withdrawn", "dispute_id", disputeID)
	if s.notify != nil {
		_ = s.notify.Notify(ctx, userID, domain.NotificationKindDispute, "Dispute withdrawn and closed")
	}
	return dispute, nil
}
