package transaction

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

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

var (
	ErrCardFrozen       = errors.New("transaction: card is not active")
	ErrInvalidAmount    = errors.New("transaction: amount must be positive")
	ErrMerchantRequired = errors.New("transaction: merchant is required")
)

// Rewarder accrues points for posted purchases.
type Rewarder interface {
	Earn(ctx context.Context, userID string, points int64, reason string) error
}

// Service handles the posted-charge ledger.
type Service struct {
	txs    repository.TransactionRepository
	cards  repository.CardRepository
	reward Rewarder
	logger *slog.Logger
}

// New constructs a Service.
func New(txs repository.TransactionRepository, cards repository.CardRepository, reward Rewarder, logger *slog.Logger) Service {
	return Service{txs: txs, cards: cards, reward: reward, logger: logger}
}

// PostInput captures a charge to post against a card.
type PostInput struct {
	CardID   string `json:"card_id"`
	Amount   int64  `json:"amount"`
	Merchant string `json:"merchant"`
	Category string `json:"category"`
}

// Post records a charge on an active card owned by the user, raising the
// balance and accruing one reward point per whole currency unit.
func (s Service) Post(ctx context.Context, userID string, in PostInput) (*domain.Transaction, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	in.Merchant = strings.TrimSpace(in.Merchant)
	if in.Merchant == "" {
		return nil, ErrMerchantRequired
	}
	if in.Category == "" {
		in.Category = "general"
	}
	card, err := s.ownedCard(ctx, userID, in.CardID)
	if err != nil {
		return nil, err
	}
	if card.Status != domain.CardStatusActive {
		return nil, ErrCardFrozen
	}
	tx := &domain.Transaction{
		ID:       uuid.NewString(),
		CardID:   card.ID,
		Amount:   in.Amount,
		Merchant: in.Merchant,
		Category: in.Category,
		PostedAt: time.Now().UTC(),
	}
	if err := s.txs.PostTransaction(ctx, tx); err != nil {
		return nil, err
	}
	if s.reward != nil {
		if points := in.Amount / 100; points > 0 {
			if err := s.reward.Earn(ctx, userID, points, "purchase at "+in.Merchant); err != nil {
				s.logger.Warn("reward accrual failed", "error", err, "transaction_id", tx.ID)
			}
		}
	}
	s.logger.Info("transaction posted", "transaction_id", tx.ID, "card_id", card.ID)
	return tx, nil
}

// List returns charges for the user, optionally narrowed to one owned card.
func (s Service) List(ctx context.Context, userID, cardID string, limit, offset int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	if cardID != "" {
		if _, err := s.ownedCard(ctx, userID, cardID); err != nil {
			return nil, err
		}
		return s.txs.ListTransactionsByCard(ctx, cardID, limit, offset)
	}
	return s.txs.ListTransactionsByUser(ctx, userID, limit, offset)
}

// Get fetches a single charge owned by the user.
func (s Service) Get(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	tx, err := s.txs.GetTransactionByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedCard(ctx, userID, tx.CardID); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s Service) ownedCard(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	card, err := s.cards.GetCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return card, nil
}
