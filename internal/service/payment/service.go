package payment

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

const defaultListLimit = 50

var (
	ErrInvalidAmount  = errors.New("payment: amount must be positive")
	ErrExceedsBalance = errors.New("payment: amount exceeds card balance")
)

// Notifier pushes account events to the cardholder.
type Notifier interface {
	Notify(ctx context.Context, userID, kind, message string) error
}

// Service handles balance pay-downs.
type Service struct {
	payments repository.PaymentRepository
	cards    repository.CardRepository
	notify   Notifier
	logger   *slog.Logger
}

// New constructs a Service.
func New(payments repository.PaymentRepository, cards repository.CardRepository, notify Notifier, logger *slog.Logger) Service {
	return Service{payments: payments, cards: cards, notify: notify, logger: logger}
}

// Pay reduces the card balance by amount and records the payment.
func (s Service) Pay(ctx context.Context, userID, cardID string, amount int64) (*domain.Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	card, err := s.cards.GetCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if amount > card.Balance {
		return nil, ErrExceedsBalance
	}
	payment := &domain.Payment{
		ID:        uuid.NewString(),
		CardID:    cardID,
		UserID:    userID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.payments.RecordPayment(ctx, payment); err != nil {
		return nil, err
	}
	s.logger.Info("payment recorded", "payment_id", payment.ID, "card_id", cardID)
	if s.notify != nil {
		_ = s.notify.Notify(ctx, userID, domain.NotificationKindPayment,
			fmt.Sprintf("Payment of %d.%02d received on card %s", amount/100, amount%100, card.PANMasked))
	}
	return payment, nil
}

// List returns the user's recent payments.
func (s Service) List(ctx context.Context, userID string) ([]domain.Payment, error) {
	return s.payments.ListPaymentsByUser(ctx, userID, defaultListLimit)
}
