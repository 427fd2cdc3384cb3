package card

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/cardboxhq/cardbox/internal/domain"
	"github.com/cardboxhq/cardbox/internal/repository"
	"github.com/cardboxhq/cardbox/pkg/config"
	"github.com/cardboxhq/cardbox/pkg/crypto"
)

const defaultCreditLimit = 500_000 // minor units

var (
	ErrCardClosed         = errors.New("card: card is closed")
	ErrInvalidCreditLimit = errors.New("card: credit limit must not be negative")
)

// Notifier pushes account events to the cardholder.
type Notifier interface {
	Notify(ctx context.Context, userID, kind, message string) error
}

// Service handles card issuance and lifecycle.
type Service struct {
	cards  repository.CardRepository
	notify Notifier
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(cards repository.CardRepository, notify Notifier, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{cards: cards, notify: notify, logger: logger, cfg: cfg}
}

// Apply issues a new card for the user. The generated card number is stored
// encrypted; only the masked form leaves this package.
func (s Service) Apply(ctx context.Context, userID string, creditLimit int64) (*domain.Card, error) {
	if creditLimit < 0 {
		return nil, ErrInvalidCreditLimit
	}
	if creditLimit == 0 {
		creditLimit = defaultCreditLimit
	}
	pan, err := generatePAN()
	if err != nil {
		return nil, fmt.Errorf("generate card number: %w", err)
	}
	sealed, err := crypto.EncryptPAN(s.cfg.CardEncryptionKey, pan)
	if err != nil {
		return nil, fmt.Errorf("encrypt card number: %w", err)
	}
	card := &domain.Card{
		ID:           uuid.NewString(),
		UserID:       userID,
		PANEncrypted: sealed,
		PANMasked:    crypto.MaskPAN(pan),
		Status:       domain.CardStatusActive,
		CreditLimit:  creditLimit,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.cards.CreateCard(ctx, card); err != nil {
		return nil, err
	}
	s.logger.Info("card issued", "user_id", userID, "card_id", card.ID)
	if s.notify != nil {
		_ = s.notify.Notify(ctx, userID, domain.NotificationKindCard, "Your new card "+card.PANMasked+" is active")
	}
	return card, nil
}

// List returns the user's cards.
func (s Service) List(ctx context.Context, userID string) ([]domain.Card, error) {
	return s.cards.ListCardsByUser(ctx, userID)
}

// Get fetches a card owned by the user. Another user's card reads as not
// found so existence never leaks.
func (s Service) Get(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	card, err := s.cards.GetCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return card, nil
}

// Freeze suspends an active card.
func (s Service) Freeze(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	return s.setStatus(ctx, userID, cardID, domain.CardStatusFrozen, "Your card %s was frozen")
}

// Unfreeze reactivates a frozen card.
func (s Service) Unfreeze(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	return s.setStatus(ctx, userID, cardID, domain.CardStatusActive, "Your card %s was unfrozen")
}

func (s Service) setStatus(ctx context.Context, userID, cardID, status, messageFmt string) (*domain.Card, error) {
	card, err := s.Get(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if card.Status == domain.CardStatusClosed {
		return nil, ErrCardClosed
	}
	if card.Status == status {
		return card, nil
	}
	if err := s.cards.UpdateCardStatus(ctx, cardID, status); err != nil {
		return nil, err
	}
	card.Status = status
	s.logger.Info("card status changed", "card_id", cardID, "status", status)
	if s.notify != nil {
		_ = s.notify.Notify(ctx, userID, domain.NotificationKindCard, fmt.Sprintf(messageFmt, card.PANMasked))
	}
	return card, nil
}

// generatePAN renders a 16-digit card number with a valid Luhn check digit.
func generatePAN() (string, error) {
	digits := make([]byte, 16)
	digits[0] = 4
	for i := 1; i < 15; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte(n.Int64())
	}
	digits[15] = luhnCheckDigit(digits[:15])
	out := make([]byte, 16)
	for i, d := range digits {
		out[i] = '0' + d
	}
	return string(out), nil
}

func luhnCheckDigit(digits []byte) byte {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i])
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return byte((10 - sum%10) % 10)
}
