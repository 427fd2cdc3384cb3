package card

import (
	"context"
	"errors"
	"io"
	"testing"

	"log/slog"

	"github.com/cardboxhq/cardbox/internal/domain"
	"github.com/cardboxhq/cardbox/internal/repository"
	"github.com/cardboxhq/cardbox/pkg/config"
	"github.com/cardboxhq/cardbox/pkg/crypto"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type cardRepoMock struct {
	createFunc    func(ctx context.Context, card *domain.Card) error
	getFunc       func(ctx context.Context, cardID string) (*domain.Card, error)
	listFunc      func(ctx context.Context, userID string) ([]domain.Card, error)
	setStatusFunc func(ctx context.Context, cardID, status string) error
}

func (m cardRepoMock) CreateCard(ctx context.Context, card *domain.Card) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, card)
}

func (m cardRepoMock) GetCardByID(ctx context.Context, cardID string) (*domain.Card, error) {
	if m.getFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getFunc(ctx, cardID)
}

func (m cardRepoMock) ListCardsByUser(ctx context.Context, userID string) ([]domain.Card, error) {
	if m.listFunc == nil {
		return nil, nil
	}
	return m.listFunc(ctx, userID)
}

func (m cardRepoMock) UpdateCardStatus(ctx context.Context, cardID, status string) error {
	if m.setStatusFunc == nil {
		return nil
	}
	return m.setStatusFunc(ctx, cardID, status)
}

func testConfig() config.APIConfig {
	return config.APIConfig{CardEncryptionKey: "card-key"}
}

func luhnValid(pan string) bool {
	sum := 0
	double := false
	for i := len(pan) - 1; i >= 0; i-- {
		d := int(pan[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func TestApplyIssuesEncryptedLuhnValidCard(t *testing.T) {
	var created *domain.Card
	repo := cardRepoMock{
		createFunc: func(_ context.Context, card *domain.Card) error {
			created = card
			return nil
		},
	}
	svc := New(repo, nil, newLogger(), testConfig())

	card, err := svc.Apply(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if created == nil {
		t.Fatal("card not persisted")
	}
	if card.CreditLimit != defaultCreditLimit {
		t.Fatalf("expected default credit limit, got %d", card.CreditLimit)
	}
	if card.Status != domain.CardStatusActive {
		t.Fatalf("expected active, got %q", card.Status)
	}

	pan, err := crypto.DecryptPAN("card-key", card.PANEncrypted)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if len(pan) != 16 {
		t.Fatalf("expected 16-digit pan, got %d digits", len(pan))
	}
	if !luhnValid(pan) {
		t.Fatalf("pan %s fails Luhn", pan)
	}
	if want := "**** **** **** " + pan[12:]; card.PANMasked != want {
		t.Fatalf("mask mismatch: %q vs %q", card.PANMasked, want)
	}
}

func TestApplyRejectsNegativeLimit(t *testing.T) {
	svc := New(cardRepoMock{}, nil, newLogger(), testConfig())
	if _, err := svc.Apply(context.Background(), "u1", -1); !errors.Is(err, ErrInvalidCreditLimit) {
		t.Fatalf("expected ErrInvalidCreditLimit, got %v", err)
	}
}

func TestGetHidesForeignCards(t *testing.T) {
	repo := cardRepoMock{
		getFunc: func(_ context.Context, cardID string) (*domain.Card, error) {
			return &domain.Card{ID: cardID, UserID: "owner"}, nil
		},
	}
	svc := New(repo, nil, newLogger(), testConfig())

	if _, err := svc.Get(context.Background(), "someone-else", "c1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign card, got %v", err)
	}
}

func TestFreezeRejectsClosedCard(t *testing.T) {
	repo := cardRepoMock{
		getFunc: func(_ context.Context, cardID string) (*domain.Card, error) {
			return &domain.Card{ID: cardID, UserID: "u1", Status: domain.CardStatusClosed}, nil
		},
	}
	svc := New(repo, nil, newLogger(), testConfig())

	if _, err := svc.Freeze(context.Background(), "u1", "c1"); !errors.Is(err, ErrCardClosed) {
		t.Fatalf("expected ErrCardClosed, got %v", err)
	}
}

func TestFreezeIsIdempotent(t *testing.T) {
	updates := 0
	repo := cardRepoMock{
		getFunc: func(_ context.Context, cardID string) (*domain.Card, error) {
			return &domain.Card{ID: cardID, UserID: "u1", Status: domain.CardStatusFrozen}, nil
		},
		setStatusFunc: func(_ context.Context, _, _ string) error {
			updates++
			return nil
		},
	}
	svc := New(repo, nil, newLogger(), testConfig())

	card, err := svc.Freeze(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if card.Status != domain.CardStatusFrozen {
		t.Fatalf("expected frozen, got %q", card.Status)
	}
	if updates != 0 {
		t.Fatalf("expected no status write for an already-frozen card, got %d", updates)
	}
}
