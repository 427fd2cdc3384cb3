package payment

import (
	"context"
	"errors"
	"io"
	"testing"

	"log/slog"

	"github.com/cardboxhq/cardbox/internal/domain"
	"github.com/cardboxhq/cardbox/internal/repository"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type paymentRepoMock struct {
	recordFunc func(ctx context.Context, payment *domain.Payment) error
	listFunc   func(ctx context.Context, userID string, limit int) ([]domain.Payment, error)
}

func (m paymentRepoMock) RecordPayment(ctx context.Context, payment *domain.Payment) error {
	if m.recordFunc == nil {
		return nil
	}
	return m.recordFunc(ctx, payment)
}

func (m paymentRepoMock) ListPaymentsByUser(ctx context.Context, userID string, limit int) ([]domain.Payment, error) {
	if m.listFunc == nil {
		return nil, nil
	}
	return m.listFunc(ctx, userID, limit)
}

type cardRepoMock struct {
	getFunc func(ctx context.Context) (*domain.Card, error)
}

func (m cardRepoMock) CreateCard(context.Context, *domain.Card) error { return nil }

func (m cardRepoMock) GetCardByID(ctx context.Context, cardID string) (*domain.Card, error) {
	if m.getFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getFunc(ctx)
}

func (m cardRepoMock) ListCardsByUser(context.Context, string) ([]domain.Card, error) {
	return nil, nil
}

func (m cardRepoMock) UpdateCardStatus(context.Context, string, string) error { return nil }

type notifierMock struct {
	calls int
}

func (m *notifierMock) Notify(context.Context, string, string, string) error {
	m.calls++
	return nil
}

func ownedCard(balance int64) cardRepoMock {
	return cardRepoMock{
		getFunc: func(context.Context) (*domain.Card, error) {
			return &domain.Card{ID: "c1", UserID: "u1", Balance: balance, Status: domain.CardStatusActive}, nil
		},
	}
}

func TestPayRecordsPaymentFields(t *testing.T) {
	var recorded *domain.Payment
	payments := paymentRepoMock{
		recordFunc: func(_ context.Context, p *domain.Payment) error {
			recorded = p
			return nil
		},
	}
	notifier := &notifierMock{}
	svc := New(payments, ownedCard(5000), notifier, newLogger())

	p, err := svc.Pay(context.Background(), "u1", "c1", 2000)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if recorded == nil {
		t.Fatal("payment not handed to the repository")
	}
	if recorded.Amount != 2000 || recorded.CardID != "c1" || recorded.UserID != "u1" {
		t.Fatalf("unexpected payment record: %+v", recorded)
	}
	if p.ID == "" {
		t.Fatal("expected a payment id")
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one notification, got %d", notifier.calls)
	}
}

func TestPayFailedRecordSurfacesAndSkipsNotify(t *testing.T) {
	payments := paymentRepoMock{
		recordFunc: func(context.Context, *domain.Payment) error {
			return errors.New("insert failed")
		},
	}
	notifier := &notifierMock{}
	svc := New(payments, ownedCard(5000), notifier, newLogger())

	if _, err := svc.Pay(context.Background(), "u1", "c1", 2000); err == nil {
		t.Fatal("expected the repository failure to surface")
	}
	if notifier.calls != 0 {
		t.Fatalf("no notification may be sent for a failed payment, got %d", notifier.calls)
	}
}

func TestPayRejectsOverpayment(t *testing.T) {
	svc := New(paymentRepoMock{}, ownedCard(1000), nil, newLogger())
	if _, err := svc.Pay(context.Background(), "u1", "c1", 1001); !errors.Is(err, ErrExceedsBalance) {
		t.Fatalf("expected ErrExceedsBalance, got %v", err)
	}
}

func TestPayRejectsNonPositiveAmount(t *testing.T) {
	svc := New(paymentRepoMock{}, ownedCard(1000), nil, newLogger())
	for _, amount := range []int64{0, -5} {
		if _, err := svc.Pay(context.Background(), "u1", "c1", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestPayHidesForeignCards(t *testing.T) {
	cards := cardRepoMock{
		getFunc: func(context.Context) (*domain.Card, error) {
			return &domain.Card{ID: "c1", UserID: "owner", Balance: 5000}, nil
		},
	}
	svc := New(paymentRepoMock{}, cards, nil, newLogger())

	if _, err := svc.Pay(context.Background(), "intruder", "c1", 100); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
