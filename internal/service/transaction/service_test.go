package transaction

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

type txRepoMock struct {
	postFunc       func(ctx context.Context, tx *domain.Transaction) error
	getFunc        func(ctx context.Context, txID string) (*domain.Transaction, error)
	listByCardFunc func(ctx context.Context, cardID string, limit, offset int) ([]domain.Transaction, error)
	listByUserFunc func(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)
}

func (m txRepoMock) PostTransaction(ctx context.Context, tx *domain.Transaction) error {
	if m.postFunc == nil {
		return nil
	}
	return m.postFunc(ctx, tx)
}

func (m txRepoMock) GetTransactionByID(ctx context.Context, txID string) (*domain.Transaction, error) {
	if m.getFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getFunc(ctx, txID)
}

func (m txRepoMock) ListTransactionsByCard(ctx context.Context, cardID string, limit, offset int) ([]domain.Transaction, error) {
	if m.listByCardFunc == nil {
		return nil, nil
	}
	return m.listByCardFunc(ctx, cardID, limit, offset)
}

func (m txRepoMock) ListTransactionsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	if m.listByUserFunc == nil {
		return nil, nil
	}
	return m.listByUserFunc(ctx, userID, limit, offset)
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

type rewarderMock struct {
	earnFunc func(ctx context.Context, userID string, points int64, reason string) error
}

func (m rewarderMock) Earn(ctx context.Context, userID string, points int64, reason string) error {
	if m.earnFunc == nil {
		return nil
	}
	return m.earnFunc(ctx, userID, points, reason)
}

func activeCard() *domain.Card {
	return &domain.Card{ID: "c1", UserID: "u1", Status: domain.CardStatusActive}
}

func TestPostAccruesOnePointPerWholeUnit(t *testing.T) {
	var earned int64 = -1
	var posted *domain.Transaction
	cards := cardRepoMock{
		getFunc: func(context.Context) (*domain.Card, error) { return activeCard(), nil },
	}
	txs := txRepoMock{
		postFunc: func(_ context.Context, tx *domain.Transaction) error {
			posted = tx
			return nil
		},
	}
	rewards := rewarderMock{
		earnFunc: func(_ context.Context, _ string, points int64, _ string) error {
			earned = points
			return nil
		},
	}
	svc := New(txs, cards, rewards, newLogger())

	tx, err := svc.Post(context.Background(), "u1", PostInput{CardID: "c1", Amount: 2359, Merchant: "Grocer"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if tx.Category != "general" {
		t.Fatalf("expected default category, got %q", tx.Category)
	}
	if posted == nil || posted.Amount != 2359 {
		t.Fatalf("expected a 2359 charge handed to the repository, got %+v", posted)
	}
	if earned != 23 {
		t.Fatalf("expected 23 points, got %d", earned)
	}
}

func TestPostFailedPersistSkipsRewards(t *testing.T) {
	cards := cardRepoMock{
		getFunc: func(context.Context) (*domain.Card, error) { return activeCard(), nil },
	}
	txs := txRepoMock{
		postFunc: func(context.Context, *domain.Transaction) error {
			return errors.New("insert failed")
		},
	}
	accrued := false
	rewards := rewarderMock{
		earnFunc: func(context.Context, string, int64, string) error {
			accrued = true
			return nil
		},
	}
	svc := New(txs, cards, rewards, newLogger())

	if _, err := svc.Post(context.Background(), "u1", PostInput{CardID: "c1", Amount: 500, Merchant: "X"}); err == nil {
		t.Fatal("expected the repository failure to surface")
	}
	if accrued {
		t.Fatal("no points may accrue for a charge that was not persisted")
	}
}

func TestPostBelowOneUnitSkipsAccrual(t *testing.T) {
	called := false
	cards := cardRepoMock{
		getFunc: func(context.Context) (*domain.Card, error) { return activeCard(), nil },
	}
	rewards := rewarderMock{
		earnFunc: func(context.Context, string, int64, string) error {
			called = true
			return nil
		},
	}
	svc := New(txRepoMock{}, cards, rewards, newLogger())

	if _, err := svc.Post(context.Background(), "u1", PostInput{CardID: "c1", Amount: 99, Merchant: "Kiosk"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if called {
		t.Fatal("sub-unit purchase must not accrue points")
	}
}

func TestPostRejectsInactiveCard(t *testing.T) {
	for _, status := range []string{domain.CardStatusFrozen, domain.CardStatusClosed} {
		cards := cardRepoMock{
			getFunc: func(context.Context) (*domain.Card, error) {
				return &domain.Card{ID: "c1", UserID: "u1", Status: status}, nil
			},
		}
		svc := New(txRepoMock{}, cards, nil, newLogger())
		if _, err := svc.Post(context.Background(), "u1", PostInput{CardID: "c1", Amount: 100, Merchant: "X"}); !errors.Is(err, ErrCardFrozen) {
			t.Fatalf("status %s: expected ErrCardFrozen, got %v", status, err)
		}
	}
}

func TestPostRejectsForeignCard(t *testing.T) {
	cards := cardRepoMock{
		getFunc: func(context.Context) (*domain.Card, error) {
			return &domain.Card{ID: "c1", UserID: "owner", Status: domain.CardStatusActive}, nil
		},
	}
	svc := New(txRepoMock{}, cards, nil, newLogger())

	if _, err := svc.Post(context.Background(), "intruder", PostInput{CardID: "c1", Amount: 100, Merchant: "X"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostSurvivesRewardFailure(t *testing.T) {
	cards := cardRepoMock{
		getFunc: func(context.Context) (*domain.Card, error) { return activeCard(), nil },
	}
	rewards := rewarderMock{
		earnFunc: func(context.Context, string, int64, string) error {
			return errors.New("ledger down")
		},
	}
	svc := New(txRepoMock{}, cards, rewards, newLogger())

	if _, err := svc.Post(context.Background(), "u1", PostInput{CardID: "c1", Amount: 500, Merchant: "X"}); err != nil {
		t.Fatalf("a reward failure must not fail the post: %v", err)
	}
}

func TestListClampsLimit(t *testing.T) {
	var gotLimit int
	txs := txRepoMock{
		listByUserFunc: func(_ context.Context, _ string, limit, _ int) ([]domain.Transaction, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc := New(txs, cardRepoMock{}, nil, newLogger())

	if _, err := svc.List(context.Background(), "u1", "", 9999, 0); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotLimit != maxListLimit {
		t.Fatalf("expected clamp to %d, got %d", maxListLimit, gotLimit)
	}

	if _, err := svc.List(context.Background(), "u1", "", 0, 0); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotLimit != defaultListLimit {
		t.Fatalf("expected default %d, got %d", defaultListLimit, gotLimit)
	}
}
