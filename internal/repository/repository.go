package repository

import (
	"context"
	"time"

	"github.com/cardboxhq/cardbox/internal/domain"
)

// UserRepository persists cardholder accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, userID string, hash []byte) error
}

// PasswordResetRepository stores single-use reset tokens.
type PasswordResetRepository interface {
	CreatePasswordReset(ctx context.Context, reset *domain.PasswordReset) error
	GetPasswordReset(ctx context.Context, token string) (*domain.PasswordReset, error)
	ConsumePasswordReset(ctx context.Context, token string, at time.Time) error
}

// CardRepository persists issued cards.
type CardRepository interface {
	CreateCard(ctx context.Context, card *domain.Card) error
	GetCardByID(ctx context.Context, cardID string) (*domain.Card, error)
	ListCardsByUser(ctx context.Context, userID string) ([]domain.Card, error)
	UpdateCardStatus(ctx context.Context, cardID, status string) error
}

// TransactionRepository stores posted charges.
type TransactionRepository interface {
	// PostTransaction inserts the charge and raises the card balance in a
	// single database transaction.
	PostTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransactionByID(ctx context.Context, txID string) (*domain.Transaction, error)
	ListTransactionsByCard(ctx context.Context, cardID string, limit, offset int) ([]domain.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)
}

// PaymentRepository stores balance pay-downs.
type PaymentRepository interface {
	// RecordPayment inserts the payment and lowers the card balance in a
	// single database transaction, refusing to take the balance negative.
	RecordPayment(ctx context.Context, payment *domain.Payment) error
	ListPaymentsByUser(ctx context.Context, userID string, limit int) ([]domain.Payment, error)
}

// RewardRepository maintains the points ledger.
type RewardRepository interface {
	AppendRewardEntry(ctx context.Context, entry *domain.RewardEntry) error
	RewardBalance(ctx context.Context, userID string) (int64, error)
	ListRewardEntries(ctx context.Context, userID string, limit int) ([]domain.RewardEntry, error)
}

// DisputeRepository stores transaction disputes.
type DisputeRepository interface {
	CreateDispute(ctx context.Context, dispute *domain.Dispute) error
	GetDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error)
	ListDisputesByUser(ctx context.Context, userID string) ([]domain.Dispute, error)
	UpdateDisputeStatus(ctx context.Context, disputeID, status string, at time.Time) error
}

// NotificationRepository stores per-user notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

// AnalyticsRepository answers aggregate spending queries.
type AnalyticsRepository interface {
	SpendingByCategory(ctx context.Context, userID string, since time.Time) (map[string]int64, error)
}
