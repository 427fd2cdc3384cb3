package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardboxhq/cardbox/internal/domain"
	"github.com/cardboxhq/cardbox/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository          = (*Repository)(nil)
	_ repository.PasswordResetRepository = (*Repository)(nil)
	_ repository.CardRepository          = (*Repository)(nil)
	_ repository.TransactionRepository   = (*Repository)(nil)
	_ repository.PaymentRepository       = (*Repository)(nil)
	_ repository.RewardRepository        = (*Repository)(nil)
	_ repository.DisputeRepository       = (*Repository)(nil)
	_ repository.NotificationRepository  = (*Repository)(nil)
	_ repository.AnalyticsRepository     = (*Repository)(nil)
)

const uniqueViolation = "23505"

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	return mapError(err)
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`
	row := r.pool.QueryRow(ctx, query, email)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// UpdatePasswordHash replaces a user's password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, userID string, hash []byte) error {
	const query = `UPDATE users SET password_hash = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID, hash)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreatePasswordReset inserts a reset token.
func (r *Repository) CreatePasswordReset(ctx context.Context, reset *domain.PasswordReset) error {
	const query = `INSERT INTO password_resets (token, user_id, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, reset.Token, reset.UserID, reset.Status, reset.ExpiresAt, reset.CreatedAt)
	return mapError(err)
}

// GetPasswordReset fetches a reset token record.
func (r *Repository) GetPasswordReset(ctx context.Context, token string) (*domain.PasswordReset, error) {
	const query = `SELECT token, user_id, status, expires_at, created_at, consumed_at
		FROM password_resets WHERE token = $1`
	row := r.pool.QueryRow(ctx, query, token)
	var p domain.PasswordReset
	if err := row.Scan(&p.Token, &p.UserID, &p.Status, &p.ExpiresAt, &p.CreatedAt, &p.ConsumedAt); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// ConsumePasswordReset marks a pending token consumed.
func (r *Repository) ConsumePasswordReset(ctx context.Context, token string, at time.Time) error {
	const query = `UPDATE password_resets SET status = $2, consumed_at = $3
		WHERE token = $1 AND status = $4`
	tag, err := r.pool.Exec(ctx, query, token, domain.PasswordResetStatusConsumed, at, domain.PasswordResetStatusPending)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateCard inserts a card.
func (r *Repository) CreateCard(ctx context.Context, card *domain.Card) error {
	const query = `INSERT INTO cards (id, user_id, pan_encrypted, pan_masked, status, credit_limit, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query, card.ID, card.UserID, card.PANEncrypted, card.PANMasked, card.Status, card.CreditLimit, card.Balance, card.CreatedAt)
	return mapError(err)
}

// GetCardByID fetches a card.
func (r *Repository) GetCardByID(ctx context.Context, cardID string) (*domain.Card, error) {
	const query = `SELECT id, user_id, pan_encrypted, pan_masked, status, credit_limit, balance, created_at
		FROM cards WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, cardID)
	var c domain.Card
	if err := row.Scan(&c.ID, &c.UserID, &c.PANEncrypted, &c.PANMasked, &c.Status, &c.CreditLimit, &c.Balance, &c.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// ListCardsByUser returns a user's cards, newest first.
func (r *Repository) ListCardsByUser(ctx context.Context, userID string) ([]domain.Card, error) {
	const query = `SELECT id, user_id, pan_encrypted, pan_masked, status, credit_limit, balance, created_at
		FROM cards WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]domain.Card, 0)
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.UserID, &c.PANEncrypted, &c.PANMasked, &c.Status, &c.CreditLimit, &c.Balance, &c.CreatedAt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// UpdateCardStatus sets a card's status.
func (r *Repository) UpdateCardStatus(ctx context.Context, cardID, status string) error {
	const query = `UPDATE cards SET status = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, cardID, status)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// adjustBalance applies a delta to the card balance inside tx, refusing to
// go negative.
func adjustBalance(ctx context.Context, tx pgx.Tx, cardID string, delta int64) error {
	const query = `UPDATE cards SET balance = balance + $2
		WHERE id = $1 AND balance + $2 >= 0`
	tag, err := tx.Exec(ctx, query, cardID, delta)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// PostTransaction inserts a posted charge and raises the card balance
// together so a failure leaves neither half behind.
func (r *Repository) PostTransaction(ctx context.Context, txn *domain.Transaction) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `INSERT INTO transactions (id, card_id, amount, merchant, category, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.Exec(ctx, query, txn.ID, txn.CardID, txn.Amount, txn.Merchant, txn.Category, txn.PostedAt); err != nil {
		return mapError(err)
	}
	if err := adjustBalance(ctx, tx, txn.CardID, txn.Amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetTransactionByID fetches a transaction.
func (r *Repository) GetTransactionByID(ctx context.Context, txID string) (*domain.Transaction, error) {
	const query = `SELECT id, card_id, amount, merchant, category, posted_at FROM transactions WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, txID)
	var tx domain.Transaction
	if err := row.Scan(&tx.ID, &tx.CardID, &tx.Amount, &tx.Merchant, &tx.Category, &tx.PostedAt); err != nil {
		return nil, mapError(err)
	}
	return &tx, nil
}

// ListTransactionsByCard returns charges for one card, newest first.
func (r *Repository) ListTransactionsByCard(ctx context.Context, cardID string, limit, offset int) ([]domain.Transaction, error) {
	const query = `SELECT id, card_id, amount, merchant, category, posted_at
		FROM transactions WHERE card_id = $1
		ORDER BY posted_at DESC LIMIT $2 OFFSET $3`
	return r.scanTransactions(ctx, query, cardID, limit, offset)
}

// ListTransactionsByUser returns charges across all of a user's cards.
func (r *Repository) ListTransactionsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	const query = `SELECT t.id, t.card_id, t.amount, t.merchant, t.category, t.posted_at
		FROM transactions t
		INNER JOIN cards c ON c.id = t.card_id
		WHERE c.user_id = $1
		ORDER BY t.posted_at DESC LIMIT $2 OFFSET $3`
	return r.scanTransactions(ctx, query, userID, limit, offset)
}

func (r *Repository) scanTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0)
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.CardID, &tx.Amount, &tx.Merchant, &tx.Category, &tx.PostedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// RecordPayment inserts a payment and lowers the card balance together so a
// failure leaves neither half behind.
func (r *Repository) RecordPayment(ctx context.Context, payment *domain.Payment) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `INSERT INTO payments (id, card_id, user_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, query, payment.ID, payment.CardID, payment.UserID, payment.Amount, payment.CreatedAt); err != nil {
		return mapError(err)
	}
	if err := adjustBalance(ctx, tx, payment.CardID, -payment.Amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListPaymentsByUser returns a user's payments, newest first.
func (r *Repository) ListPaymentsByUser(ctx context.Context, userID string, limit int) ([]domain.Payment, error) {
	const query = `SELECT id, card_id, user_id, amount, created_at
		FROM payments WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.CardID, &p.UserID, &p.Amount, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// AppendRewardEntry adds a ledger row.
func (r *Repository) AppendRewardEntry(ctx context.Context, entry *domain.RewardEntry) error {
	const query = `INSERT INTO reward_entries (id, user_id, kind, points, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, entry.ID, entry.UserID, entry.Kind, entry.Points, entry.Reason, entry.CreatedAt)
	return mapError(err)
}

// RewardBalance sums the user's ledger.
func (r *Repository) RewardBalance(ctx context.Context, userID string) (int64, error) {
	const query = `SELECT COALESCE(SUM(points), 0) FROM reward_entries WHERE user_id = $1`
	row := r.pool.QueryRow(ctx, query, userID)
	var balance int64
	if err := row.Scan(&balance); err != nil {
		return 0, mapError(err)
	}
	return balance, nil
}

// ListRewardEntries returns ledger rows, newest first.
func (r *Repository) ListRewardEntries(ctx context.Context, userID string, limit int) ([]domain.RewardEntry, error) {
	const query = `SELECT id, user_id, kind, points, reason, created_at
		FROM reward_entries WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.RewardEntry, 0)
	for rows.Next() {
		var e domain.RewardEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.Points, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreateDispute inserts a dispute.
func (r *Repository) CreateDispute(ctx context.Context, dispute *domain.Dispute) error {
	const query = `INSERT INTO disputes (id, user_id, transaction_id, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query, dispute.ID, dispute.UserID, dispute.TransactionID, dispute.Reason, dispute.Status, dispute.CreatedAt, dispute.UpdatedAt)
	return mapError(err)
}

// GetDisputeByID fetches a dispute.
func (r *Repository) GetDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	const query = `SELECT id, user_id, transaction_id, reason, status, created_at, updated_at
		FROM disputes WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, disputeID)
	var d domain.Dispute
	if err := row.Scan(&d.ID, &d.UserID, &d.TransactionID, &d.Reason, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

// ListDisputesByUser returns a user's disputes, newest first.
func (r *Repository) ListDisputesByUser(ctx context.Context, userID string) ([]domain.Dispute, error) {
	const query = `SELECT id, user_id, transaction_id, reason, status, created_at, updated_at
		FROM disputes WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	disputes := make([]domain.Dispute, 0)
	for rows.Next() {
		var d domain.Dispute
		if err := rows.Scan(&d.ID, &d.UserID, &d.TransactionID, &d.Reason, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		disputes = append(disputes, d)
	}
	return disputes, rows.Err()
}

// UpdateDisputeStatus changes a dispute status.
func (r *Repository) UpdateDisputeStatus(ctx context.Context, disputeID, status string, at time.Time) error {
	const query = `UPDATE disputes SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, disputeID, status, at)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateNotification inserts a notification.
func (r *Repository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	const query = `INSERT INTO notifications (id, user_id, kind, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, n.ID, n.UserID, n.Kind, n.Message, n.Read, n.CreatedAt)
	return mapError(err)
}

// ListNotificationsByUser returns notifications, optionally unread only.
func (r *Repository) ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	query := `SELECT id, user_id, kind, message, read, created_at
		FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flags one notification as read, scoped to its owner.
func (r *Repository) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead flags every notification for the user.
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`
	_, err := r.pool.Exec(ctx, query, userID)
	return mapError(err)
}

// SpendingByCategory sums posted charges per category since the cutoff.
func (r *Repository) SpendingByCategory(ctx context.Context, userID string, since time.Time) (map[string]int64, error) {
	const query = `SELECT t.category, COALESCE(SUM(t.amount), 0)
		FROM transactions t
		INNER JOIN cards c ON c.id = t.card_id
		WHERE c.user_id = $1 AND t.posted_at >= $2
		GROUP BY t.category`
	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var category string
		var total int64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, err
		}
		totals[category] = total
	}
	return totals, rows.Err()
}
