package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client provides typed access to the cardbox API for interactive tools.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:4000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg := extractError(resp.Body)
		return APIError{Status: resp.StatusCode, Message: msg}
	}

	if v == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

// RegisterResponse is the account summary returned on signup.
type RegisterResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) (RegisterResponse, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, "", &out); err != nil {
		return RegisterResponse{}, err
	}
	return out, nil
}

// LoginResponse carries the bearer token issued on login.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, "", &out); err != nil {
		return LoginResponse{}, err
	}
	return out, nil
}

// RequestPasswordReset asks the API to issue a reset token for the account.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/auth/request-password-reset", body, "", nil)
}

// ResetPassword redeems a reset token for a new password.
func (c *Client) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	body := map[string]string{"email": email, "token": token, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", body, "", nil)
}

// Card is a credit card as reported by the API. PANs never leave the
// server unmasked.
type Card struct {
	ID          string    `json:"id"`
	PANMasked   string    `json:"pan_masked"`
	Status      string    `json:"status"`
	CreditLimit int64     `json:"credit_limit"`
	Balance     int64     `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListCards returns the caller's cards.
func (c *Client) ListCards(ctx context.Context, token string) ([]Card, error) {
	var cards []Card
	if err := c.do(ctx, http.MethodGet, "/cards", nil, token, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// ApplyCard requests a new card with the given credit limit in minor units.
// Zero means the server default.
func (c *Client) ApplyCard(ctx context.Context, token string, creditLimit int64) (Card, error) {
	body := map[string]int64{"credit_limit": creditLimit}
	var out Card
	if err := c.do(ctx, http.MethodPost, "/cards", body, token, &out); err != nil {
		return Card{}, err
	}
	return out, nil
}

// GetCard fetches a single card by id.
func (c *Client) GetCard(ctx context.Context, token, cardID string) (Card, error) {
	var out Card
	path := fmt.Sprintf("/cards/%s", url.PathEscape(cardID))
	if err := c.do(ctx, http.MethodGet, path, nil, token, &out); err != nil {
		return Card{}, err
	}
	return out, nil
}

// FreezeCard suspends a card.
func (c *Client) FreezeCard(ctx context.Context, token, cardID string) (Card, error) {
	return c.cardAction(ctx, token, cardID, "freeze")
}

// UnfreezeCard reactivates a frozen card.
func (c *Client) UnfreezeCard(ctx context.Context, token, cardID string) (Card, error) {
	return c.cardAction(ctx, token, cardID, "unfreeze")
}

func (c *Client) cardAction(ctx context.Context, token, cardID, action string) (Card, error) {
	var out Card
	path := fmt.Sprintf("/cards/%s/%s", url.PathEscape(cardID), action)
	if err := c.do(ctx, http.MethodPost, path, nil, token, &out); err != nil {
		return Card{}, err
	}
	return out, nil
}

// Transaction is a card transaction visible to its owner.
type Transaction struct {
	ID       string    `json:"id"`
	CardID   string    `json:"card_id"`
	Merchant string    `json:"merchant"`
	Category string    `json:"category"`
	Amount   int64     `json:"amount"`
	PostedAt time.Time `json:"posted_at"`
}

// ListTransactions returns transactions, optionally scoped to one card.
func (c *Client) ListTransactions(ctx context.Context, token, cardID string, limit, offset int) ([]Transaction, error) {
	query := url.Values{}
	if cardID != "" {
		query.Set("card_id", cardID)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	path := "/transactions"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var txs []Transaction
	if err := c.do(ctx, http.MethodGet, path, nil, token, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// PostTransactionInput describes a charge to record against a card.
type PostTransactionInput struct {
	CardID   string `json:"card_id"`
	Merchant string `json:"merchant"`
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
}

// PostTransaction records a charge against one of the caller's cards.
func (c *Client) PostTransaction(ctx context.Context, token string, input PostTransactionInput) (Transaction, error) {
	var out Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", input, token, &out); err != nil {
		return Transaction{}, err
	}
	return out, nil
}

// GetTransaction fetches one transaction by id.
func (c *Client) GetTransaction(ctx context.Context, token, txID string) (Transaction, error) {
	var out Transaction
	path := fmt.Sprintf("/transactions/%s", url.PathEscape(txID))
	if err := c.do(ctx, http.MethodGet, path, nil, token, &out); err != nil {
		return Transaction{}, err
	}
	return out, nil
}

// Payment is a repayment applied to a card balance.
type Payment struct {
	ID        string    `json:"id"`
	CardID    string    `json:"card_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// ListPayments returns the caller's payment history.
func (c *Client) ListPayments(ctx context.Context, token string) ([]Payment, error) {
	var payments []Payment
	if err := c.do(ctx, http.MethodGet, "/payments", nil, token, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// MakePayment pays down a card balance by amount minor units.
func (c *Client) MakePayment(ctx context.Context, token, cardID string, amount int64) (Payment, error) {
	body := map[string]any{"card_id": cardID, "amount": amount}
	var out Payment
	if err := c.do(ctx, http.MethodPost, "/payments", body, token, &out); err != nil {
		return Payment{}, err
	}
	return out, nil
}

// RewardEntry is one accrual or redemption in the rewards ledger.
type RewardEntry struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Points    int64     `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// RewardsResponse bundles the points balance with its ledger.
type RewardsResponse struct {
	Balance int64         `json:"balance"`
	History []RewardEntry `json:"history"`
}

// Rewards returns the caller's points balance and history.
func (c *Client) Rewards(ctx context.Context, token string) (RewardsResponse, error) {
	var out RewardsResponse
	if err := c.do(ctx, http.MethodGet, "/rewards", nil, token, &out); err != nil {
		return RewardsResponse{}, err
	}
	return out, nil
}

// RedeemRewards spends points and returns the remaining balance.
func (c *Client) RedeemRewards(ctx context.Context, token string, points int64, reason string) (int64, error) {
	body := map[string]any{"points": points, "reason": reason}
	var out struct {
		Balance int64 `json:"balance"`
	}
	if err := c.do(ctx, http.MethodPost, "/rewards/redeem", body, token, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// Dispute is a challenge raised against a transaction.
type Dispute struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListDisputes returns the caller's disputes.
func (c *Client) ListDisputes(ctx context.Context, token string) ([]Dispute, error) {
	var disputes []Dispute
	if err := c.do(ctx, http.MethodGet, "/disputes", nil, token, &disputes); err != nil {
		return nil, err
	}
	return disputes, nil
}

// OpenDispute challenges a transaction.
func (c *Client) OpenDispute(ctx context.Context, token, transactionID, reason string) (Dispute, error) {
	body := map[string]string{"transaction_id": transactionID, "reason": reason}
	var out Dispute
	if err := c.do(ctx, http.MethodPost, "/disputes", body, token, &out); err != nil {
		return Dispute{}, err
	}
	return out, nil
}

// WithdrawDispute retires an open dispute.
func (c *Client) WithdrawDispute(ctx context.Context, token, disputeID string) (Dispute, error) {
	var out Dispute
	if err := c.do(ctx, http.MethodPost, "/disputes/"+disputeID+"/withdraw", nil, token, &out); err != nil {
		return Dispute{}, err
	}
	return out, nil
}

// Notification is an account event surfaced to the user.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ListNotifications returns notifications, optionally unread only.
func (c *Client) ListNotifications(ctx context.Context, token string, unreadOnly bool) ([]Notification, error) {
	path := "/notifications"
	if unreadOnly {
		path += "?unread=true"
	}
	var notifications []Notification
	if err := c.do(ctx, http.MethodGet, path, nil, token, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, token, notificationID string) error {
	path := fmt.Sprintf("/notifications/%s/read", url.PathEscape(notificationID))
	return c.do(ctx, http.MethodPost, path, nil, token, nil)
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/notifications/read-all", nil, token, nil)
}

// SpendingSummary is the aggregated spend report.
type SpendingSummary struct {
	Since      time.Time        `json:"since"`
	Months     int              `json:"months"`
	Total      int64            `json:"total"`
	ByCategory map[string]int64 `json:"by_category"`
}

// Summary fetches the caller's aggregated spending for the trailing months.
func (c *Client) Summary(ctx context.Context, token string, months int) (SpendingSummary, error) {
	path := "/analytics/summary"
	if months > 0 {
		path += "?months=" + strconv.Itoa(months)
	}
	var out SpendingSummary
	if err := c.do(ctx, http.MethodGet, path, nil, token, &out); err != nil {
		return SpendingSummary{}, err
	}
	return out, nil
}
