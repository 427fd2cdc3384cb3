package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cardboxhq/cardbox/internal/domain"
	"github.com/cardboxhq/cardbox/internal/repository"
	"github.com/cardboxhq/cardbox/internal/service/analytics"
	authsvc "github.com/cardboxhq/cardbox/internal/service/auth"
	"github.com/cardboxhq/cardbox/internal/service/card"
	"github.com/cardboxhq/cardbox/internal/service/dispute"
	"github.com/cardboxhq/cardbox/internal/service/notification"
	"github.com/cardboxhq/cardbox/internal/service/payment"
	"github.com/cardboxhq/cardbox/internal/service/reward"
	"github.com/cardboxhq/cardbox/internal/service/transaction"
	"github.com/cardboxhq/cardbox/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	auth          authsvc.Service
	cards         card.Service
	transactions  transaction.Service
	payments      payment.Service
	rewards       reward.Service
	disputes      dispute.Service
	notifications notification.Service
	analytics     analytics.Service
	upgrader      websocket.Upgrader
	limiter       RateLimiter
	dbHealth      func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateLimitRegister  = 5
	rateLimitLogin     = 12
	rateLimitReset     = 5
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	rateLimitStream    = 30
	healthCheckTimeout = 2 * time.Second
	sseHeartbeatEvery  = 30 * time.Second
)

// Services bundles the dependencies wired into the Router.
type Services struct {
	Auth          authsvc.Service
	Cards         card.Service
	Transactions  transaction.Service
	Payments      payment.Service
	Rewards       reward.Service
	Disputes      dispute.Service
	Notifications notification.Service
	Analytics     analytics.Service
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, svcs Services, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:           http.NewServeMux(),
		logger:        logger,
		auth:          svcs.Auth,
		cards:         svcs.Cards,
		transactions:  svcs.Transactions,
		payments:      svcs.Payments,
		rewards:       svcs.Rewards,
		disputes:      svcs.Disputes,
		notifications: svcs.Notifications,
		analytics:     svcs.Analytics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())

	r.mux.HandleFunc("/auth/register", r.audit("/auth/register", r.withRateLimit("/auth/register", rateLimitRegister, rateWindowDefault, rateLimitKeyIP, r.handleRegister)))
	r.mux.HandleFunc("/auth/login", r.audit("/auth/login", r.withRateLimit("/auth/login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("/auth/request-password-reset", r.audit("/auth/request-password-reset", r.withRateLimit("/auth/request-password-reset", rateLimitReset, rateWindowDefault, rateLimitKeyIP, r.handleRequestPasswordReset)))
	r.mux.HandleFunc("/auth/reset-password", r.audit("/auth/reset-password", r.withRateLimit("/auth/reset-password", rateLimitReset, rateWindowDefault, rateLimitKeyIP, r.handleResetPassword)))

	r.mux.HandleFunc("/cards", r.audit("/cards", r.handlerAuthRate("/cards", rateLimitUserWrite, rateWindowDefault, r.handleCards)))
	r.mux.HandleFunc("/cards/", r.audit("/cards/{id}", r.handlerAuthRate("/cards/{id}", rateLimitUserWrite, rateWindowDefault, r.handleCardSubroutes)))
	r.mux.HandleFunc("/transactions", r.audit("/transactions", r.handlerAuthRate("/transactions", rateLimitUserRead, rateWindowDefault, r.handleTransactions)))
	r.mux.HandleFunc("/transactions/", r.audit("/transactions/{id}", r.handlerAuthRate("/transactions/{id}", rateLimitUserRead, rateWindowDefault, r.handleTransactionByID)))
	r.mux.HandleFunc("/payments", r.audit("/payments", r.handlerAuthRate("/payments", rateLimitUserWrite, rateWindowDefault, r.handlePayments)))
	r.mux.HandleFunc("/rewards", r.audit("/rewards", r.handlerAuthRate("/rewards", rateLimitUserRead, rateWindowDefault, r.handleRewards)))
	r.mux.HandleFunc("/rewards/redeem", r.audit("/rewards/redeem", r.handlerAuthRate("/rewards/redeem", rateLimitUserWrite, rateWindowDefault, r.handleRewardRedeem)))
	r.mux.HandleFunc("/disputes", r.audit("/disputes", r.handlerAuthRate("/disputes", rateLimitUserWrite, rateWindowDefault, r.handleDisputes)))
	r.mux.HandleFunc("/disputes/", r.audit("/disputes/{id}", r.handlerAuthRate("/disputes/{id}", rateLimitUserRead, rateWindowDefault, r.handleDisputeByID)))
	r.mux.HandleFunc("/notifications", r.audit("/notifications", r.handlerAuthRate("/notifications", rateLimitUserRead, rateWindowDefault, r.handleNotifications)))
	r.mux.HandleFunc("/notifications/read-all", r.audit("/notifications/read-all", r.handlerAuthRate("/notifications/read-all", rateLimitUserWrite, rateWindowDefault, r.handleNotificationsReadAll)))
	r.mux.HandleFunc("/notifications/stream", r.audit("/notifications/stream", r.handlerAuthRate("/notifications/stream", rateLimitStream, rateWindowDefault, r.handleNotificationSSE)))
	r.mux.HandleFunc("/notifications/", r.audit("/notifications/{id}", r.handlerAuthRate("/notifications/{id}", rateLimitUserWrite, rateWindowDefault, r.handleNotificationSubroutes)))
	r.mux.HandleFunc("/analytics/summary", r.audit("/analytics/summary", r.handlerAuthRate("/analytics/summary", rateLimitUserRead, rateWindowDefault, r.handleAnalyticsSummary)))
	r.mux.HandleFunc("/ws/notifications", r.audit("/ws/notifications", r.handlerAuthRate("/ws/notifications", rateLimitStream, rateWindowDefault, r.handleNotificationWS)))
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Registration failed")
		return
	}
	user, err := r.auth.Register(req.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		// generic failure, no field detail
		writeError(w, http.StatusBadRequest, "Registration failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":    user.ID,
		"email": user.Email,
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	_, token, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		r.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (r *Router) handleRequestPasswordReset(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := r.auth.RequestPasswordReset(req.Context(), payload.Email); err != nil {
		r.logger.Error("password reset request failed", "error", err)
	}
	// uniform response regardless of account existence
	writeJSON(w, http.StatusOK, map[string]string{"message": "If the account exists, a reset token has been issued"})
}

func (r *Router) handleResetPassword(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email       string `json:"email"`
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := r.auth.ResetPassword(req.Context(), payload.Email, payload.Token, payload.NewPassword); err != nil {
		switch {
		case errors.Is(err, authsvc.ErrResetTokenExpired), errors.Is(err, authsvc.ErrResetTokenConsumed), errors.Is(err, authsvc.ErrResetTokenInvalid):
			writeError(w, http.StatusUnauthorized, "invalid or expired reset token")
		case errors.Is(err, authsvc.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid password")
		default:
			r.logger.Error("password reset failed", "error", err)
			writeError(w, http.StatusInternalServerError, "password reset failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

type cardJSON struct {
	ID          string    `json:"id"`
	PANMasked   string    `json:"pan_masked"`
	Status      string    `json:"status"`
	CreditLimit int64     `json:"credit_limit"`
	Balance     int64     `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
}

func toCardJSON(c *domain.Card) cardJSON {
	return cardJSON{
		ID:          c.ID,
		PANMasked:   c.PANMasked,
		Status:      c.Status,
		CreditLimit: c.CreditLimit,
		Balance:     c.Balance,
		CreatedAt:   c.CreatedAt,
	}
}

func (r *Router) handleCards(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		cards, err := r.cards.List(req.Context(), info.UserID)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		out := make([]cardJSON, 0, len(cards))
		for i := range cards {
			out = append(out, toCardJSON(&cards[i]))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var payload struct {
			CreditLimit int64 `json:"credit_limit"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		issued, err := r.cards.Apply(req.Context(), info.UserID, payload.CreditLimit)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCardJSON(issued))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleCardSubroutes(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	trimmed := strings.TrimPrefix(req.URL.Path, "/cards/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		r.notFound(w)
		return
	}
	cardID := parts[0]
	switch {
	case len(parts) == 1:
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		c, err := r.cards.Get(req.Context(), info.UserID, cardID)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCardJSON(c))
	case len(parts) == 2 && parts[1] == "freeze":
		r.handleCardStatus(w, req, info.UserID, cardID, r.cards.Freeze)
	case len(parts) == 2 && parts[1] == "unfreeze":
		r.handleCardStatus(w, req, info.UserID, cardID, r.cards.Unfreeze)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleCardStatus(w http.ResponseWriter, req *http.Request, userID, cardID string, action func(context.Context, string, string) (*domain.Card, error)) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	c, err := action(req.Context(), userID, cardID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardJSON(c))
}

func (r *Router) handleTransactions(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
		cardID := req.URL.Query().Get("card_id")
		txs, err := r.transactions.List(req.Context(), info.UserID, cardID, limit, offset)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, txs)
	case http.MethodPost:
		var payload transaction.PostInput
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		tx, err := r.transactions.Post(req.Context(), info.UserID, payload)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleTransactionByID(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	txID := strings.TrimPrefix(req.URL.Path, "/transactions/")
	if txID == "" || strings.Contains(txID, "/") {
		r.notFound(w)
		return
	}
	tx, err := r.transactions.Get(req.Context(), info.UserID, txID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (r *Router) handlePayments(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		payments, err := r.payments.List(req.Context(), info.UserID)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payments)
	case http.MethodPost:
		var payload struct {
			CardID string `json:"card_id"`
			Amount int64  `json:"amount"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		p, err := r.payments.Pay(req.Context(), info.UserID, payload.CardID, payload.Amount)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleRewards(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	balance, err := r.rewards.Balance(req.Context(), info.UserID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	history, err := r.rewards.History(req.Context(), info.UserID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balance": balance,
		"history": history,
	})
}

func (r *Router) handleRewardRedeem(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Points int64  `json:"points"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	remaining, err := r.rewards.Redeem(req.Context(), info.UserID, payload.Points, payload.Reason)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": remaining})
}

func (r *Router) handleDisputes(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		disputes, err := r.disputes.List(req.Context(), info.UserID)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, disputes)
	case http.MethodPost:
		var payload struct {
			TransactionID string `json:"transaction_id"`
			Reason        string `json:"reason"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		d, err := r.disputes.Open(req.Context(), info.UserID, payload.TransactionID, payload.Reason)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleDisputeByID(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	trimmed := strings.TrimPrefix(req.URL.Path, "/disputes/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		r.notFound(w)
		return
	}
	disputeID := parts[0]
	switch {
	case len(parts) == 1:
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		d, err := r.disputes.Get(req.Context(), info.UserID, disputeID)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	case len(parts) == 2 && parts[1] == "withdraw":
		if req.Method != http.MethodPost {
			r.methodNotAllowed(w)
			return
		}
		d, err := r.disputes.Withdraw(req.Context(), info.UserID, disputeID)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleNotifications(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	unreadOnly, _ := strconv.ParseBool(req.URL.Query().Get("unread"))
	notifications, err := r.notifications.List(req.Context(), info.UserID, unreadOnly)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (r *Router) handleNotificationsReadAll(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	if err := r.notifications.MarkAllRead(req.Context(), info.UserID); err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (r *Router) handleNotificationSubroutes(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	trimmed := strings.TrimPrefix(req.URL.Path, "/notifications/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "read" {
		r.notFound(w)
		return
	}
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	if err := r.notifications.MarkRead(req.Context(), info.UserID, parts[0]); err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (r *Router) handleAnalyticsSummary(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	months, _ := strconv.Atoi(req.URL.Query().Get("months"))
	summary, err := r.analytics.SpendingSummary(req.Context(), info.UserID, months)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (r *Router) handleNotificationWS(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	hub := r.notifications.Hub()
	hub.Register(info.UserID, client)
	go func() {
		defer func() {
			hub.Unregister(info.UserID, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) handleNotificationSSE(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := ws.NewSSEClient(w, flusher, r.logger)
	hub := r.notifications.Hub()
	hub.Register(info.UserID, client)
	defer func() {
		hub.Unregister(info.UserID, client)
		client.Close()
	}()

	ticker := time.NewTicker(sseHeartbeatEvery)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// mustAuthInfo fetches auth context or reports a wiring error.
func (r *Router) mustAuthInfo(w http.ResponseWriter, req *http.Request) (authInfo, bool) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return authInfo{}, false
	}
	return info, true
}

// writeServiceError maps service failures to HTTP statuses.
func (r *Router) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrExceedsBalance),
		errors.Is(err, reward.ErrInvalidPoints),
		errors.Is(err, reward.ErrInsufficientPoints),
		errors.Is(err, transaction.ErrCardFrozen),
		errors.Is(err, transaction.ErrInvalidAmount),
		errors.Is(err, transaction.ErrMerchantRequired),
		errors.Is(err, card.ErrCardClosed),
		errors.Is(err, card.ErrInvalidCreditLimit),
		errors.Is(err, dispute.ErrReasonRequired),
		errors.Is(err, dispute.ErrDisputeClosed):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		r.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
