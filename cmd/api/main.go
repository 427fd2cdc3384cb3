package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardboxhq/cardbox/internal/app/migrate"
	httpx "github.com/cardboxhq/cardbox/internal/http"
	"github.com/cardboxhq/cardbox/internal/repository/postgres"
	"github.com/cardboxhq/cardbox/internal/service/analytics"
	"github.com/cardboxhq/cardbox/internal/service/auth"
	"github.com/cardboxhq/cardbox/internal/service/card"
	"github.com/cardboxhq/cardbox/internal/service/dispute"
	"github.com/cardboxhq/cardbox/internal/service/notification"
	"github.com/cardboxhq/cardbox/internal/service/payment"
	"github.com/cardboxhq/cardbox/internal/service/reward"
	"github.com/cardboxhq/cardbox/internal/service/transaction"
	"github.com/cardboxhq/cardbox/internal/ws"
	"github.com/cardboxhq/cardbox/pkg/config"
	"github.com/cardboxhq/cardbox/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(config.GetString("LOG_LEVEL", "info")))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	notifyHub := ws.NewHub(cfg.NotifyBuffer)

	notificationSvc := notification.New(repo, notifyHub, log)
	authSvc := auth.New(repo, repo, log, cfg)
	cardSvc := card.New(repo, notificationSvc, log, cfg)
	rewardSvc := reward.New(repo, notificationSvc, log)
	transactionSvc := transaction.New(repo, repo, rewardSvc, log)
	paymentSvc := payment.New(repo, repo, notificationSvc, log)
	disputeSvc := dispute.New(repo, repo, repo, notificationSvc, log)
	analyticsSvc := analytics.New(repo, log)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, httpx.Services{
		Auth:          authSvc,
		Cards:         cardSvc,
		Transactions:  transactionSvc,
		Payments:      paymentSvc,
		Rewards:       rewardSvc,
		Disputes:      disputeSvc,
		Notifications: notificationSvc,
		Analytics:     analyticsSvc,
	}, limiter, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
