package analytics

import (
	"context"
	"time"

	"log/slog"

	"github.com/cardboxhq/cardbox/internal/repository"
)

const (
	defaultWindowMonths = 3
	maxWindowMonths     = 24
)

// Summary aggregates spending over the requested window.
type Summary struct {
	Since      time.Time        `json:"since"`
	Months     int              `json:"months"`
	Total      int64            `json:"total"`
	ByCategory map[string]int64 `json:"by_category"`
}

// Service answers spending summary queries.
type Service struct {
	repo   repository.AnalyticsRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.AnalyticsRepository, logger *slog.Logger) Service {
	return Service{repo: repo, logger: logger}
}

// SpendingSummary sums posted charges per category over the last N months.
func (s Service) SpendingSummary(ctx context.Context, userID string, months int) (*Summary, error) {
	if months <= 0 {
		months = defaultWindowMonths
	}
	if months > maxWindowMonths {
		months = maxWindowMonths
	}
	since := time.Now().UTC().AddDate(0, -months, 0)
	totals, err := s.repo.SpendingByCategory(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, v := range totals {
		total += v
	}
	return &Summary{Since: since, Months: months, Total: total, ByCategory: totals}, nil
}
