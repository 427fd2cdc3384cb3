package domain

import "time"

// Transaction is a posted charge against a card. Amounts are minor units.
type Transaction struct {
	ID       string    `json:"id"`
	CardID   string    `json:"card_id"`
	Amount   int64     `json:"amount"`
	Merchant string    `json:"merchant"`
	Category string    `json:"category"`
	PostedAt time.Time `json:"posted_at"`
}
