package domain

import "time"

// Reward entry kinds.
const (
	RewardKindEarn   = "earn"
	RewardKindRedeem = "redeem"
)

// RewardEntry is one row of the append-only points ledger. Points are
// positive for earns and negative for redemptions.
type RewardEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Kind      string    `json:"kind"`
	Points    int64     `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
