package model

import (
	"time"

	"github.com/google/uuid"
)

// Coin transaction directions.
const (
	CoinDirectionEarned = "earned"
	CoinDirectionUsed   = "used"
)

// CoinTransaction is one append-only entry in the coin ledger. An order
// produces at most one entry, carrying both the spent and earned amounts;
// Direction is the net effect and Balance is a snapshot of the user's
// balance after the entry was applied.
type CoinTransaction struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"userId" db:"user_id"`
	OrderID     *uuid.UUID `json:"orderId,omitempty" db:"order_id"`
	Direction   string     `json:"direction" db:"direction"`
	UsedCoins   int        `json:"usedCoins" db:"used_coins"`
	EarnedCoins int        `json:"earnedCoins" db:"earned_coins"`
	Balance     int        `json:"balance" db:"balance"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// BalanceResponse carries a user's current coin balance.
type BalanceResponse struct {
	Balance int `json:"balance"`
}

// RewardStage is one threshold on a stamp card. Reaching exactly Stamps
// collected stamps unlocks Reward.
type RewardStage struct {
	Stamps int    `json:"stamps"`
	Reward string `json:"reward"`
}

// StampCard is a loyalty card accumulating stamps toward tiered rewards.
type StampCard struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	UserID          uuid.UUID     `json:"userId" db:"user_id"`
	CardNumber      string        `json:"cardNumber" db:"card_number"`
	TotalStamps     int           `json:"totalStamps" db:"total_stamps"`
	CollectedStamps int           `json:"collectedStamps" db:"collected_stamps"`
	RewardStages    []RewardStage `json:"rewardStages" db:"reward_stages"`
	Active          bool          `json:"active" db:"active"`
	ExpiresAt       time.Time     `json:"expiresAt" db:"expires_at"`
	Version         int           `json:"version" db:"version"`
	CreatedAt       time.Time     `json:"createdAt" db:"created_at"`
}

// ActivateCardRequest represents the payload for activating a stamp card.
type ActivateCardRequest struct {
	CardNumber string `json:"cardNumber" validate:"required,len=7,numeric"`
}

// AddStampRequest represents the payload for adding a single stamp.
type AddStampRequest struct {
	Code string `json:"code" validate:"required"`
}

// AddStampResponse carries the new stamp count and, when a reward stage was
// hit exactly, the unlocked reward label.
type AddStampResponse struct {
	CollectedStamps int     `json:"collectedStamps"`
	UnlockedReward  *string `json:"unlockedReward"`
}

// Gift is a single-use, code-redeemable voucher.
type Gift struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Title     string    `json:"title" db:"title"`
	Active    bool      `json:"active" db:"active"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// UserGift links a redeemed gift to the user who claimed it.
type UserGift struct {
	ID     uuid.UUID  `json:"id" db:"id"`
	UserID uuid.UUID  `json:"userId" db:"user_id"`
	GiftID uuid.UUID  `json:"giftId" db:"gift_id"`
	Used   bool       `json:"used" db:"used"`
	UsedAt *time.Time `json:"usedAt,omitempty" db:"used_at"`
}

// CreateGiftRequest represents the admin payload for issuing a gift.
type CreateGiftRequest struct {
	Title     string    `json:"title" validate:"required"`
	ExpiresAt time.Time `json:"expiresAt" validate:"required"`
}

// RedeemGiftRequest represents the payload for redeeming a gift by code.
type RedeemGiftRequest struct {
	Code string `json:"code" validate:"required"`
}
