package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LedgerKind string

const (
	LedgerTaskReward     LedgerKind = "task_reward"
	LedgerRewardReversal LedgerKind = "reward_reversal"
	LedgerReferralBonus  LedgerKind = "referral_bonus"
	LedgerGameReward     LedgerKind = "game_reward"
)

// LedgerEntry records one signed balance mutation. Every credit or
// reversal appends an entry in the same transaction that moves the balance.
type LedgerEntry struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Amount     decimal.Decimal
	Kind       LedgerKind
	CampaignID *uuid.UUID
	TaskID     *uuid.UUID
	CreatedAt  time.Time
}
