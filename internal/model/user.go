package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID               uuid.UUID
	WalletAddress    string
	Username         string
	ReferrerID       *uuid.UUID
	Referrals        int
	Balance          decimal.Decimal
	CO2Saved         decimal.Decimal
	IsAdmin          bool
	RegistrationDate time.Time
	AuthDate         time.Time
}

type UserReferral struct {
	WalletAddress string
	Username      string
	ReferralCount int
	Balance       decimal.Decimal
}

// PlayerEnergy is the sort-game play allowance. Remaining is recomputed
// against the recharge window on read, not stored pre-decayed.
type PlayerEnergy struct {
	Total     int
	Remaining int
	UsedAt    *time.Time
}
