package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TaskStatus string

const (
	TaskOpen      TaskStatus = "open"
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskRejected  TaskStatus = "rejected"
)

// TaskProgress is the authoritative record of one user's progress on one
// campaign task. Per-campaign participant summaries and campaign progress
// are projections over these rows.
type TaskProgress struct {
	UserID      uuid.UUID
	CampaignID  uuid.UUID
	TaskID      uuid.UUID
	Status      TaskStatus
	ProofURL    string
	SubmittedAt *time.Time
	CompletedAt *time.Time

	// Amounts actually credited on completion, kept for exact reversal
	// when an approval is toggled back.
	PaidAmount     decimal.Decimal
	ReferralAmount decimal.Decimal
}

// PendingProof is one entry of the admin review queue.
type PendingProof struct {
	UserID        uuid.UUID
	WalletAddress string
	Username      string
	CampaignID    uuid.UUID
	TaskID        uuid.UUID
	TaskTitle     string
	TaskDay       int
	ProofURL      string
	SubmittedAt   time.Time
}
