package service

import (
	"context"
	"errors"
	"time"

	"recyclefi/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrProofNotFound    = errors.New("proof not found")

	ErrNotJoined            = errors.New("user has not joined the campaign")
	ErrAlreadyJoined        = errors.New("campaign already joined")
	ErrCampaignNotActive    = errors.New("campaign is not active")
	ErrTaskAlreadyCompleted = errors.New("task already completed")
	ErrNoProofSubmitted     = errors.New("no proof submitted for this task")

	ErrProofRequired    = errors.New("this task type requires a proof submission")
	ErrProofNotExpected = errors.New("this task type does not take a proof")
	ErrInvalidCampaign  = errors.New("invalid campaign definition")
)

type UserServiceI interface {
	LoginUser(ctx context.Context, walletAddress, username string, referrer *string) (*model.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error)
	GetUserReferrals(ctx context.Context, userID uuid.UUID) ([]*model.UserReferral, error)
	GetLeaderboard(ctx context.Context) ([]*model.User, error)
	GetLedger(ctx context.Context, userID uuid.UUID) ([]*model.LedgerEntry, error)
	CreditGameScore(ctx context.Context, userID uuid.UUID, score int) (decimal.Decimal, error)
}

type CampaignServiceI interface {
	ListActive(ctx context.Context) ([]*model.Campaign, error)
	GetForUser(ctx context.Context, campaignID, userID uuid.UUID) (*CampaignView, error)
	Join(ctx context.Context, userID, campaignID uuid.UUID) error
	Create(ctx context.Context, campaign *model.Campaign) (uuid.UUID, error)
	Delete(ctx context.Context, campaignID uuid.UUID) error
	PendingProofs(ctx context.Context, campaignID uuid.UUID) ([]*model.PendingProof, error)
	RefreshStatuses(ctx context.Context) (int64, error)
}

type TaskServiceI interface {
	SubmitProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, proofURL string) error
	CompleteTask(ctx context.Context, userID, campaignID, taskID uuid.UUID) (decimal.Decimal, error)
}

type ApprovalServiceI interface {
	ReviewProof(ctx context.Context, campaignID, taskID, userID uuid.UUID, approve bool) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByWallet(ctx context.Context, walletAddress string) (*model.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateLastAuth(ctx context.Context, userID uuid.UUID, authDate time.Time) error
	GetTopUsers(ctx context.Context, limit int) ([]*model.User, error)
	GetUserReferrals(ctx context.Context, userID uuid.UUID) ([]*model.UserReferral, error)
	GetLedgerEntries(ctx context.Context, userID uuid.UUID, limit int) ([]*model.LedgerEntry, error)
	CreditGameReward(ctx context.Context, userID uuid.UUID, amount, referralCut decimal.Decimal) error
}

type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign *model.Campaign) error
	DeleteCampaign(ctx context.Context, campaignID uuid.UUID) error
	GetCampaigns(ctx context.Context, status model.CampaignStatus) ([]*model.Campaign, error)
	GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (*model.Campaign, error)
	JoinCampaign(ctx context.Context, userID, campaignID uuid.UUID, joinedAt time.Time) error
	GetTaskStatuses(ctx context.Context, userID, campaignID uuid.UUID) (map[uuid.UUID]*model.TaskProgress, error)
	GetPendingProofs(ctx context.Context, campaignID uuid.UUID) ([]*model.PendingProof, error)
	RefreshCampaignStatuses(ctx context.Context, now time.Time) (int64, error)
}

type TaskRepository interface {
	GetTask(ctx context.Context, taskID uuid.UUID) (*model.CampaignTask, error)
	GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (*model.Campaign, error)
	IsMember(ctx context.Context, userID, campaignID uuid.UUID) (bool, error)
	SubmitProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, proofURL string, submittedAt time.Time) error
	CompleteTask(ctx context.Context, userID, campaignID, taskID uuid.UUID, paid, referralCut, co2 decimal.Decimal, completedAt time.Time) error
}

type ApprovalRepository interface {
	GetTask(ctx context.Context, taskID uuid.UUID) (*model.CampaignTask, error)
	GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (*model.Campaign, error)
	GetProgress(ctx context.Context, userID, taskID uuid.UUID) (*model.TaskProgress, error)
	ApproveProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, paid, referralCut, co2 decimal.Decimal, approvedAt time.Time) error
	RejectProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, co2 decimal.Decimal) error
}
