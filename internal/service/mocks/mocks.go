package mocks

import (
	"context"
	"time"

	"recyclefi/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByWallet(ctx context.Context, walletAddress string) (*model.User, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateLastAuth(ctx context.Context, userID uuid.UUID, authDate time.Time) error {
	args := m.Called(ctx, userID, authDate)
	return args.Error(0)
}

func (m *MockUserRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserReferrals(ctx context.Context, userID uuid.UUID) ([]*model.UserReferral, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferral), args.Error(1)
}

func (m *MockUserRepository) GetLedgerEntries(ctx context.Context, userID uuid.UUID, limit int) ([]*model.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LedgerEntry), args.Error(1)
}

func (m *MockUserRepository) CreditGameReward(ctx context.Context, userID uuid.UUID, amount, referralCut decimal.Decimal) error {
	args := m.Called(ctx, userID, amount, referralCut)
	return args.Error(0)
}

type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) CreateCampaign(ctx context.Context, campaign *model.Campaign) error {
	args := m.Called(ctx, campaign)
	return args.Error(0)
}

func (m *MockCampaignRepository) DeleteCampaign(ctx context.Context, campaignID uuid.UUID) error {
	args := m.Called(ctx, campaignID)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetCampaigns(ctx context.Context, status model.CampaignStatus) ([]*model.Campaign, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (*model.Campaign, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) JoinCampaign(ctx context.Context, userID, campaignID uuid.UUID, joinedAt time.Time) error {
	args := m.Called(ctx, userID, campaignID, joinedAt)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetTaskStatuses(ctx context.Context, userID, campaignID uuid.UUID) (map[uuid.UUID]*model.TaskProgress, error) {
	args := m.Called(ctx, userID, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*model.TaskProgress), args.Error(1)
}

func (m *MockCampaignRepository) GetPendingProofs(ctx context.Context, campaignID uuid.UUID) ([]*model.PendingProof, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PendingProof), args.Error(1)
}

func (m *MockCampaignRepository) RefreshCampaignStatuses(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) GetTask(ctx context.Context, taskID uuid.UUID) (*model.CampaignTask, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CampaignTask), args.Error(1)
}

func (m *MockTaskRepository) GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (*model.Campaign, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockTaskRepository) IsMember(ctx context.Context, userID, campaignID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, campaignID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskRepository) SubmitProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, proofURL string, submittedAt time.Time) error {
	args := m.Called(ctx, userID, campaignID, taskID, proofURL, submittedAt)
	return args.Error(0)
}

func (m *MockTaskRepository) CompleteTask(ctx context.Context, userID, campaignID, taskID uuid.UUID, paid, referralCut, co2 decimal.Decimal, completedAt time.Time) error {
	args := m.Called(ctx, userID, campaignID, taskID, paid, referralCut, co2, completedAt)
	return args.Error(0)
}

type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) GetTask(ctx context.Context, taskID uuid.UUID) (*model.CampaignTask, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CampaignTask), args.Error(1)
}

func (m *MockApprovalRepository) GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (*model.Campaign, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockApprovalRepository) GetProgress(ctx context.Context, userID, taskID uuid.UUID) (*model.TaskProgress, error) {
	args := m.Called(ctx, userID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TaskProgress), args.Error(1)
}

func (m *MockApprovalRepository) ApproveProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, paid, referralCut, co2 decimal.Decimal, approvedAt time.Time) error {
	args := m.Called(ctx, userID, campaignID, taskID, paid, referralCut, co2, approvedAt)
	return args.Error(0)
}

func (m *MockApprovalRepository) RejectProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, co2 decimal.Decimal) error {
	args := m.Called(ctx, userID, campaignID, taskID, co2)
	return args.Error(0)
}
