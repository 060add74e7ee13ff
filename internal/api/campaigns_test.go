package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recyclefi/internal/model"
	"recyclefi/internal/service"
	"recyclefi/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type campaignServiceStub struct {
	mock.Mock
}

func (m *campaignServiceStub) ListActive(ctx context.Context) ([]*model.Campaign, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Campaign), args.Error(1)
}

func (m *campaignServiceStub) GetForUser(ctx context.Context, campaignID, userID uuid.UUID) (*service.CampaignView, error) {
	args := m.Called(ctx, campaignID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CampaignView), args.Error(1)
}

func (m *campaignServiceStub) Join(ctx context.Context, userID, campaignID uuid.UUID) error {
	args := m.Called(ctx, userID, campaignID)
	return args.Error(0)
}

func (m *campaignServiceStub) Create(ctx context.Context, campaign *model.Campaign) (uuid.UUID, error) {
	args := m.Called(ctx, campaign)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *campaignServiceStub) Delete(ctx context.Context, campaignID uuid.UUID) error {
	args := m.Called(ctx, campaignID)
	return args.Error(0)
}

func (m *campaignServiceStub) PendingProofs(ctx context.Context, campaignID uuid.UUID) ([]*model.PendingProof, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PendingProof), args.Error(1)
}

func (m *campaignServiceStub) RefreshStatuses(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type taskServiceStub struct {
	mock.Mock
}

func (m *taskServiceStub) SubmitProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, proofURL string) error {
	args := m.Called(ctx, userID, campaignID, taskID, proofURL)
	return args.Error(0)
}

func (m *taskServiceStub) CompleteTask(ctx context.Context, userID, campaignID, taskID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, campaignID, taskID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func newCampaignTestRouter(t *testing.T, cs service.CampaignServiceI) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	session := auth.NewSessionAuth("test-secret")
	token, err := session.IssueToken(uuid.New(), "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)

	router := gin.New()
	group := router.Group("/api/v1")
	NewCampaignRoutes(group, cs, &taskServiceStub{}, session)

	return router, token
}

func TestListCampaigns_ComputedProgress(t *testing.T) {
	cs := &campaignServiceStub{}
	cs.On("ListActive", mock.Anything).Return([]*model.Campaign{
		{
			ID:             uuid.New(),
			Title:          "Plastic Free Week",
			Status:         model.CampaignActive,
			Reward:         decimal.RequireFromString("0.1"),
			DurationDays:   7,
			StartDate:      time.Now().UTC().AddDate(0, 0, -1),
			Participants:   5,
			TaskCount:      10,
			CompletedTasks: 25,
		},
	}, nil)

	router, token := newCampaignTestRouter(t, cs)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)

	progress, ok := out[0]["progress"].(float64)
	require.True(t, ok, "list payload must carry a progress field")
	assert.InDelta(t, 50, progress, 1e-9)

	cs.AssertExpectations(t)
}

func TestGetCampaign_DailyTaskFlags(t *testing.T) {
	campaignID := uuid.New()
	yesterdayTask := uuid.New()
	todayTask := uuid.New()

	cs := &campaignServiceStub{}
	cs.On("GetForUser", mock.Anything, campaignID, mock.Anything).
		Return(&service.CampaignView{
			Campaign: &model.Campaign{
				ID:           campaignID,
				Status:       model.CampaignActive,
				DurationDays: 7,
				Tasks: []model.CampaignTask{
					{ID: yesterdayTask, Day: 2, Title: "Watch the intro", Type: model.TaskVideoWatch},
					{ID: todayTask, Day: 3, Title: "Post a photo", Type: model.TaskSocialPost},
				},
			},
			Progress:   25,
			CurrentDay: 3,
			Joined:     true,
			TaskStates: map[uuid.UUID]*model.TaskProgress{},
		}, nil)

	router, token := newCampaignTestRouter(t, cs)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/"+campaignID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Campaign   campaignResponse `json:"campaign"`
		CurrentDay int              `json:"current_day"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Campaign.Tasks, 2)
	assert.Equal(t, 3, out.CurrentDay)

	daily := map[string]bool{}
	for _, task := range out.Campaign.Tasks {
		daily[task.ID] = task.Daily
	}
	assert.False(t, daily[yesterdayTask.String()], "a past-day task is not in the daily window")
	assert.True(t, daily[todayTask.String()], "the current-day task carries the daily flag")

	cs.AssertExpectations(t)
}
