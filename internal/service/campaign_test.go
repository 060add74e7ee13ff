package service

import (
	"context"
	"testing"
	"time"

	"recyclefi/internal/model"
	"recyclefi/internal/repository"
	"recyclefi/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCurrentDay(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		duration int
		now      time.Time
		expected int
	}{
		{
			name:     "First day",
			duration: 7,
			now:      start.Add(6 * time.Hour),
			expected: 1,
		},
		{
			name:     "Mid campaign",
			duration: 7,
			now:      start.AddDate(0, 0, 3).Add(time.Hour),
			expected: 4,
		},
		{
			name:     "Before start clamps to day one",
			duration: 7,
			now:      start.AddDate(0, 0, -5),
			expected: 1,
		},
		{
			name:     "After end clamps to last day",
			duration: 7,
			now:      start.AddDate(0, 0, 30),
			expected: 7,
		},
		{
			name:     "Exact end boundary",
			duration: 7,
			now:      start.AddDate(0, 0, 6).Add(23 * time.Hour),
			expected: 7,
		},
		{
			name:     "Zero duration still reads as day one",
			duration: 0,
			now:      start.AddDate(0, 0, 3),
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CurrentDay(start, tt.duration, tt.now))
		})
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name           string
		completedTasks int
		taskCount      int
		participants   int
		expected       float64
	}{
		{
			name:           "Half done",
			completedTasks: 5,
			taskCount:      5,
			participants:   2,
			expected:       50,
		},
		{
			name:           "No participants reads as zero",
			completedTasks: 0,
			taskCount:      5,
			participants:   0,
			expected:       0,
		},
		{
			name:           "No tasks reads as zero",
			completedTasks: 0,
			taskCount:      0,
			participants:   3,
			expected:       0,
		},
		{
			name:           "Fully complete",
			completedTasks: 6,
			taskCount:      3,
			participants:   2,
			expected:       100,
		},
		{
			name:           "Over the ceiling clamps to hundred",
			completedTasks: 50,
			taskCount:      3,
			participants:   2,
			expected:       100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Progress(tt.completedTasks, tt.taskCount, tt.participants), 1e-9)
		})
	}
}

func TestCampaignService_Join(t *testing.T) {
	userID := uuid.New()
	campaignID := uuid.New()

	tests := []struct {
		name          string
		mockSetup     func(repo *mocks.MockCampaignRepository)
		expectedError error
	}{
		{
			name: "Joins an active campaign",
			mockSetup: func(repo *mocks.MockCampaignRepository) {
				repo.On("GetCampaignByID", mock.Anything, campaignID).
					Return(&model.Campaign{ID: campaignID, Status: model.CampaignActive}, nil)
				repo.On("JoinCampaign", mock.Anything, userID, campaignID, mock.Anything).
					Return(nil)
			},
		},
		{
			name: "Campaign not found",
			mockSetup: func(repo *mocks.MockCampaignRepository) {
				repo.On("GetCampaignByID", mock.Anything, campaignID).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrCampaignNotFound,
		},
		{
			name: "Upcoming campaign cannot be joined",
			mockSetup: func(repo *mocks.MockCampaignRepository) {
				repo.On("GetCampaignByID", mock.Anything, campaignID).
					Return(&model.Campaign{ID: campaignID, Status: model.CampaignUpcoming}, nil)
			},
			expectedError: ErrCampaignNotActive,
		},
		{
			name: "Completed campaign cannot be joined",
			mockSetup: func(repo *mocks.MockCampaignRepository) {
				repo.On("GetCampaignByID", mock.Anything, campaignID).
					Return(&model.Campaign{ID: campaignID, Status: model.CampaignCompleted}, nil)
			},
			expectedError: ErrCampaignNotActive,
		},
		{
			name: "Double join",
			mockSetup: func(repo *mocks.MockCampaignRepository) {
				repo.On("GetCampaignByID", mock.Anything, campaignID).
					Return(&model.Campaign{ID: campaignID, Status: model.CampaignActive}, nil)
				repo.On("JoinCampaign", mock.Anything, userID, campaignID, mock.Anything).
					Return(repository.ErrAlreadyJoined)
			},
			expectedError: ErrAlreadyJoined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockCampaignRepository{}
			tt.mockSetup(mockRepo)

			service := NewCampaignService(mockRepo, &mocks.MockTaskRepository{})
			err := service.Join(context.Background(), userID, campaignID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCampaignService_Create(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		campaign      *model.Campaign
		expectedError error
	}{
		{
			name: "Valid campaign",
			campaign: &model.Campaign{
				ID:           uuid.New(),
				Title:        "Plastic Free Week",
				DurationDays: 7,
				StartDate:    start,
				Reward:       decimal.RequireFromString("0.1"),
				Tasks: []model.CampaignTask{
					{Day: 1, Title: "Follow us", Type: model.TaskSocialFollow},
					{Day: 7, Title: "Upload a photo", Type: model.TaskProofUpload},
				},
			},
		},
		{
			name: "Zero duration rejected",
			campaign: &model.Campaign{
				ID:           uuid.New(),
				DurationDays: 0,
				StartDate:    start,
			},
			expectedError: ErrInvalidCampaign,
		},
		{
			name: "Unknown task type rejected",
			campaign: &model.Campaign{
				ID:           uuid.New(),
				DurationDays: 7,
				StartDate:    start,
				Tasks: []model.CampaignTask{
					{Day: 1, Title: "???", Type: model.TaskType("teleport")},
				},
			},
			expectedError: ErrInvalidCampaign,
		},
		{
			name: "Task day outside duration rejected",
			campaign: &model.Campaign{
				ID:           uuid.New(),
				DurationDays: 7,
				StartDate:    start,
				Tasks: []model.CampaignTask{
					{Day: 9, Title: "Late", Type: model.TaskSocialFollow},
				},
			},
			expectedError: ErrInvalidCampaign,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockCampaignRepository{}
			if tt.expectedError == nil {
				mockRepo.On("CreateCampaign", mock.Anything, mock.MatchedBy(func(c *model.Campaign) bool {
					if !c.EndDate.Equal(c.StartDate.AddDate(0, 0, c.DurationDays)) {
						return false
					}
					for _, task := range c.Tasks {
						if task.ID == uuid.Nil || task.CampaignID != c.ID {
							return false
						}
					}
					return true
				})).Return(nil)
			}

			service := NewCampaignService(mockRepo, &mocks.MockTaskRepository{})
			id, err := service.Create(context.Background(), tt.campaign)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Equal(t, uuid.Nil, id)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.campaign.ID, id)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCampaignService_GetForUser(t *testing.T) {
	userID := uuid.New()
	campaignID := uuid.New()
	taskID := uuid.New()
	start := time.Now().UTC().AddDate(0, 0, -2)

	mockRepo := &mocks.MockCampaignRepository{}
	mockTaskRepo := &mocks.MockTaskRepository{}

	mockRepo.On("GetCampaignByID", mock.Anything, campaignID).
		Return(&model.Campaign{
			ID:             campaignID,
			Status:         model.CampaignActive,
			StartDate:      start,
			DurationDays:   7,
			Participants:   2,
			TaskCount:      5,
			CompletedTasks: 5,
		}, nil)
	mockTaskRepo.On("IsMember", mock.Anything, userID, campaignID).
		Return(true, nil)
	mockRepo.On("GetTaskStatuses", mock.Anything, userID, campaignID).
		Return(map[uuid.UUID]*model.TaskProgress{
			taskID: {TaskID: taskID, Status: model.TaskCompleted},
		}, nil)

	service := NewCampaignService(mockRepo, mockTaskRepo)
	view, err := service.GetForUser(context.Background(), campaignID, userID)

	assert.NoError(t, err)
	assert.True(t, view.Joined)
	assert.Equal(t, 3, view.CurrentDay)
	assert.InDelta(t, 50, view.Progress, 1e-9)
	assert.Contains(t, view.TaskStates, taskID)

	mockRepo.AssertExpectations(t)
	mockTaskRepo.AssertExpectations(t)
}
