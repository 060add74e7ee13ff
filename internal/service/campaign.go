package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recyclefi/internal/model"
	"recyclefi/internal/repository"

	"github.com/google/uuid"
)

// CampaignView is a campaign enriched with the requesting user's
// standing: progress percentage, the calendar day the campaign is on,
// and per-task status.
type CampaignView struct {
	Campaign   *model.Campaign
	Progress   float64
	CurrentDay int
	Joined     bool
	TaskStates map[uuid.UUID]*model.TaskProgress
}

type CampaignService struct {
	repo     CampaignRepository
	taskRepo TaskRepository
}

func NewCampaignService(repo CampaignRepository, taskRepo TaskRepository) *CampaignService {
	return &CampaignService{
		repo:     repo,
		taskRepo: taskRepo,
	}
}

// CurrentDay resolves which 1-based day of its schedule a campaign is
// on. The result is clamped to [1, durationDays]: a start date in the
// future still reads as day 1, and a finished campaign stays on its
// last day.
func CurrentDay(start time.Time, durationDays int, now time.Time) int {
	if durationDays < 1 {
		return 1
	}

	day := int(now.Sub(start).Hours()/24) + 1
	if day < 1 {
		return 1
	}
	if day > durationDays {
		return durationDays
	}
	return day
}

// Progress is the campaign completion percentage: completed task rows
// over the tasks-times-participants ceiling, clamped to [0,100]. An
// empty campaign reads as 0, not a division error.
func Progress(completedTasks, taskCount, participants int) float64 {
	denominator := taskCount * participants
	if denominator <= 0 {
		return 0
	}

	progress := 100 * float64(completedTasks) / float64(denominator)
	if progress > 100 {
		return 100
	}
	if progress < 0 {
		return 0
	}
	return progress
}

func (s *CampaignService) ListActive(ctx context.Context) ([]*model.Campaign, error) {
	campaigns, err := s.repo.GetCampaigns(ctx, model.CampaignActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *CampaignService) GetForUser(ctx context.Context, campaignID, userID uuid.UUID) (*CampaignView, error) {
	campaign, err := s.repo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	joined, err := s.taskRepo.IsMember(ctx, userID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	states, err := s.repo.GetTaskStatuses(ctx, userID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task statuses: %w", err)
	}

	return &CampaignView{
		Campaign:   campaign,
		Progress:   Progress(campaign.CompletedTasks, campaign.TaskCount, campaign.Participants),
		CurrentDay: CurrentDay(campaign.StartDate, campaign.DurationDays, time.Now().UTC()),
		Joined:     joined,
		TaskStates: states,
	}, nil
}

func (s *CampaignService) Join(ctx context.Context, userID, campaignID uuid.UUID) error {
	campaign, err := s.repo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("failed to get campaign: %w", err)
	}

	if campaign.Status != model.CampaignActive {
		return ErrCampaignNotActive
	}

	err = s.repo.JoinCampaign(ctx, userID, campaignID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyJoined) {
			return ErrAlreadyJoined
		}
		return fmt.Errorf("failed to join campaign: %w", err)
	}

	return nil
}

func (s *CampaignService) Create(ctx context.Context, campaign *model.Campaign) (uuid.UUID, error) {
	if campaign.DurationDays < 1 {
		return uuid.Nil, fmt.Errorf("%w: duration must be at least one day", ErrInvalidCampaign)
	}

	for i := range campaign.Tasks {
		task := &campaign.Tasks[i]
		if !task.Type.Valid() {
			return uuid.Nil, fmt.Errorf("%w: unknown task type %q", ErrInvalidCampaign, task.Type)
		}
		if task.Day < 1 || task.Day > campaign.DurationDays {
			return uuid.Nil, fmt.Errorf("%w: task day %d outside campaign duration", ErrInvalidCampaign, task.Day)
		}
		if task.ID == uuid.Nil {
			task.ID = uuid.New()
		}
		task.CampaignID = campaign.ID
	}

	campaign.EndDate = campaign.StartDate.AddDate(0, 0, campaign.DurationDays)

	now := time.Now().UTC()
	switch {
	case now.Before(campaign.StartDate):
		campaign.Status = model.CampaignUpcoming
	case now.After(campaign.EndDate):
		campaign.Status = model.CampaignCompleted
	default:
		campaign.Status = model.CampaignActive
	}

	if err := s.repo.CreateCampaign(ctx, campaign); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	return campaign.ID, nil
}

func (s *CampaignService) Delete(ctx context.Context, campaignID uuid.UUID) error {
	err := s.repo.DeleteCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

func (s *CampaignService) PendingProofs(ctx context.Context, campaignID uuid.UUID) ([]*model.PendingProof, error) {
	if _, err := s.repo.GetCampaignByID(ctx, campaignID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	proofs, err := s.repo.GetPendingProofs(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending proofs: %w", err)
	}

	return proofs, nil
}

func (s *CampaignService) RefreshStatuses(ctx context.Context) (int64, error) {
	return s.repo.RefreshCampaignStatuses(ctx, time.Now().UTC())
}
