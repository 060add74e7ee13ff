package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recyclefi/internal/model"
	"recyclefi/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
	}
}

// SubmitProof stores the proof reference and moves the task into the
// admin review queue. Only proof-requiring task types take this path.
func (s *TaskService) SubmitProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, proofURL string) error {
	if proofURL == "" {
		return ErrProofRequired
	}

	task, err := s.getCampaignTask(ctx, campaignID, taskID)
	if err != nil {
		return err
	}

	if !task.Type.RequiresProof() {
		return ErrProofNotExpected
	}

	if err := s.requireMembership(ctx, userID, campaignID); err != nil {
		return err
	}

	err = s.repo.SubmitProof(ctx, userID, campaignID, taskID, proofURL, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrTaskAlreadyCompleted) {
			return ErrTaskAlreadyCompleted
		}
		return fmt.Errorf("failed to submit proof: %w", err)
	}

	return nil
}

// CompleteTask is the immediate path for task types that need no admin
// review. Returns the penalty-adjusted amount credited.
func (s *TaskService) CompleteTask(ctx context.Context, userID, campaignID, taskID uuid.UUID) (decimal.Decimal, error) {
	task, err := s.getCampaignTask(ctx, campaignID, taskID)
	if err != nil {
		return decimal.Zero, err
	}

	if task.Type.RequiresProof() {
		return decimal.Zero, ErrProofRequired
	}

	if err := s.requireMembership(ctx, userID, campaignID); err != nil {
		return decimal.Zero, err
	}

	campaign, err := s.repo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, ErrCampaignNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get campaign: %w", err)
	}

	now := time.Now().UTC()
	paid := Payout(task.Reward, task.Day, campaign.StartDate, now)

	err = s.repo.CompleteTask(ctx, userID, campaignID, taskID, paid, ReferralCut(paid), task.CO2Impact, now)
	if err != nil {
		if errors.Is(err, repository.ErrTaskAlreadyCompleted) {
			return decimal.Zero, ErrTaskAlreadyCompleted
		}
		return decimal.Zero, fmt.Errorf("failed to complete task: %w", err)
	}

	return paid, nil
}

func (s *TaskService) getCampaignTask(ctx context.Context, campaignID, taskID uuid.UUID) (*model.CampaignTask, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if task.CampaignID != campaignID {
		return nil, ErrTaskNotFound
	}

	return task, nil
}

func (s *TaskService) requireMembership(ctx context.Context, userID, campaignID uuid.UUID) error {
	joined, err := s.repo.IsMember(ctx, userID, campaignID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !joined {
		return ErrNotJoined
	}
	return nil
}
