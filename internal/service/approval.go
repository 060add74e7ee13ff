package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recyclefi/internal/repository"

	"github.com/google/uuid"
)

type ApprovalService struct {
	repo ApprovalRepository
}

func NewApprovalService(repo ApprovalRepository) *ApprovalService {
	return &ApprovalService{
		repo: repo,
	}
}

// ReviewProof is the admin decision on a submitted proof. Approval pays
// out through the same formula as immediate completion; the payout clock
// is the submission time, so review latency never penalizes the user.
// Repeating the same decision is a no-op, and approve-then-reject
// returns balance and counters to their pre-approval state.
func (s *ApprovalService) ReviewProof(ctx context.Context, campaignID, taskID, userID uuid.UUID, approve bool) error {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to get task: %w", err)
	}
	if task.CampaignID != campaignID {
		return ErrTaskNotFound
	}

	campaign, err := s.repo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("failed to get campaign: %w", err)
	}

	progress, err := s.repo.GetProgress(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProofNotFound
		}
		return fmt.Errorf("failed to get task progress: %w", err)
	}

	if !approve {
		err = s.repo.RejectProof(ctx, userID, campaignID, taskID, task.CO2Impact)
		if err != nil {
			if errors.Is(err, repository.ErrNoProofSubmitted) {
				return ErrNoProofSubmitted
			}
			return fmt.Errorf("failed to reject proof: %w", err)
		}
		return nil
	}

	completedAt := time.Now().UTC()
	if progress.SubmittedAt != nil {
		completedAt = *progress.SubmittedAt
	}

	paid := Payout(task.Reward, task.Day, campaign.StartDate, completedAt)

	err = s.repo.ApproveProof(ctx, userID, campaignID, taskID, paid, ReferralCut(paid), task.CO2Impact, completedAt)
	if err != nil {
		if errors.Is(err, repository.ErrNoProofSubmitted) {
			return ErrNoProofSubmitted
		}
		return fmt.Errorf("failed to approve proof: %w", err)
	}

	return nil
}
