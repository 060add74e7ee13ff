package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"recyclefi/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type taskProgressRow struct {
	UserID         uuid.UUID       `db:"user_id"`
	CampaignID     uuid.UUID       `db:"campaign_id"`
	TaskID         uuid.UUID       `db:"task_id"`
	Status         string          `db:"status"`
	ProofURL       string          `db:"proof_url"`
	SubmittedAt    *time.Time      `db:"submitted_at"`
	CompletedAt    *time.Time      `db:"completed_at"`
	PaidAmount     decimal.Decimal `db:"paid_amount"`
	ReferralAmount decimal.Decimal `db:"referral_amount"`
}

type pendingProofRow struct {
	UserID        uuid.UUID `db:"user_id"`
	WalletAddress string    `db:"wallet_address"`
	Username      string    `db:"username"`
	CampaignID    uuid.UUID `db:"campaign_id"`
	TaskID        uuid.UUID `db:"task_id"`
	TaskTitle     string    `db:"task_title"`
	TaskDay       int       `db:"task_day"`
	ProofURL      string    `db:"proof_url"`
	SubmittedAt   time.Time `db:"submitted_at"`
}

func (r *Repository) GetProgress(ctx context.Context, userID, taskID uuid.UUID) (*model.TaskProgress, error) {
	query, args, err := squirrel.
		Select("user_id", "campaign_id", "task_id", "status", "proof_url",
			"submitted_at", "completed_at", "paid_amount", "referral_amount").
		From("task_progress").
		Where(squirrel.Eq{
			"user_id": userID,
			"task_id": taskID,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row taskProgressRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task progress: %w", err)
	}

	return row.toModel(), nil
}

func (r *Repository) GetTaskStatuses(ctx context.Context, userID, campaignID uuid.UUID) (map[uuid.UUID]*model.TaskProgress, error) {
	query, args, err := squirrel.
		Select("user_id", "campaign_id", "task_id", "status", "proof_url",
			"submitted_at", "completed_at", "paid_amount", "referral_amount").
		From("task_progress").
		Where(squirrel.Eq{
			"user_id":     userID,
			"campaign_id": campaignID,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*taskProgressRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get task statuses: %w", err)
	}

	statuses := make(map[uuid.UUID]*model.TaskProgress, len(rows))
	for _, row := range rows {
		statuses[row.TaskID] = row.toModel()
	}

	return statuses, nil
}

// SubmitProof moves the task into review. Resubmission while pending
// replaces the proof; a rejected task may be resubmitted.
func (r *Repository) SubmitProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, proofURL string, submittedAt time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		row, err := getProgressWithTx(ctx, tx, userID, taskID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if row != nil && row.Status == string(model.TaskCompleted) {
			return ErrTaskAlreadyCompleted
		}

		if row == nil {
			insertQuery, insertArgs, err := squirrel.
				Insert("task_progress").
				SetMap(map[string]interface{}{
					"user_id":      userID,
					"campaign_id":  campaignID,
					"task_id":      taskID,
					"status":       string(model.TaskPending),
					"proof_url":    proofURL,
					"submitted_at": submittedAt,
				}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, insertQuery, insertArgs...)
			if err != nil {
				return fmt.Errorf("failed to insert task progress: %w", err)
			}
			return nil
		}

		updateQuery, updateArgs, err := squirrel.
			Update("task_progress").
			SetMap(map[string]interface{}{
				"status":       string(model.TaskPending),
				"proof_url":    proofURL,
				"submitted_at": submittedAt,
			}).
			Where(squirrel.Eq{
				"user_id": userID,
				"task_id": taskID,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to update task progress: %w", err)
		}

		return nil
	})
}

// CompleteTask is the immediate path for task types that need no review.
// The status flip, balance credit, referral cut, CO2 counter and ledger
// rows all commit together.
func (r *Repository) CompleteTask(ctx context.Context, userID, campaignID, taskID uuid.UUID, paid, referralCut, co2 decimal.Decimal, completedAt time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		row, err := getProgressWithTx(ctx, tx, userID, taskID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if row != nil && row.Status == string(model.TaskCompleted) {
			return ErrTaskAlreadyCompleted
		}

		if row == nil {
			insertQuery, insertArgs, err := squirrel.
				Insert("task_progress").
				SetMap(map[string]interface{}{
					"user_id":         userID,
					"campaign_id":     campaignID,
					"task_id":         taskID,
					"status":          string(model.TaskCompleted),
					"completed_at":    completedAt,
					"paid_amount":     paid,
					"referral_amount": referralCut,
				}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
				return fmt.Errorf("failed to insert task progress: %w", err)
			}
		} else {
			updateQuery, updateArgs, err := squirrel.
				Update("task_progress").
				SetMap(map[string]interface{}{
					"status":          string(model.TaskCompleted),
					"completed_at":    completedAt,
					"paid_amount":     paid,
					"referral_amount": referralCut,
				}).
				Where(squirrel.Eq{
					"user_id": userID,
					"task_id": taskID,
				}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
				return fmt.Errorf("failed to update task progress: %w", err)
			}
		}

		return r.creditCompletion(ctx, tx, userID, campaignID, taskID, paid, referralCut, co2)
	})
}

// ApproveProof finalizes a pending (or previously rejected) proof.
// Approving an already completed task is a no-op so repeated approvals
// never double-credit.
func (r *Repository) ApproveProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, paid, referralCut, co2 decimal.Decimal, approvedAt time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		row, err := getProgressWithTx(ctx, tx, userID, taskID)
		if err != nil {
			return err
		}

		switch model.TaskStatus(row.Status) {
		case model.TaskCompleted:
			return nil
		case model.TaskOpen:
			return ErrNoProofSubmitted
		}

		updateQuery, updateArgs, err := squirrel.
			Update("task_progress").
			SetMap(map[string]interface{}{
				"status":          string(model.TaskCompleted),
				"completed_at":    approvedAt,
				"paid_amount":     paid,
				"referral_amount": referralCut,
			}).
			Where(squirrel.Eq{
				"user_id": userID,
				"task_id": taskID,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return fmt.Errorf("failed to update task progress: %w", err)
		}

		return r.creditCompletion(ctx, tx, userID, campaignID, taskID, paid, referralCut, co2)
	})
}

// RejectProof marks the proof rejected. Rejecting an approved proof
// reverses the stored credits exactly, so approve-then-reject nets to
// zero. Rejecting twice is a no-op.
func (r *Repository) RejectProof(ctx context.Context, userID, campaignID, taskID uuid.UUID, co2 decimal.Decimal) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		row, err := getProgressWithTx(ctx, tx, userID, taskID)
		if err != nil {
			return err
		}

		switch model.TaskStatus(row.Status) {
		case model.TaskRejected:
			return nil
		case model.TaskOpen:
			return ErrNoProofSubmitted
		}

		wasCompleted := model.TaskStatus(row.Status) == model.TaskCompleted

		updateQuery, updateArgs, err := squirrel.
			Update("task_progress").
			SetMap(map[string]interface{}{
				"status":          string(model.TaskRejected),
				"completed_at":    nil,
				"paid_amount":     decimal.Zero,
				"referral_amount": decimal.Zero,
			}).
			Where(squirrel.Eq{
				"user_id": userID,
				"task_id": taskID,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return fmt.Errorf("failed to update task progress: %w", err)
		}

		if !wasCompleted {
			return nil
		}

		user, err := r.getUserWithTx(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := creditWithTx(ctx, tx, userID, row.PaidAmount.Neg(), model.LedgerRewardReversal, &campaignID, &taskID); err != nil {
			return err
		}

		if user.ReferrerID != nil && row.ReferralAmount.IsPositive() {
			if err := creditWithTx(ctx, tx, *user.ReferrerID, row.ReferralAmount.Neg(), model.LedgerRewardReversal, &campaignID, &taskID); err != nil {
				return err
			}
		}

		return addCO2WithTx(ctx, tx, userID, co2.Neg())
	})
}

func (r *Repository) GetPendingProofs(ctx context.Context, campaignID uuid.UUID) ([]*model.PendingProof, error) {
	query, args, err := squirrel.
		Select(
			"p.user_id",
			"u.wallet_address",
			"u.username",
			"p.campaign_id",
			"p.task_id",
			"t.title AS task_title",
			"t.day AS task_day",
			"p.proof_url",
			"p.submitted_at",
		).
		From("task_progress p").
		Join("users u ON u.id = p.user_id").
		Join("campaign_tasks t ON t.id = p.task_id").
		Where(squirrel.Eq{
			"p.campaign_id": campaignID,
			"p.status":      string(model.TaskPending),
		}).
		OrderBy("p.submitted_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*pendingProofRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending proofs: %w", err)
	}

	proofs := make([]*model.PendingProof, len(rows))
	for i, row := range rows {
		proofs[i] = &model.PendingProof{
			UserID:        row.UserID,
			WalletAddress: row.WalletAddress,
			Username:      row.Username,
			CampaignID:    row.CampaignID,
			TaskID:        row.TaskID,
			TaskTitle:     row.TaskTitle,
			TaskDay:       row.TaskDay,
			ProofURL:      row.ProofURL,
			SubmittedAt:   row.SubmittedAt,
		}
	}

	return proofs, nil
}

func (r *Repository) creditCompletion(ctx context.Context, tx *sqlx.Tx, userID, campaignID, taskID uuid.UUID, paid, referralCut, co2 decimal.Decimal) error {
	user, err := r.getUserWithTx(ctx, tx, userID)
	if err != nil {
		return err
	}

	if err := creditWithTx(ctx, tx, userID, paid, model.LedgerTaskReward, &campaignID, &taskID); err != nil {
		return err
	}

	if user.ReferrerID != nil && referralCut.IsPositive() {
		if err := creditWithTx(ctx, tx, *user.ReferrerID, referralCut, model.LedgerReferralBonus, &campaignID, &taskID); err != nil {
			return err
		}
	}

	return addCO2WithTx(ctx, tx, userID, co2)
}

func addCO2WithTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, co2 decimal.Decimal) error {
	query, args, err := squirrel.
		Update("users").
		Set("co2_saved", squirrel.Expr("co2_saved + ?", co2)).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update co2 counter: %w", err)
	}

	return nil
}

func getProgressWithTx(ctx context.Context, tx *sqlx.Tx, userID, taskID uuid.UUID) (*taskProgressRow, error) {
	query, args, err := squirrel.
		Select("user_id", "campaign_id", "task_id", "status", "proof_url",
			"submitted_at", "completed_at", "paid_amount", "referral_amount").
		From("task_progress").
		Where(squirrel.Eq{
			"user_id": userID,
			"task_id": taskID,
		}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row taskProgressRow
	err = tx.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task progress: %w", err)
	}

	return &row, nil
}

func (row *taskProgressRow) toModel() *model.TaskProgress {
	return &model.TaskProgress{
		UserID:         row.UserID,
		CampaignID:     row.CampaignID,
		TaskID:         row.TaskID,
		Status:         model.TaskStatus(row.Status),
		ProofURL:       row.ProofURL,
		SubmittedAt:    row.SubmittedAt,
		CompletedAt:    row.CompletedAt,
		PaidAmount:     row.PaidAmount,
		ReferralAmount: row.ReferralAmount,
	}
}
