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
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type campaignRow struct {
	ID           uuid.UUID       `db:"id"`
	Title        string          `db:"title"`
	Description  string          `db:"description"`
	Category     string          `db:"category"`
	Status       string          `db:"status"`
	Reward       decimal.Decimal `db:"reward"`
	DurationDays int             `db:"duration_days"`
	StartDate    time.Time       `db:"start_date"`
	EndDate      time.Time       `db:"end_date"`
	CO2Impact    decimal.Decimal `db:"co2_impact"`
	CreatedAt    time.Time       `db:"created_at"`

	Participants   int `db:"participants"`
	TaskCount      int `db:"task_count"`
	CompletedTasks int `db:"completed_tasks"`
}

type campaignTaskRow struct {
	ID           uuid.UUID       `db:"id"`
	CampaignID   uuid.UUID       `db:"campaign_id"`
	Day          int             `db:"day"`
	Title        string          `db:"title"`
	Description  string          `db:"description"`
	TaskType     string          `db:"task_type"`
	Reward       decimal.Decimal `db:"reward"`
	Requirements pq.StringArray  `db:"requirements"`
	CO2Impact    decimal.Decimal `db:"co2_impact"`
}

func campaignColumns() []string {
	return []string{
		"c.id", "c.title", "c.description", "c.category", "c.status",
		"c.reward", "c.duration_days", "c.start_date", "c.end_date",
		"c.co2_impact", "c.created_at",
		"(SELECT COUNT(*) FROM campaign_members m WHERE m.campaign_id = c.id) AS participants",
		"(SELECT COUNT(*) FROM campaign_tasks t WHERE t.campaign_id = c.id) AS task_count",
		"(SELECT COUNT(*) FROM task_progress p WHERE p.campaign_id = c.id AND p.status = 'completed') AS completed_tasks",
	}
}

func (r *Repository) CreateCampaign(ctx context.Context, campaign *model.Campaign) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("campaigns").
			SetMap(map[string]interface{}{
				"id":            campaign.ID,
				"title":         campaign.Title,
				"description":   campaign.Description,
				"category":      campaign.Category,
				"status":        string(campaign.Status),
				"reward":        campaign.Reward,
				"duration_days": campaign.DurationDays,
				"start_date":    campaign.StartDate,
				"end_date":      campaign.EndDate,
				"co2_impact":    campaign.CO2Impact,
				"created_at":    time.Now().UTC(),
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build campaign insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert campaign: %w", err)
		}

		if len(campaign.Tasks) > 0 {
			taskBuilder := squirrel.
				Insert("campaign_tasks").
				Columns("id", "campaign_id", "day", "title", "description",
					"task_type", "reward", "requirements", "co2_impact").
				PlaceholderFormat(squirrel.Dollar)

			for _, task := range campaign.Tasks {
				taskBuilder = taskBuilder.Values(
					task.ID,
					campaign.ID,
					task.Day,
					task.Title,
					task.Description,
					string(task.Type),
					task.Reward,
					pq.StringArray(task.Requirements),
					task.CO2Impact,
				)
			}

			taskQuery, taskArgs, err := taskBuilder.ToSql()
			if err != nil {
				return fmt.Errorf("failed to build task insert query: %w", err)
			}

			if _, err := tx.ExecContext(ctx, taskQuery, taskArgs...); err != nil {
				return fmt.Errorf("failed to insert campaign tasks: %w", err)
			}
		}

		return nil
	})
}

// DeleteCampaign removes the campaign and everything referencing it.
// Ledger history is kept.
func (r *Repository) DeleteCampaign(ctx context.Context, campaignID uuid.UUID) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"task_progress", "campaign_members", "campaign_tasks"} {
			query, args, err := squirrel.
				Delete(table).
				Where(squirrel.Eq{"campaign_id": campaignID}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to delete from %s: %w", table, err)
			}
		}

		query, args, err := squirrel.
			Delete("campaigns").
			Where(squirrel.Eq{"id": campaignID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete campaign: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}

		return nil
	})
}

func (r *Repository) GetCampaigns(ctx context.Context, status model.CampaignStatus) ([]*model.Campaign, error) {
	builder := squirrel.
		Select(campaignColumns()...).
		From("campaigns c").
		OrderBy("c.start_date").
		PlaceholderFormat(squirrel.Dollar)

	if status != "" {
		builder = builder.Where(squirrel.Eq{"c.status": string(status)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*campaignRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}

	campaigns := make([]*model.Campaign, len(rows))
	for i, row := range rows {
		campaigns[i] = row.toModel()
	}

	return campaigns, nil
}

func (r *Repository) GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (*model.Campaign, error) {
	query, args, err := squirrel.
		Select(campaignColumns()...).
		From("campaigns c").
		Where(squirrel.Eq{"c.id": campaignID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row campaignRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	campaign := row.toModel()

	tasks, err := r.getCampaignTasks(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	campaign.Tasks = tasks

	return campaign, nil
}

func (r *Repository) GetTask(ctx context.Context, taskID uuid.UUID) (*model.CampaignTask, error) {
	query, args, err := squirrel.
		Select("id", "campaign_id", "day", "title", "description",
			"task_type", "reward", "requirements", "co2_impact").
		From("campaign_tasks").
		Where(squirrel.Eq{"id": taskID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row campaignTaskRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return row.toModel(), nil
}

func (r *Repository) getCampaignTasks(ctx context.Context, campaignID uuid.UUID) ([]model.CampaignTask, error) {
	query, args, err := squirrel.
		Select("id", "campaign_id", "day", "title", "description",
			"task_type", "reward", "requirements", "co2_impact").
		From("campaign_tasks").
		Where(squirrel.Eq{"campaign_id": campaignID}).
		OrderBy("day", "title").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*campaignTaskRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign tasks: %w", err)
	}

	tasks := make([]model.CampaignTask, len(rows))
	for i, row := range rows {
		tasks[i] = *row.toModel()
	}

	return tasks, nil
}

func (r *Repository) JoinCampaign(ctx context.Context, userID, campaignID uuid.UUID, joinedAt time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		checkQuery, checkArgs, err := squirrel.
			Select("1").
			From("campaign_members").
			Where(squirrel.Eq{
				"user_id":     userID,
				"campaign_id": campaignID,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &exists, checkQuery, checkArgs...)
		if err == nil {
			return ErrAlreadyJoined
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("campaign_members").
			Columns("user_id", "campaign_id", "joined_at").
			Values(userID, campaignID, joinedAt).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, insertQuery, insertArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert membership: %w", err)
		}

		return nil
	})
}

func (r *Repository) IsMember(ctx context.Context, userID, campaignID uuid.UUID) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		From("campaign_members").
		Where(squirrel.Eq{
			"user_id":     userID,
			"campaign_id": campaignID,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	err = r.db.GetContext(ctx, &exists, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// RefreshCampaignStatuses flips stored statuses to match the calendar:
// upcoming becomes active past the start date, active becomes completed
// past the end date. Returns the number of rows changed.
func (r *Repository) RefreshCampaignStatuses(ctx context.Context, now time.Time) (int64, error) {
	var total int64

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		activateQuery, activateArgs, err := squirrel.
			Update("campaigns").
			Set("status", string(model.CampaignActive)).
			Where(squirrel.And{
				squirrel.Eq{"status": string(model.CampaignUpcoming)},
				squirrel.LtOrEq{"start_date": now},
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, activateQuery, activateArgs...)
		if err != nil {
			return fmt.Errorf("failed to activate campaigns: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		total += rows

		completeQuery, completeArgs, err := squirrel.
			Update("campaigns").
			Set("status", string(model.CampaignCompleted)).
			Where(squirrel.And{
				squirrel.Eq{"status": string(model.CampaignActive)},
				squirrel.Lt{"end_date": now},
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, completeQuery, completeArgs...)
		if err != nil {
			return fmt.Errorf("failed to complete campaigns: %w", err)
		}
		rows, err = result.RowsAffected()
		if err != nil {
			return err
		}
		total += rows

		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (row *campaignRow) toModel() *model.Campaign {
	return &model.Campaign{
		ID:             row.ID,
		Title:          row.Title,
		Description:    row.Description,
		Category:       row.Category,
		Status:         model.CampaignStatus(row.Status),
		Reward:         row.Reward,
		DurationDays:   row.DurationDays,
		StartDate:      row.StartDate,
		EndDate:        row.EndDate,
		CO2Impact:      row.CO2Impact,
		CreatedAt:      row.CreatedAt,
		Participants:   row.Participants,
		TaskCount:      row.TaskCount,
		CompletedTasks: row.CompletedTasks,
	}
}

func (row *campaignTaskRow) toModel() *model.CampaignTask {
	return &model.CampaignTask{
		ID:           row.ID,
		CampaignID:   row.CampaignID,
		Day:          row.Day,
		Title:        row.Title,
		Description:  row.Description,
		Type:         model.TaskType(row.TaskType),
		Reward:       row.Reward,
		Requirements: row.Requirements,
		CO2Impact:    row.CO2Impact,
	}
}
