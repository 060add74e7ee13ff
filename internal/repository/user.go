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

const energyRechargeWindow = 8 * time.Hour

type User struct {
	ID               uuid.UUID       `db:"id"`
	WalletAddress    string          `db:"wallet_address"`
	Username         string          `db:"username"`
	ReferrerID       *uuid.UUID      `db:"referrer_id"`
	Referrals        int             `db:"referrals"`
	Balance          decimal.Decimal `db:"balance"`
	CO2Saved         decimal.Decimal `db:"co2_saved"`
	IsAdmin          bool            `db:"is_admin"`
	TotalEnergy      int             `db:"total_energy"`
	RemainingEnergy  int             `db:"remaining_energy"`
	EnergyUsedAt     *time.Time      `db:"energy_used_at"`
	RegistrationDate time.Time       `db:"registration_date"`
	AuthDate         time.Time       `db:"last_auth_date"`
}

type userReferral struct {
	WalletAddress string          `db:"wallet_address"`
	Username      string          `db:"username"`
	ReferralCount int             `db:"referrals"`
	Balance       decimal.Decimal `db:"balance"`
}

type ledgerEntry struct {
	ID         uuid.UUID       `db:"id"`
	UserID     uuid.UUID       `db:"user_id"`
	Amount     decimal.Decimal `db:"amount"`
	Kind       string          `db:"kind"`
	CampaignID *uuid.UUID      `db:"campaign_id"`
	TaskID     *uuid.UUID      `db:"task_id"`
	CreatedAt  time.Time       `db:"created_at"`
}

func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"id":                user.ID,
				"wallet_address":    user.WalletAddress,
				"username":          user.Username,
				"referrer_id":       user.ReferrerID,
				"registration_date": user.RegistrationDate,
				"last_auth_date":    user.AuthDate,
				"balance":           user.Balance,
				"referrals":         user.Referrals,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		if user.ReferrerID != nil {
			updateQuery, updateArgs, err := squirrel.
				Update("users").
				Set("referrals", squirrel.Expr("referrals + 1")).
				Where(squirrel.Eq{"id": user.ReferrerID}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build referrer update query: %w", err)
			}

			_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
			if err != nil {
				return fmt.Errorf("failed to update referrer: %w", err)
			}
		}

		return nil
	})
}

func (r *Repository) GetUserByWallet(ctx context.Context, walletAddress string) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"wallet_address": walletAddress}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) UpdateLastAuth(ctx context.Context, userID uuid.UUID, authDate time.Time) error {
	query, args, err := squirrel.
		Update("users").
		Set("last_auth_date", authDate).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	var users []User

	query, args, err := squirrel.
		Select("id", "wallet_address", "username", "balance", "co2_saved", "referrals").
		From("users").
		OrderBy("balance DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, err
	}

	userList := make([]*model.User, len(users))
	for i, user := range users {
		userList[i] = &model.User{
			ID:            user.ID,
			WalletAddress: user.WalletAddress,
			Username:      user.Username,
			Balance:       user.Balance,
			CO2Saved:      user.CO2Saved,
			Referrals:     user.Referrals,
		}
	}

	return userList, nil
}

func (r *Repository) GetUserReferrals(ctx context.Context, userID uuid.UUID) ([]*model.UserReferral, error) {
	query := squirrel.Select(
		"wallet_address",
		"username",
		"referrals",
		"balance",
	).
		From("users").
		Where(squirrel.Eq{"referrer_id": userID}).
		OrderBy("balance DESC").
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var referrals []*userReferral
	err = r.db.SelectContext(ctx, &referrals, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}

	refs := make([]*model.UserReferral, len(referrals))
	for i, ref := range referrals {
		refs[i] = &model.UserReferral{
			WalletAddress: ref.WalletAddress,
			Username:      ref.Username,
			ReferralCount: ref.ReferralCount,
			Balance:       ref.Balance,
		}
	}

	return refs, nil
}

func (r *Repository) GetLedgerEntries(ctx context.Context, userID uuid.UUID, limit int) ([]*model.LedgerEntry, error) {
	query, args, err := squirrel.
		Select("id", "user_id", "amount", "kind", "campaign_id", "task_id", "created_at").
		From("ledger_entries").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var entries []*ledgerEntry
	err = r.db.SelectContext(ctx, &entries, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	out := make([]*model.LedgerEntry, len(entries))
	for i, e := range entries {
		out[i] = &model.LedgerEntry{
			ID:         e.ID,
			UserID:     e.UserID,
			Amount:     e.Amount,
			Kind:       model.LedgerKind(e.Kind),
			CampaignID: e.CampaignID,
			TaskID:     e.TaskID,
			CreatedAt:  e.CreatedAt,
		}
	}

	return out, nil
}

// CreditGameReward credits a finished game run and pays the referrer cut,
// both as ledger entries in one transaction.
func (r *Repository) CreditGameReward(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, referralCut decimal.Decimal) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := r.getUserWithTx(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := creditWithTx(ctx, tx, userID, amount, model.LedgerGameReward, nil, nil); err != nil {
			return err
		}

		if user.ReferrerID != nil && referralCut.IsPositive() {
			if err := creditWithTx(ctx, tx, *user.ReferrerID, referralCut, model.LedgerReferralBonus, nil, nil); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *Repository) GetPlayerEnergy(ctx context.Context, userID uuid.UUID) (*model.PlayerEnergy, error) {
	user, err := r.getUserRow(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining := user.RemainingEnergy
	if user.EnergyUsedAt != nil && time.Since(*user.EnergyUsedAt) >= energyRechargeWindow {
		remaining = user.TotalEnergy
	}

	return &model.PlayerEnergy{
		Total:     user.TotalEnergy,
		Remaining: remaining,
		UsedAt:    user.EnergyUsedAt,
	}, nil
}

// ConsumeEnergy spends one play, recharging first when the window has
// elapsed since the last spend.
func (r *Repository) ConsumeEnergy(ctx context.Context, userID uuid.UUID) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		var user User
		query, args, err := squirrel.
			Select("*").
			From("users").
			Where(squirrel.Eq{"id": userID}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &user, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		remaining := user.RemainingEnergy
		if user.EnergyUsedAt != nil && time.Since(*user.EnergyUsedAt) >= energyRechargeWindow {
			remaining = user.TotalEnergy
		}
		if remaining <= 0 {
			return ErrOutOfEnergy
		}

		now := time.Now().UTC()
		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("remaining_energy", remaining-1).
			Set("energy_used_at", now).
			Where(squirrel.Eq{"id": userID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		return err
	})
}

func (r *Repository) getUserRow(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *Repository) getUserWithTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

// creditWithTx moves the balance and appends the matching ledger row.
// Negative amounts are reversals.
func creditWithTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal, kind model.LedgerKind, campaignID, taskID *uuid.UUID) error {
	updateQuery, updateArgs, err := squirrel.
		Update("users").
		Set("balance", squirrel.Expr("balance + ?", amount)).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	insertQuery, insertArgs, err := squirrel.
		Insert("ledger_entries").
		SetMap(map[string]interface{}{
			"id":          uuid.New(),
			"user_id":     userID,
			"amount":      amount,
			"kind":        string(kind),
			"campaign_id": campaignID,
			"task_id":     taskID,
			"created_at":  time.Now().UTC(),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, insertQuery, insertArgs...)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return nil
}

func (u *User) toModel() *model.User {
	return &model.User{
		ID:               u.ID,
		WalletAddress:    u.WalletAddress,
		Username:         u.Username,
		ReferrerID:       u.ReferrerID,
		Referrals:        u.Referrals,
		Balance:          u.Balance,
		CO2Saved:         u.CO2Saved,
		IsAdmin:          u.IsAdmin,
		RegistrationDate: u.RegistrationDate,
		AuthDate:         u.AuthDate,
	}
}
