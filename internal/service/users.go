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

const (
	leaderboardLimit = 100
	ledgerLimit      = 50
)

// rfxPerPoint converts a sort-game score into RFX.
var rfxPerPoint = decimal.NewFromFloat(0.001)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// LoginUser upserts the wallet's account. A referrer wallet address is
// only honored on first login; it cannot be attached retroactively.
func (s *UserService) LoginUser(ctx context.Context, walletAddress, username string, referrer *string) (*model.User, error) {
	now := time.Now().UTC()

	user, err := s.repo.GetUserByWallet(ctx, walletAddress)
	if err == nil {
		if err := s.repo.UpdateLastAuth(ctx, user.ID, now); err != nil {
			return nil, fmt.Errorf("failed to update auth date: %w", err)
		}
		user.AuthDate = now
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var referrerID *uuid.UUID
	if referrer != nil {
		ref, err := s.repo.GetUserByWallet(ctx, *referrer)
		if err == nil && ref.WalletAddress != walletAddress {
			referrerID = &ref.ID
		}
		// An unknown referrer code is ignored, not a login failure.
	}

	user = &model.User{
		ID:               uuid.New(),
		WalletAddress:    walletAddress,
		Username:         username,
		ReferrerID:       referrerID,
		Balance:          decimal.Zero,
		RegistrationDate: now,
		AuthDate:         now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUserReferrals(ctx context.Context, userID uuid.UUID) ([]*model.UserReferral, error) {
	referrals, err := s.repo.GetUserReferrals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}
	return referrals, nil
}

func (s *UserService) GetLeaderboard(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.GetTopUsers(ctx, leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetLedger(ctx context.Context, userID uuid.UUID) ([]*model.LedgerEntry, error) {
	entries, err := s.repo.GetLedgerEntries(ctx, userID, ledgerLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	return entries, nil
}

// CreditGameScore converts a finished sort-game run into an RFX credit.
func (s *UserService) CreditGameScore(ctx context.Context, userID uuid.UUID, score int) (decimal.Decimal, error) {
	if score <= 0 {
		return decimal.Zero, nil
	}

	amount := rfxPerPoint.Mul(decimal.NewFromInt(int64(score)))

	err := s.repo.CreditGameReward(ctx, userID, amount, ReferralCut(amount))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to credit game reward: %w", err)
	}

	return amount, nil
}
