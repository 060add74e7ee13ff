package service

import (
	"context"
	"testing"

	"recyclefi/internal/model"
	"recyclefi/internal/repository"
	"recyclefi/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserService_LoginUser(t *testing.T) {
	wallet := "0x1111111111111111111111111111111111111111"
	referrerWallet := "0x2222222222222222222222222222222222222222"
	referrerID := uuid.New()

	t.Run("Existing user only refreshes auth date", func(t *testing.T) {
		existing := &model.User{ID: uuid.New(), WalletAddress: wallet, Username: "kept"}

		mockRepo := &mocks.MockUserRepository{}
		mockRepo.On("GetUserByWallet", mock.Anything, wallet).Return(existing, nil)
		mockRepo.On("UpdateLastAuth", mock.Anything, existing.ID, mock.Anything).Return(nil)

		service := NewUserService(mockRepo)
		user, err := service.LoginUser(context.Background(), wallet, "ignored", &referrerWallet)

		assert.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)
		assert.Equal(t, "kept", user.Username)

		mockRepo.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("First login with a known referrer", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockRepo.On("GetUserByWallet", mock.Anything, wallet).
			Return(nil, repository.ErrNotFound)
		mockRepo.On("GetUserByWallet", mock.Anything, referrerWallet).
			Return(&model.User{ID: referrerID, WalletAddress: referrerWallet}, nil)
		mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.WalletAddress == wallet &&
				u.ReferrerID != nil && *u.ReferrerID == referrerID
		})).Return(nil)

		service := NewUserService(mockRepo)
		user, err := service.LoginUser(context.Background(), wallet, "newbie", &referrerWallet)

		assert.NoError(t, err)
		assert.Equal(t, "newbie", user.Username)
		assert.NotNil(t, user.ReferrerID)

		mockRepo.AssertExpectations(t)
	})

	t.Run("Unknown referrer is ignored", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockRepo.On("GetUserByWallet", mock.Anything, wallet).
			Return(nil, repository.ErrNotFound)
		mockRepo.On("GetUserByWallet", mock.Anything, referrerWallet).
			Return(nil, repository.ErrNotFound)
		mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.ReferrerID == nil
		})).Return(nil)

		service := NewUserService(mockRepo)
		_, err := service.LoginUser(context.Background(), wallet, "", &referrerWallet)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Self referral is ignored", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockRepo.On("GetUserByWallet", mock.Anything, wallet).
			Return(nil, repository.ErrNotFound).Once()
		mockRepo.On("GetUserByWallet", mock.Anything, wallet).
			Return(&model.User{ID: uuid.New(), WalletAddress: wallet}, nil).Once()
		mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.ReferrerID == nil
		})).Return(nil)

		service := NewUserService(mockRepo)
		_, err := service.LoginUser(context.Background(), wallet, "", &wallet)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestUserService_CreditGameScore(t *testing.T) {
	userID := uuid.New()

	t.Run("Score converts to RFX with a referral cut", func(t *testing.T) {
		expected := decimal.RequireFromString("0.25")

		mockRepo := &mocks.MockUserRepository{}
		mockRepo.On("CreditGameReward", mock.Anything, userID,
			mock.MatchedBy(func(amount decimal.Decimal) bool {
				return amount.Equal(expected)
			}),
			mock.MatchedBy(func(cut decimal.Decimal) bool {
				return cut.Equal(ReferralCut(expected))
			})).Return(nil)

		service := NewUserService(mockRepo)
		amount, err := service.CreditGameScore(context.Background(), userID, 250)

		assert.NoError(t, err)
		assert.True(t, amount.Equal(expected), "expected %s, got %s", expected, amount)

		mockRepo.AssertExpectations(t)
	})

	t.Run("Zero score credits nothing", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}

		service := NewUserService(mockRepo)
		amount, err := service.CreditGameScore(context.Background(), userID, 0)

		assert.NoError(t, err)
		assert.True(t, amount.IsZero())

		mockRepo.AssertNotCalled(t, "CreditGameReward",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown user", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockRepo.On("CreditGameReward", mock.Anything, userID, mock.Anything, mock.Anything).
			Return(repository.ErrNotFound)

		service := NewUserService(mockRepo)
		_, err := service.CreditGameScore(context.Background(), userID, 10)

		assert.ErrorIs(t, err, ErrUserNotFound)
		mockRepo.AssertExpectations(t)
	})
}
