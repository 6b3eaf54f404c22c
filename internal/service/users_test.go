package service

import (
	"context"
	"testing"
	"time"

	"proof_of_existence/internal/model"
	"proof_of_existence/internal/repository"
	"proof_of_existence/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	checksumAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	lowerAddress    = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
)

func TestUserService_Login(t *testing.T) {
	mockRepo := &mocks.MockUserRepository{}
	mockBadges := &mocks.MockBadgeAwarder{}
	service := NewUserService(mockRepo, mockBadges)
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	existing := &model.User{ID: uuid.New(), WalletAddress: lowerAddress}
	referrerID := uuid.New()

	tests := []struct {
		name          string
		address       string
		referralCode  string
		setupMocks    func()
		expectedError error
		check         func(t *testing.T, user *model.User)
	}{
		{
			name:          "Invalid address",
			address:       "0x123",
			setupMocks:    func() {},
			expectedError: ErrInvalidAddress,
		},
		{
			name:    "Existing user",
			address: checksumAddress,
			setupMocks: func() {
				mockRepo.On("GetUserByAddress", mock.Anything, lowerAddress).Return(existing, nil)
				mockRepo.On("TouchUserLogin", mock.Anything, existing.ID, now).Return(nil)
			},
			check: func(t *testing.T, user *model.User) {
				assert.Equal(t, existing.ID, user.ID)
				assert.Equal(t, now, user.LastLoginAt)
			},
		},
		{
			name:         "New user with referral",
			address:      checksumAddress,
			referralCode: "abcd2345",
			setupMocks: func() {
				mockRepo.On("GetUserByAddress", mock.Anything, lowerAddress).Return(nil, repository.ErrNotFound)
				mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.WalletAddress == lowerAddress
				}), "abcd2345").Run(func(args mock.Arguments) {
					args.Get(1).(*model.User).ReferredBy = &referrerID
				}).Return(nil)
				mockRepo.On("GetUserByID", mock.Anything, referrerID).
					Return(&model.User{ID: referrerID, Referrals: ReferrerBadgeThreshold}, nil)
				mockBadges.On("Award", mock.Anything, referrerID, model.BadgeReferrer5).Return(true, nil)
				mockRepo.On("TouchUserLogin", mock.Anything, mock.Anything, now).Return(nil)
			},
			check: func(t *testing.T, user *model.User) {
				assert.Equal(t, lowerAddress, user.WalletAddress)
				assert.Equal(t, &referrerID, user.ReferredBy)
			},
		},
		{
			name:    "Referrer below badge threshold",
			address: checksumAddress,
			setupMocks: func() {
				mockRepo.On("GetUserByAddress", mock.Anything, lowerAddress).Return(nil, repository.ErrNotFound)
				mockRepo.On("CreateUser", mock.Anything, mock.Anything, "").Run(func(args mock.Arguments) {
					args.Get(1).(*model.User).ReferredBy = &referrerID
				}).Return(nil)
				mockRepo.On("GetUserByID", mock.Anything, referrerID).
					Return(&model.User{ID: referrerID, Referrals: 2}, nil)
				mockRepo.On("TouchUserLogin", mock.Anything, mock.Anything, now).Return(nil)
			},
		},
		{
			name:    "Concurrent registration",
			address: checksumAddress,
			setupMocks: func() {
				mockRepo.On("GetUserByAddress", mock.Anything, lowerAddress).Return(nil, repository.ErrNotFound).Once()
				mockRepo.On("CreateUser", mock.Anything, mock.Anything, "").Return(repository.ErrAlreadyExists)
				mockRepo.On("GetUserByAddress", mock.Anything, lowerAddress).Return(existing, nil).Once()
				mockRepo.On("TouchUserLogin", mock.Anything, existing.ID, now).Return(nil)
			},
			check: func(t *testing.T, user *model.User) {
				assert.Equal(t, existing.ID, user.ID)
			},
		},
		{
			name:    "Repository failure",
			address: checksumAddress,
			setupMocks: func() {
				mockRepo.On("GetUserByAddress", mock.Anything, lowerAddress).Return(nil, assert.AnError)
			},
			expectedError: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			mockRepo.Calls = nil
			mockBadges.ExpectedCalls = nil
			mockBadges.Calls = nil

			tt.setupMocks()

			user, err := service.Login(context.Background(), tt.address, tt.referralCode)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, user)
			}

			mockRepo.AssertExpectations(t)
			mockBadges.AssertExpectations(t)
		})
	}
}

func TestUserService_Lookups(t *testing.T) {
	mockRepo := &mocks.MockUserRepository{}
	service := NewUserService(mockRepo, &mocks.MockBadgeAwarder{})
	user := &model.User{ID: uuid.New(), WalletAddress: lowerAddress}

	mockRepo.On("GetUserByAddress", mock.Anything, lowerAddress).Return(user, nil)
	mockRepo.On("GetUserReferrals", mock.Anything, user.ID).
		Return([]*model.UserReferral{{WalletAddress: "0x1"}}, nil)
	mockRepo.On("GetTopUsers", mock.Anything, LeaderboardSize).Return([]*model.User{user}, nil)

	referrals, err := service.GetReferrals(context.Background(), checksumAddress)
	require.NoError(t, err)
	assert.Len(t, referrals, 1)

	top, err := service.GetLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*model.User{user}, top)

	missing := "0x0000000000000000000000000000000000000001"
	mockRepo.On("GetUserByAddress", mock.Anything, missing).Return(nil, repository.ErrNotFound)
	_, err = service.GetUserByAddress(context.Background(), missing)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
