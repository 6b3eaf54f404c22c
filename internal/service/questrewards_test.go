package service

import (
	"context"
	"strings"
	"testing"

	"proof_of_existence/internal/model"
	"proof_of_existence/internal/repository"
	"proof_of_existence/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuestRewardService_Create(t *testing.T) {
	mockRepo := &mocks.MockQuestRewardRepository{}
	service := NewQuestRewardService(mockRepo)
	user := &model.User{ID: uuid.New(), WalletAddress: lowerAddress}

	tests := []struct {
		name          string
		reason        string
		amount        decimal.Decimal
		setupMocks    func()
		expectedError error
	}{
		{
			name:   "Pending reward created",
			reason: "twitter_follow",
			amount: decimal.New(5, 18),
			setupMocks: func() {
				mockRepo.On("GetUserByAddress", mock.Anything, lowerAddress).Return(user, nil)
				mockRepo.On("CreateQuestReward", mock.Anything, mock.MatchedBy(func(r *model.QuestReward) bool {
					return r.UserID == user.ID && r.Status == model.QuestRewardPending && r.Reason == "twitter_follow"
				})).Return(nil)
			},
		},
		{
			name:          "Empty reason",
			reason:        "  ",
			amount:        decimal.NewFromInt(1),
			setupMocks:    func() {},
			expectedError: ErrInvalidReason,
		},
		{
			name:          "Zero amount",
			reason:        "x",
			amount:        decimal.Zero,
			setupMocks:    func() {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "Fractional wei",
			reason:        "x",
			amount:        decimal.RequireFromString("1.5"),
			setupMocks:    func() {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:   "Unknown user",
			reason: "x",
			amount: decimal.NewFromInt(1),
			setupMocks: func() {
				mockRepo.On("GetUserByAddress", mock.Anything, lowerAddress).Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
		{
			name:   "Duplicate reason",
			reason: "x",
			amount: decimal.NewFromInt(1),
			setupMocks: func() {
				mockRepo.On("GetUserByAddress", mock.Anything, lowerAddress).Return(user, nil)
				mockRepo.On("CreateQuestReward", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)
			},
			expectedError: ErrDuplicateReward,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			mockRepo.Calls = nil

			tt.setupMocks()

			reward, err := service.Create(context.Background(), checksumAddress, tt.reason, tt.amount)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, model.QuestRewardPending, reward.Status)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestQuestRewardService_Transitions(t *testing.T) {
	mockRepo := &mocks.MockQuestRewardRepository{}
	service := NewQuestRewardService(mockRepo)
	id := uuid.New()
	txHash := "0x" + strings.Repeat("0f", 32)

	mockRepo.On("ApproveQuestReward", mock.Anything, id).
		Return(&model.QuestReward{ID: id, Status: model.QuestRewardApproved}, nil).Once()
	reward, err := service.Approve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.QuestRewardApproved, reward.Status)

	mockRepo.On("ApproveQuestReward", mock.Anything, id).Return(nil, repository.ErrInvalidTransition).Once()
	_, err = service.Approve(context.Background(), id)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	mockRepo.On("MarkQuestRewardSent", mock.Anything, id, txHash).
		Return(&model.QuestReward{ID: id, Status: model.QuestRewardSent, TxHash: &txHash}, nil).Once()
	reward, err = service.MarkSent(context.Background(), id, txHash)
	require.NoError(t, err)
	assert.Equal(t, model.QuestRewardSent, reward.Status)

	_, err = service.MarkSent(context.Background(), id, "nope")
	assert.ErrorIs(t, err, ErrInvalidTxHash)

	missing := uuid.New()
	mockRepo.On("MarkQuestRewardSent", mock.Anything, missing, txHash).Return(nil, repository.ErrNotFound)
	_, err = service.MarkSent(context.Background(), missing, txHash)
	assert.ErrorIs(t, err, ErrQuestRewardNotFound)

	mockRepo.AssertExpectations(t)
}
