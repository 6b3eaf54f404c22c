package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"proof_of_existence/internal/model"
	"proof_of_existence/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuestRewardService manages the off-chain reward ledger:
// PENDING -> APPROVED -> SENT.
type QuestRewardService struct {
	repo QuestRewardRepository
	now  func() time.Time
}

func NewQuestRewardService(repo QuestRewardRepository) *QuestRewardService {
	return &QuestRewardService{
		repo: repo,
		now:  time.Now,
	}
}

func questRewardError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrQuestRewardNotFound
	case errors.Is(err, repository.ErrInvalidTransition):
		return ErrInvalidTransition
	case errors.Is(err, repository.ErrAlreadyExists):
		return ErrDuplicateReward
	}
	return err
}

func (s *QuestRewardService) Create(ctx context.Context, address string, reason string, amount decimal.Decimal) (*model.QuestReward, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrInvalidReason
	}
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(0)) {
		return nil, ErrInvalidAmount
	}

	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	reward := &model.QuestReward{
		ID:        uuid.New(),
		UserID:    user.ID,
		Reason:    reason,
		Amount:    amount,
		Status:    model.QuestRewardPending,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.CreateQuestReward(ctx, reward); err != nil {
		return nil, questRewardError(err)
	}

	return reward, nil
}

// Approve credits the reward to the user's balance.
func (s *QuestRewardService) Approve(ctx context.Context, id uuid.UUID) (*model.QuestReward, error) {
	reward, err := s.repo.ApproveQuestReward(ctx, id)
	if err != nil {
		return nil, questRewardError(err)
	}
	return reward, nil
}

func (s *QuestRewardService) MarkSent(ctx context.Context, id uuid.UUID, txHash string) (*model.QuestReward, error) {
	if !txHashPattern.MatchString(txHash) {
		return nil, ErrInvalidTxHash
	}

	reward, err := s.repo.MarkQuestRewardSent(ctx, id, txHash)
	if err != nil {
		return nil, questRewardError(err)
	}
	return reward, nil
}

func (s *QuestRewardService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.QuestReward, error) {
	rewards, err := s.repo.ListUserQuestRewards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quest rewards: %w", err)
	}
	return rewards, nil
}
