package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proof_of_existence/internal/model"
	"proof_of_existence/internal/repository"
	"proof_of_existence/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dayLayout = "2006-01-02"

var weiPerToken = decimal.New(1, 18)

// StreakRules holds the daily streak reward ladder. Amounts are TIME26 wei.
type StreakRules struct {
	BaseReward decimal.Decimal
	Bonuses    []decimal.Decimal
	Milestones []model.StreakMilestone
}

func tokens(n int64) decimal.Decimal {
	return decimal.NewFromInt(n).Mul(weiPerToken)
}

func DefaultStreakRules() StreakRules {
	return StreakRules{
		BaseReward: tokens(500),
		Bonuses: []decimal.Decimal{
			tokens(0), tokens(140), tokens(280), tokens(400), tokens(500), tokens(600), tokens(700),
		},
		Milestones: []model.StreakMilestone{
			{Days: 7, Bonus: tokens(1_000), BadgeCode: model.BadgeStreak7},
			{Days: 30, Bonus: tokens(5_000), BadgeCode: model.BadgeStreak30},
			{Days: 100, Bonus: tokens(20_000), BadgeCode: model.BadgeStreak100},
		},
	}
}

// RewardFor returns the day reward for the given streak length. Streaks past
// the end of the ladder keep its last bonus.
func (r StreakRules) RewardFor(streak int) decimal.Decimal {
	if streak < 1 || len(r.Bonuses) == 0 {
		return r.BaseReward
	}
	i := streak
	if i > len(r.Bonuses) {
		i = len(r.Bonuses)
	}
	return r.BaseReward.Add(r.Bonuses[i-1])
}

func (r StreakRules) MilestoneFor(streak int) *model.StreakMilestone {
	for i := range r.Milestones {
		if r.Milestones[i].Days == streak {
			m := r.Milestones[i]
			return &m
		}
	}
	return nil
}

func MilestoneReason(days int) string {
	return fmt.Sprintf("streak_milestone_%d", days)
}

func StreakReason(day string) string {
	return "daily_streak_" + day
}

type DailyQuestService struct {
	repo  DailyQuestRepository
	rules StreakRules
	now   func() time.Time
}

func NewDailyQuestService(repo DailyQuestRepository, rules StreakRules) *DailyQuestService {
	return &DailyQuestService{
		repo:  repo,
		rules: rules,
		now:   time.Now,
	}
}

func (s *DailyQuestService) GetStatus(ctx context.Context, userID uuid.UUID) (*model.DailyQuestStatus, error) {
	quest, err := s.repo.GetDailyQuest(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := s.now().UTC()
	today := now.Format(dayLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dayLayout)

	tasks, err := s.repo.ListCompletedTasks(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	status := &model.DailyQuestStatus{
		UserID:         userID,
		Today:          today,
		LastClaimDay:   quest.LastClaimDay,
		CompletedTasks: tasks,
		CurrentStreak:  quest.CurrentStreak,
		LongestStreak:  quest.LongestStreak,
		DailyRewards:   make([]model.DayReward, len(s.rules.Bonuses)),
	}

	if quest.LastClaimDay != nil {
		status.ClaimedToday = *quest.LastClaimDay == today

		broken := !status.ClaimedToday && *quest.LastClaimDay != yesterday
		if broken && quest.CurrentStreak != 0 {
			status.CurrentStreak = 0

			err = s.repo.UpdateDailyQuest(ctx, &model.DailyQuest{
				UserID:        userID,
				LastClaimDay:  quest.LastClaimDay,
				CurrentStreak: 0,
				LongestStreak: quest.LongestStreak,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	status.IsAvailable = !status.ClaimedToday && len(tasks) > 0

	for i := range status.DailyRewards {
		status.DailyRewards[i] = model.DayReward{
			Day:    i + 1,
			Reward: s.rules.RewardFor(i + 1),
		}
	}

	return status, nil
}

func (s *DailyQuestService) CompleteTask(ctx context.Context, userID uuid.UUID, code model.TaskCode) error {
	if !code.Valid() {
		return ErrInvalidTask
	}

	today := s.now().UTC().Format(dayLayout)
	if err := s.repo.CompleteTask(ctx, userID, today, code); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	return nil
}

// Claim extends the streak when the previous claim was yesterday and starts a
// new one otherwise. The day reward and any milestone bonus are credited to
// the off-chain balance.
func (s *DailyQuestService) Claim(ctx context.Context, userID uuid.UUID) (*model.StreakClaim, error) {
	log := logger.Logger()

	status, err := s.GetStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	if status.ClaimedToday {
		return nil, ErrAlreadyClaimed
	}
	if len(status.CompletedTasks) == 0 {
		return nil, ErrNoTaskCompleted
	}

	today, err := time.Parse(dayLayout, status.Today)
	if err != nil {
		return nil, err
	}
	yesterday := today.AddDate(0, 0, -1).Format(dayLayout)

	streak := 1
	if status.LastClaimDay != nil && *status.LastClaimDay == yesterday {
		streak = status.CurrentStreak + 1
	}

	longest := status.LongestStreak
	if streak > longest {
		longest = streak
	}

	now := s.now().UTC()
	reward := s.rules.RewardFor(streak)
	dayReward := &model.QuestReward{
		ID:         uuid.New(),
		UserID:     userID,
		Reason:     StreakReason(status.Today),
		Amount:     reward,
		Status:     model.QuestRewardApproved,
		CreatedAt:  now,
		ApprovedAt: &now,
	}

	milestone := s.rules.MilestoneFor(streak)
	var milestoneReward *model.QuestReward
	if milestone != nil {
		milestoneReward = &model.QuestReward{
			ID:         uuid.New(),
			UserID:     userID,
			Reason:     MilestoneReason(milestone.Days),
			Amount:     milestone.Bonus,
			Status:     model.QuestRewardApproved,
			CreatedAt:  now,
			ApprovedAt: &now,
		}
	}

	todayStr := status.Today
	paid, err := s.repo.ClaimStreak(ctx, &model.DailyQuest{
		UserID:        userID,
		LastClaimDay:  &todayStr,
		CurrentStreak: streak,
		LongestStreak: longest,
	}, status.LastClaimDay, dayReward, milestoneReward)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyClaimed) {
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim streak: %w", err)
	}

	claim := &model.StreakClaim{
		Streak: streak,
		Reward: reward,
	}

	if paid {
		claim.Milestone = milestone

		if milestone.BadgeCode != "" {
			awarded, err := s.repo.AwardBadge(ctx, userID, milestone.BadgeCode)
			if err != nil {
				log.Error("failed to award milestone badge",
					zap.String("user_id", userID.String()),
					zap.String("badge", milestone.BadgeCode),
					zap.Error(err))
			} else if awarded {
				claim.Badge = milestone.BadgeCode
			}
		}
	}

	return claim, nil
}
