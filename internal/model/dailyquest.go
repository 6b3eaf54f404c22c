package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TaskCode string

const (
	TaskDraw  TaskCode = "DRAW"
	TaskLike  TaskCode = "LIKE"
	TaskShare TaskCode = "SHARE"
	TaskVisit TaskCode = "VISIT"
)

func (c TaskCode) Valid() bool {
	switch c {
	case TaskDraw, TaskLike, TaskShare, TaskVisit:
		return true
	}
	return false
}

// DailyQuest is the stored streak row. Days are UTC dates formatted as
// YYYY-MM-DD.
type DailyQuest struct {
	UserID        uuid.UUID
	LastClaimDay  *string
	CurrentStreak int
	LongestStreak int
}

type DailyQuestStatus struct {
	UserID         uuid.UUID
	Today          string
	LastClaimDay   *string
	CompletedTasks []TaskCode
	ClaimedToday   bool
	IsAvailable    bool
	CurrentStreak  int
	LongestStreak  int
	DailyRewards   []DayReward
}

type DayReward struct {
	Day    int
	Reward decimal.Decimal
}

type StreakClaim struct {
	Streak    int
	Reward    decimal.Decimal
	Milestone *StreakMilestone
	Badge     string
}

type StreakMilestone struct {
	Days      int
	Bonus     decimal.Decimal
	BadgeCode string
}
