package api

import (
	"errors"
	"net/http"

	"proof_of_existence/internal/middleware"
	"proof_of_existence/internal/model"
	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/auth"
	"proof_of_existence/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type dailyQuestRoutes struct {
	ds service.DailyQuestServiceI
}

func NewDailyQuestRoutes(handler *gin.RouterGroup, ds service.DailyQuestServiceI, a *auth.WalletAuth, authz *middleware.Authorization) {
	r := &dailyQuestRoutes{ds: ds}
	h := handler.Group("/dailyquest")
	h.Use(a.WalletAuthMiddleware(), authz.CurrentUser())
	{
		h.GET("", r.GetDailyQuestStatus)
		h.POST("/tasks", r.CompleteTask)
		h.POST("/claim", r.ClaimDailyQuest)
	}
}

type DayRewardResponse struct {
	Day    int             `json:"day"`
	Reward decimal.Decimal `json:"reward"`
}

type DailyQuestStatusResponse struct {
	Today          string              `json:"today"`
	LastClaimDay   *string             `json:"last_claim_day,omitempty"`
	CompletedTasks []string            `json:"completed_tasks"`
	ClaimedToday   bool                `json:"claimed_today"`
	IsAvailable    bool                `json:"is_available"`
	CurrentStreak  int                 `json:"current_streak"`
	LongestStreak  int                 `json:"longest_streak"`
	DailyRewards   []DayRewardResponse `json:"daily_rewards"`
}

func (r *dailyQuestRoutes) GetDailyQuestStatus(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := r.ds.GetStatus(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to get daily quest status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get daily quest status"})
		return
	}

	rewards := make([]DayRewardResponse, len(status.DailyRewards))
	for i, reward := range status.DailyRewards {
		rewards[i] = DayRewardResponse{
			Day:    reward.Day,
			Reward: reward.Reward,
		}
	}

	tasks := make([]string, len(status.CompletedTasks))
	for i, task := range status.CompletedTasks {
		tasks[i] = string(task)
	}

	c.JSON(http.StatusOK, DailyQuestStatusResponse{
		Today:          status.Today,
		LastClaimDay:   status.LastClaimDay,
		CompletedTasks: tasks,
		ClaimedToday:   status.ClaimedToday,
		IsAvailable:    status.IsAvailable,
		CurrentStreak:  status.CurrentStreak,
		LongestStreak:  status.LongestStreak,
		DailyRewards:   rewards,
	})
}

type CompleteTaskRequest struct {
	Task string `json:"task" binding:"required"`
}

func (r *dailyQuestRoutes) CompleteTask(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.ds.CompleteTask(c.Request.Context(), user.ID, model.TaskCode(req.Task))
	if err != nil {
		if errors.Is(err, service.ErrInvalidTask) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("failed to complete task", zap.String("task", req.Task), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": req.Task})
}

type StreakClaimResponse struct {
	Streak         int              `json:"streak"`
	Reward         decimal.Decimal  `json:"reward"`
	MilestoneDays  int              `json:"milestone_days,omitempty"`
	MilestoneBonus *decimal.Decimal `json:"milestone_bonus,omitempty"`
	Badge          string           `json:"badge,omitempty"`
}

func (r *dailyQuestRoutes) ClaimDailyQuest(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	claim, err := r.ds.Claim(c.Request.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNoTaskCompleted):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Error("failed to claim daily quest", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim daily quest"})
		}
		return
	}

	resp := StreakClaimResponse{
		Streak: claim.Streak,
		Reward: claim.Reward,
		Badge:  claim.Badge,
	}
	if claim.Milestone != nil {
		resp.MilestoneDays = claim.Milestone.Days
		resp.MilestoneBonus = &claim.Milestone.Bonus
	}

	c.JSON(http.StatusOK, resp)
}
