package api

import (
	"errors"
	"net/http"
	"time"

	"proof_of_existence/internal/middleware"
	"proof_of_existence/internal/model"
	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/auth"
	"proof_of_existence/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type questRewardRoutes struct {
	qs service.QuestRewardServiceI
}

func NewQuestRewardRoutes(handler *gin.RouterGroup, qs service.QuestRewardServiceI, a *auth.WalletAuth, authz *middleware.Authorization) {
	r := &questRewardRoutes{qs: qs}

	//admin
	admin := handler.Group("/admin/quest-rewards")
	admin.Use(a.WalletAuthMiddleware(), authz.AdminOnly())
	{
		admin.POST("", r.CreateQuestReward)
		admin.POST("/:id/approve", r.ApproveQuestReward)
		admin.POST("/:id/sent", r.MarkQuestRewardSent)
	}
}

type QuestRewardResponse struct {
	ID         string          `json:"id"`
	Reason     string          `json:"reason"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	TxHash     *string         `json:"tx_hash,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
	SentAt     *time.Time      `json:"sent_at,omitempty"`
}

func toQuestRewardResponse(q *model.QuestReward) QuestRewardResponse {
	return QuestRewardResponse{
		ID:         q.ID.String(),
		Reason:     q.Reason,
		Amount:     q.Amount,
		Status:     string(q.Status),
		TxHash:     q.TxHash,
		CreatedAt:  q.CreatedAt,
		ApprovedAt: q.ApprovedAt,
		SentAt:     q.SentAt,
	}
}

func questRewardError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrQuestRewardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrDuplicateReward):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidAddress),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidReason),
		errors.Is(err, service.ErrInvalidTxHash):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Logger().Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

type CreateQuestRewardRequest struct {
	Address string          `json:"address" binding:"required"`
	Reason  string          `json:"reason" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

func (r *questRewardRoutes) CreateQuestReward(c *gin.Context) {
	log := logger.Logger()

	var req CreateQuestRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reward, err := r.qs.Create(c.Request.Context(), req.Address, req.Reason, req.Amount)
	if err != nil {
		questRewardError(c, err, "failed to create quest reward")
		return
	}

	c.JSON(http.StatusCreated, toQuestRewardResponse(reward))
}

func (r *questRewardRoutes) ApproveQuestReward(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	reward, err := r.qs.Approve(c.Request.Context(), id)
	if err != nil {
		questRewardError(c, err, "failed to approve quest reward")
		return
	}

	c.JSON(http.StatusOK, toQuestRewardResponse(reward))
}

type MarkSentRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}

func (r *questRewardRoutes) MarkQuestRewardSent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req MarkSentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reward, err := r.qs.MarkSent(c.Request.Context(), id, req.TxHash)
	if err != nil {
		questRewardError(c, err, "failed to mark quest reward sent")
		return
	}

	c.JSON(http.StatusOK, toQuestRewardResponse(reward))
}
