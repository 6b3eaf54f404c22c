package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"proof_of_existence/internal/rewards"
	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

const CronSecretHeader = "X-Cron-Secret"

type cronRoutes struct {
	ss     service.SettlementServiceI
	secret string
	now    func() time.Time
}

// NewCronRoutes registers the settlement trigger. Nothing is registered when
// secret is empty.
func NewCronRoutes(handler *gin.RouterGroup, ss service.SettlementServiceI, secret string) {
	if secret == "" {
		return
	}

	r := &cronRoutes{ss: ss, secret: secret, now: time.Now}
	h := handler.Group("/cron")
	h.Use(r.requireSecret())
	{
		h.POST("/settle", r.Settle)
		h.POST("/publish-root", r.PublishRoot)
	}
}

func (r *cronRoutes) requireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(CronSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(r.secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// day reads ?day=YYYY-MM-DD and defaults to yesterday UTC.
func (r *cronRoutes) day(c *gin.Context) (time.Time, bool) {
	v := c.Query("day")
	if v == "" {
		return rewards.DayStart(r.now()).AddDate(0, 0, -1), true
	}

	day, err := parseDay(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return day, true
}

type SettleResponse struct {
	Day          string `json:"day"`
	Participants int    `json:"participants"`
	Total        string `json:"total"`
	CoveredMs    int64  `json:"covered_ms"`
	Settled      int    `json:"settled_sessions"`
	SnapshotSize int    `json:"snapshot_size"`
	Root         string `json:"root,omitempty"`
	TxHash       string `json:"tx_hash,omitempty"`
	Warning      string `json:"warning,omitempty"`
}

func (r *cronRoutes) Settle(c *gin.Context) {
	log := logger.Logger()

	day, ok := r.day(c)
	if !ok {
		return
	}

	settlement, err := r.ss.Settle(c.Request.Context(), day)
	if err != nil && settlement == nil {
		if errors.Is(err, service.ErrAlreadySettled) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "day": day.Format(dayLayout)})
			return
		}
		log.Error("failed to settle day", zap.Time("day", day), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to settle day"})
		return
	}

	resp := SettleResponse{
		Day:          day.Format(dayLayout),
		Participants: len(settlement.Result.Rewards),
		Total:        settlement.Result.Total.String(),
		CoveredMs:    settlement.Result.CoveredMs,
		Settled:      settlement.SettledCount,
		SnapshotSize: settlement.SnapshotSize,
		Root:         settlement.Root,
		TxHash:       settlement.TxHash,
	}
	if err != nil {
		// rewards are stored, only publishing the root failed
		log.Error("settled day without publishing root", zap.Time("day", day), zap.Error(err))
		resp.Warning = err.Error()
	}

	c.JSON(http.StatusOK, resp)
}

func (r *cronRoutes) PublishRoot(c *gin.Context) {
	log := logger.Logger()

	day, ok := r.day(c)
	if !ok {
		return
	}

	txHash, err := r.ss.PublishRoot(c.Request.Context(), day)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDayNotSettled), errors.Is(err, service.ErrNoRoot):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRootAlreadyPublished):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrPublisherDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			log.Error("failed to publish root", zap.Time("day", day), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to publish root"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"day": day.Format(dayLayout), "tx_hash": txHash})
}
