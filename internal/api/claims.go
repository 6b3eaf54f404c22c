package api

import (
	"errors"
	"net/http"
	"strconv"

	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxHistoryDays = 90

type claimRoutes struct {
	ss service.SettlementServiceI
}

func NewClaimRoutes(handler *gin.RouterGroup, ss service.SettlementServiceI) {
	r := &claimRoutes{ss: ss}
	handler.GET("/claims/:address", r.GetClaimProof)
	handler.GET("/rewards/days", r.GetRewardDays)
}

type ClaimProofResponse struct {
	Day              string          `json:"day"`
	Root             string          `json:"root"`
	WalletAddress    string          `json:"wallet_address"`
	CumulativeAmount decimal.Decimal `json:"cumulative_amount"`
	Proof            []string        `json:"proof"`
}

func (r *claimRoutes) GetClaimProof(c *gin.Context) {
	log := logger.Logger()

	address := c.Param("address")
	proof, err := r.ss.Proof(c.Request.Context(), address)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNoSettlement), errors.Is(err, service.ErrNotInSnapshot):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			log.Error("failed to build claim proof", zap.String("address", address), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build claim proof"})
		}
		return
	}

	c.JSON(http.StatusOK, ClaimProofResponse{
		Day:              proof.Day.Format(dayLayout),
		Root:             proof.Root,
		WalletAddress:    proof.WalletAddress,
		CumulativeAmount: proof.CumulativeAmount,
		Proof:            proof.Proof,
	})
}

type RewardDayResponse struct {
	Day           string          `json:"day"`
	Budget        decimal.Decimal `json:"budget"`
	TotalRewarded decimal.Decimal `json:"total_rewarded"`
	Participants  int             `json:"participants"`
	CoveredMs     int64           `json:"covered_ms"`
	MerkleRoot    *string         `json:"merkle_root,omitempty"`
	RootTxHash    *string         `json:"root_tx_hash,omitempty"`
}

func (r *claimRoutes) GetRewardDays(c *gin.Context) {
	log := logger.Logger()

	limit := rewardHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxHistoryDays)
	}

	days, err := r.ss.History(c.Request.Context(), limit)
	if err != nil {
		log.Error("failed to list reward days", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reward days"})
		return
	}

	out := make([]RewardDayResponse, len(days))
	for i, d := range days {
		out[i] = RewardDayResponse{
			Day:           d.Day.Format(dayLayout),
			Budget:        d.Budget,
			TotalRewarded: d.TotalRewarded,
			Participants:  d.Participants,
			CoveredMs:     d.CoveredMs,
			MerkleRoot:    d.MerkleRoot,
			RootTxHash:    d.RootTxHash,
		}
	}

	c.JSON(http.StatusOK, out)
}
