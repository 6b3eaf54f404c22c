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

type pricingRoutes struct {
	ps service.PricingServiceI
}

func NewPricingRoutes(handler *gin.RouterGroup, ps service.PricingServiceI) {
	r := &pricingRoutes{ps: ps}
	handler.GET("/pricing/quote", r.GetQuote)
}

type QuoteResponse struct {
	Duration       int             `json:"duration"`
	BaseFee        decimal.Decimal `json:"base_fee"`
	PricePerSecond decimal.Decimal `json:"price_per_second"`
	Total          decimal.Decimal `json:"total"`
	OnChain        bool            `json:"on_chain"`
}

// GetQuote prefers the recorder contract's live prices and falls back to the
// configured ones when no chain is available.
func (r *pricingRoutes) GetQuote(c *gin.Context) {
	log := logger.Logger()

	duration, err := strconv.Atoi(c.Query("duration"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
		return
	}

	quote, err := r.ps.QuoteOnChain(c.Request.Context(), duration)
	if err != nil && !errors.Is(err, service.ErrInvalidDuration) {
		if !errors.Is(err, service.ErrPricingUnavailable) {
			log.Warn("on-chain pricing failed, using configured prices", zap.Error(err))
		}
		quote, err = r.ps.Quote(duration)
	}
	if err != nil {
		if errors.Is(err, service.ErrInvalidDuration) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("failed to quote", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to quote"})
		return
	}

	c.JSON(http.StatusOK, QuoteResponse{
		Duration:       quote.Duration,
		BaseFee:        quote.BaseFee,
		PricePerSecond: quote.PricePerSecond,
		Total:          quote.Total,
		OnChain:        quote.OnChain,
	})
}
