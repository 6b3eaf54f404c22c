package api

import (
	"errors"
	"net/http"
	"testing"

	"proof_of_existence/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newPricingEnv() (*testEnv, *MockPricingService) {
	env := newTestEnv()
	ps := new(MockPricingService)
	NewPricingRoutes(env.group, ps)
	return env, ps
}

func configuredQuote(duration int) *service.Quote {
	return &service.Quote{
		Duration:       duration,
		BaseFee:        decimal.NewFromInt(100),
		PricePerSecond: decimal.NewFromInt(2),
		Total:          decimal.NewFromInt(100 + 2*int64(duration)),
	}
}

func TestPricingRoutes_GetQuote(t *testing.T) {
	t.Run("OnChain", func(t *testing.T) {
		env, ps := newPricingEnv()
		q := configuredQuote(30)
		q.OnChain = true
		ps.On("QuoteOnChain", mock.Anything, 30).Return(q, nil)

		w := env.do(t, http.MethodGet, "/api/v1/pricing/quote?duration=30", nil, nil)
		requireStatus(t, w, http.StatusOK)

		var resp QuoteResponse
		decode(t, w, &resp)
		assert.True(t, resp.OnChain)
		assert.True(t, decimal.NewFromInt(160).Equal(resp.Total))
		ps.AssertNotCalled(t, "Quote", mock.Anything)
	})

	t.Run("FallsBackWithoutChain", func(t *testing.T) {
		env, ps := newPricingEnv()
		ps.On("QuoteOnChain", mock.Anything, 30).Return(nil, service.ErrPricingUnavailable)
		ps.On("Quote", 30).Return(configuredQuote(30), nil)

		w := env.do(t, http.MethodGet, "/api/v1/pricing/quote?duration=30", nil, nil)
		requireStatus(t, w, http.StatusOK)

		var resp QuoteResponse
		decode(t, w, &resp)
		assert.False(t, resp.OnChain)
	})

	t.Run("FallsBackOnRPCError", func(t *testing.T) {
		env, ps := newPricingEnv()
		ps.On("QuoteOnChain", mock.Anything, 30).Return(nil, errors.New("rpc timeout"))
		ps.On("Quote", 30).Return(configuredQuote(30), nil)

		w := env.do(t, http.MethodGet, "/api/v1/pricing/quote?duration=30", nil, nil)
		requireStatus(t, w, http.StatusOK)
		ps.AssertExpectations(t)
	})

	t.Run("InvalidDuration", func(t *testing.T) {
		env, ps := newPricingEnv()
		ps.On("QuoteOnChain", mock.Anything, -5).Return(nil, service.ErrInvalidDuration)

		w := env.do(t, http.MethodGet, "/api/v1/pricing/quote?duration=-5", nil, nil)
		requireStatus(t, w, http.StatusBadRequest)
		ps.AssertNotCalled(t, "Quote", mock.Anything)
	})

	t.Run("MissingDuration", func(t *testing.T) {
		env, _ := newPricingEnv()
		w := env.do(t, http.MethodGet, "/api/v1/pricing/quote", nil, nil)
		requireStatus(t, w, http.StatusBadRequest)
	})
}
