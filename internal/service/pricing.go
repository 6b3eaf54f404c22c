package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingRules mirror the proof recorder contract: a flat fee plus a linear
// per-second price, both in TIME26 wei.
type PricingRules struct {
	BaseFee        decimal.Decimal
	PricePerSecond decimal.Decimal
}

type Quote struct {
	Duration       int
	BaseFee        decimal.Decimal
	PricePerSecond decimal.Decimal
	Total          decimal.Decimal
	OnChain        bool
}

type PricingService struct {
	rules  PricingRules
	reader PricingReader
}

// NewPricingService accepts a nil reader when no chain is configured.
func NewPricingService(rules PricingRules, reader PricingReader) *PricingService {
	return &PricingService{
		rules:  rules,
		reader: reader,
	}
}

func quote(duration int, rules PricingRules) (*Quote, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	total := rules.BaseFee.Add(rules.PricePerSecond.Mul(decimal.NewFromInt(int64(duration))))

	return &Quote{
		Duration:       duration,
		BaseFee:        rules.BaseFee,
		PricePerSecond: rules.PricePerSecond,
		Total:          total,
	}, nil
}

func (s *PricingService) Quote(duration int) (*Quote, error) {
	return quote(duration, s.rules)
}

func (s *PricingService) QuoteOnChain(ctx context.Context, duration int) (*Quote, error) {
	if s.reader == nil {
		return nil, ErrPricingUnavailable
	}
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	pricing, err := s.reader.RecorderPricing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read recorder pricing: %w", err)
	}

	q, err := quote(duration, PricingRules{
		BaseFee:        decimal.NewFromBigInt(pricing.BaseFee, 0),
		PricePerSecond: decimal.NewFromBigInt(pricing.PricePerSecond, 0),
	})
	if err != nil {
		return nil, err
	}
	q.OnChain = true

	return q, nil
}
