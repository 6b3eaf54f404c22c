package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID                uuid.UUID
	WalletAddress     string
	SocialID          *string
	Balance           decimal.Decimal
	CumulativeRewards decimal.Decimal
	ReferralCode      string
	ReferredBy        *uuid.UUID
	Referrals         int
	IsAdmin           bool
	CreatedAt         time.Time
	LastLoginAt       time.Time
}

type UserReferral struct {
	WalletAddress     string
	Referrals         int
	CumulativeRewards decimal.Decimal
	CreatedAt         time.Time
}
