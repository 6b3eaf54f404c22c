package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DailyReward struct {
	Day           time.Time
	Budget        decimal.Decimal
	TotalRewarded decimal.Decimal
	Participants  int
	CoveredMs     int64
	MerkleRoot    *string
	RootTxHash    *string
	CreatedAt     time.Time
}

type UserDailyReward struct {
	Day           time.Time
	UserID        uuid.UUID
	WalletAddress string
	ExclusiveMs   int64
	SharedMs      int64
	Amount        decimal.Decimal
}

// SnapshotEntry is one leaf of the Merkle tree committed for a day.
type SnapshotEntry struct {
	WalletAddress    string
	CumulativeAmount decimal.Decimal
}

type ClaimProof struct {
	Day              time.Time
	Root             string
	WalletAddress    string
	CumulativeAmount decimal.Decimal
	Proof            []string
}

type QuestRewardStatus string

const (
	QuestRewardPending  QuestRewardStatus = "PENDING"
	QuestRewardApproved QuestRewardStatus = "APPROVED"
	QuestRewardSent     QuestRewardStatus = "SENT"
)

type QuestReward struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Reason     string
	Amount     decimal.Decimal
	Status     QuestRewardStatus
	TxHash     *string
	CreatedAt  time.Time
	ApprovedAt *time.Time
	SentAt     *time.Time
}
