package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionPending SessionStatus = "PENDING"
	SessionSettled SessionStatus = "SETTLED"
	SessionMinted  SessionStatus = "MINTED"
)

// TrailPoint is a position in canvas space; T is milliseconds since the
// session start.
type TrailPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	T int64   `json:"t"`
}

type Session struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	WalletAddress string
	StartedAt     time.Time
	Duration      int
	Trail         []TrailPoint
	Color         string
	Status        SessionStatus
	TxHash        *string
	ThumbnailURL  *string
	Likes         int
	Views         int
	IsPublic      bool
	CreatedAt     time.Time
}

func (s *Session) EndsAt() time.Time {
	return s.StartedAt.Add(time.Duration(s.Duration) * time.Second)
}
