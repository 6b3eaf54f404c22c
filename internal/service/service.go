package service

import (
	"context"
	"errors"
	"time"

	"proof_of_existence/internal/model"
	"proof_of_existence/internal/rewards"
	"proof_of_existence/pkg/chain"
	"proof_of_existence/pkg/storage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidAddress       = errors.New("invalid wallet address")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionRejected      = errors.New("session rejected")
	ErrSessionMinted        = errors.New("session is already minted")
	ErrForbidden            = errors.New("not the owner of this resource")
	ErrInvalidTxHash        = errors.New("invalid transaction hash")
	ErrUploadsDisabled      = errors.New("uploads are not configured")
	ErrAlreadyClaimed       = errors.New("daily streak already claimed today")
	ErrNoTaskCompleted      = errors.New("complete a task before claiming")
	ErrInvalidTask          = errors.New("unknown task code")
	ErrQuestRewardNotFound  = errors.New("quest reward not found")
	ErrDuplicateReward      = errors.New("reward with this reason already exists")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidAmount        = errors.New("amount must be a positive integer")
	ErrInvalidReason        = errors.New("reason is required")
	ErrUnknownBadge         = errors.New("unknown badge")
	ErrAlreadySettled       = errors.New("day is already settled")
	ErrDayNotSettled        = errors.New("day is not settled")
	ErrNoRoot               = errors.New("day has no merkle root")
	ErrRootAlreadyPublished = errors.New("merkle root already published")
	ErrPublisherDisabled    = errors.New("root publisher is not configured")
	ErrPublishFailed        = errors.New("failed to publish merkle root")
	ErrNoSettlement         = errors.New("no settled day with a merkle root")
	ErrNotInSnapshot        = errors.New("address has no claimable rewards")
	ErrRootMismatch         = errors.New("rebuilt merkle root does not match stored root")
	ErrInvalidDuration      = errors.New("duration must be positive")
	ErrPricingUnavailable   = errors.New("on-chain pricing is not configured")
)

type UserServiceI interface {
	Login(ctx context.Context, address string, referralCode string) (*model.User, error)
	EnsureUser(ctx context.Context, address string) (*model.User, error)
	GetUserByAddress(ctx context.Context, address string) (*model.User, error)
	GetLeaderboard(ctx context.Context) ([]*model.User, error)
	GetReferrals(ctx context.Context, address string) ([]*model.UserReferral, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User, referralCode string) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByAddress(ctx context.Context, address string) (*model.User, error)
	TouchUserLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	GetTopUsers(ctx context.Context, limit int) ([]*model.User, error)
	GetUserReferrals(ctx context.Context, userID uuid.UUID) ([]*model.UserReferral, error)
}

type SessionServiceI interface {
	Submit(ctx context.Context, user *model.User, req SubmitSession) (*model.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Session, error)
	View(ctx context.Context, id uuid.UUID) (int, error)
	Like(ctx context.Context, userID uuid.UUID, id uuid.UUID) (int, error)
	ListPublic(ctx context.Context, limit, offset uint64) ([]*model.Session, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Session, error)
	SetVisibility(ctx context.Context, userID uuid.UUID, id uuid.UUID, public bool) error
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
	RecordMint(ctx context.Context, userID uuid.UUID, id uuid.UUID, txHash string) error
	ThumbnailUpload(ctx context.Context, userID uuid.UUID, id uuid.UUID, contentType string) (*storage.Upload, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
	ListPublicSessions(ctx context.Context, limit, offset uint64) ([]*model.Session, error)
	ListUserSessions(ctx context.Context, userID uuid.UUID) ([]*model.Session, error)
	LikeSession(ctx context.Context, userID uuid.UUID, id uuid.UUID) (int, bool, error)
	IncrementSessionViews(ctx context.Context, id uuid.UUID) (int, error)
	UpdateSessionVisibility(ctx context.Context, id uuid.UUID, public bool) error
	SetSessionThumbnail(ctx context.Context, id uuid.UUID, url string) error
	MarkSessionMinted(ctx context.Context, id uuid.UUID, txHash string) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	GetDailyReward(ctx context.Context, day time.Time) (*model.DailyReward, error)
}

type TaskRecorder interface {
	CompleteTask(ctx context.Context, userID uuid.UUID, code model.TaskCode) error
}

type BadgeAwarder interface {
	Award(ctx context.Context, userID uuid.UUID, code string) (bool, error)
}

type SessionPublisher interface {
	Publish(session *model.Session)
}

type ThumbnailPresigner interface {
	PresignThumbnail(ctx context.Context, sessionID uuid.UUID, contentType string) (*storage.Upload, error)
}

type DailyQuestServiceI interface {
	GetStatus(ctx context.Context, userID uuid.UUID) (*model.DailyQuestStatus, error)
	CompleteTask(ctx context.Context, userID uuid.UUID, code model.TaskCode) error
	Claim(ctx context.Context, userID uuid.UUID) (*model.StreakClaim, error)
}

type DailyQuestRepository interface {
	GetDailyQuest(ctx context.Context, userID uuid.UUID) (*model.DailyQuest, error)
	UpdateDailyQuest(ctx context.Context, quest *model.DailyQuest) error
	CompleteTask(ctx context.Context, userID uuid.UUID, day string, code model.TaskCode) error
	ListCompletedTasks(ctx context.Context, userID uuid.UUID, day string) ([]model.TaskCode, error)
	ClaimStreak(ctx context.Context, quest *model.DailyQuest, previousDay *string, reward *model.QuestReward, milestone *model.QuestReward) (bool, error)
	AwardBadge(ctx context.Context, userID uuid.UUID, code string) (bool, error)
}

type QuestRewardServiceI interface {
	Create(ctx context.Context, address string, reason string, amount decimal.Decimal) (*model.QuestReward, error)
	Approve(ctx context.Context, id uuid.UUID) (*model.QuestReward, error)
	MarkSent(ctx context.Context, id uuid.UUID, txHash string) (*model.QuestReward, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.QuestReward, error)
}

type QuestRewardRepository interface {
	GetUserByAddress(ctx context.Context, address string) (*model.User, error)
	CreateQuestReward(ctx context.Context, reward *model.QuestReward) error
	GetQuestReward(ctx context.Context, id uuid.UUID) (*model.QuestReward, error)
	ApproveQuestReward(ctx context.Context, id uuid.UUID) (*model.QuestReward, error)
	MarkQuestRewardSent(ctx context.Context, id uuid.UUID, txHash string) (*model.QuestReward, error)
	ListUserQuestRewards(ctx context.Context, userID uuid.UUID) ([]*model.QuestReward, error)
}

type BadgeServiceI interface {
	Seed(ctx context.Context) error
	ListCatalog(ctx context.Context) ([]*model.Badge, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.UserBadge, error)
	Award(ctx context.Context, userID uuid.UUID, code string) (bool, error)
}

type BadgeRepository interface {
	SeedBadges(ctx context.Context, badges []model.Badge) error
	ListBadges(ctx context.Context) ([]*model.Badge, error)
	AwardBadge(ctx context.Context, userID uuid.UUID, code string) (bool, error)
	ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*model.UserBadge, error)
}

type SettlementServiceI interface {
	Calculate(ctx context.Context, day time.Time) (*rewards.Result, error)
	Settle(ctx context.Context, day time.Time) (*Settlement, error)
	PublishRoot(ctx context.Context, day time.Time) (string, error)
	Proof(ctx context.Context, address string) (*model.ClaimProof, error)
	History(ctx context.Context, limit int) ([]*model.DailyReward, error)
	UserHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*model.UserDailyReward, error)
}

type SettlementRepository interface {
	GetDailyReward(ctx context.Context, day time.Time) (*model.DailyReward, error)
	ListDailyRewards(ctx context.Context, limit int) ([]*model.DailyReward, error)
	ListSessionsOverlapping(ctx context.Context, from, to time.Time) ([]*model.Session, error)
	SaveSettlement(ctx context.Context, daily *model.DailyReward, rewards []model.UserDailyReward, settledSessions []uuid.UUID) ([]model.SnapshotEntry, error)
	SetMerkleRoot(ctx context.Context, day time.Time, root string) error
	SetRootTxHash(ctx context.Context, day time.Time, txHash string) error
	GetSnapshot(ctx context.Context, day time.Time) ([]model.SnapshotEntry, error)
	GetLatestRootedDay(ctx context.Context) (*model.DailyReward, error)
	ListUserDailyRewards(ctx context.Context, userID uuid.UUID, limit int) ([]*model.UserDailyReward, error)
}

type RootPublisher interface {
	PublishRoot(ctx context.Context, root common.Hash) (common.Hash, error)
}

type PricingServiceI interface {
	Quote(duration int) (*Quote, error)
	QuoteOnChain(ctx context.Context, duration int) (*Quote, error)
}

type PricingReader interface {
	RecorderPricing(ctx context.Context) (*chain.Pricing, error)
}
