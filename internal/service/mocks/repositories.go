package mocks

import (
	"context"
	"time"

	"proof_of_existence/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User, referralCode string) error {
	args := m.Called(ctx, user, referralCode)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByAddress(ctx context.Context, address string) (*model.User, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) TouchUserLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserReferrals(ctx context.Context, userID uuid.UUID) ([]*model.UserReferral, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferral), args.Error(1)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, session *model.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionRepository) ListPublicSessions(ctx context.Context, limit, offset uint64) ([]*model.Session, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Session), args.Error(1)
}

func (m *MockSessionRepository) ListUserSessions(ctx context.Context, userID uuid.UUID) ([]*model.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Session), args.Error(1)
}

func (m *MockSessionRepository) LikeSession(ctx context.Context, userID uuid.UUID, id uuid.UUID) (int, bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockSessionRepository) IncrementSessionViews(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionRepository) UpdateSessionVisibility(ctx context.Context, id uuid.UUID, public bool) error {
	args := m.Called(ctx, id, public)
	return args.Error(0)
}

func (m *MockSessionRepository) SetSessionThumbnail(ctx context.Context, id uuid.UUID, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *MockSessionRepository) MarkSessionMinted(ctx context.Context, id uuid.UUID, txHash string) error {
	args := m.Called(ctx, id, txHash)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) GetDailyReward(ctx context.Context, day time.Time) (*model.DailyReward, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyReward), args.Error(1)
}

type MockDailyQuestRepository struct {
	mock.Mock
}

func (m *MockDailyQuestRepository) GetDailyQuest(ctx context.Context, userID uuid.UUID) (*model.DailyQuest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyQuest), args.Error(1)
}

func (m *MockDailyQuestRepository) UpdateDailyQuest(ctx context.Context, quest *model.DailyQuest) error {
	args := m.Called(ctx, quest)
	return args.Error(0)
}

func (m *MockDailyQuestRepository) CompleteTask(ctx context.Context, userID uuid.UUID, day string, code model.TaskCode) error {
	args := m.Called(ctx, userID, day, code)
	return args.Error(0)
}

func (m *MockDailyQuestRepository) ListCompletedTasks(ctx context.Context, userID uuid.UUID, day string) ([]model.TaskCode, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TaskCode), args.Error(1)
}

func (m *MockDailyQuestRepository) ClaimStreak(ctx context.Context, quest *model.DailyQuest, previousDay *string, reward *model.QuestReward, milestone *model.QuestReward) (bool, error) {
	args := m.Called(ctx, quest, previousDay, reward, milestone)
	return args.Bool(0), args.Error(1)
}

func (m *MockDailyQuestRepository) AwardBadge(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

type MockQuestRewardRepository struct {
	mock.Mock
}

func (m *MockQuestRewardRepository) GetUserByAddress(ctx context.Context, address string) (*model.User, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockQuestRewardRepository) CreateQuestReward(ctx context.Context, reward *model.QuestReward) error {
	args := m.Called(ctx, reward)
	return args.Error(0)
}

func (m *MockQuestRewardRepository) GetQuestReward(ctx context.Context, id uuid.UUID) (*model.QuestReward, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestReward), args.Error(1)
}

func (m *MockQuestRewardRepository) ApproveQuestReward(ctx context.Context, id uuid.UUID) (*model.QuestReward, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestReward), args.Error(1)
}

func (m *MockQuestRewardRepository) MarkQuestRewardSent(ctx context.Context, id uuid.UUID, txHash string) (*model.QuestReward, error) {
	args := m.Called(ctx, id, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestReward), args.Error(1)
}

func (m *MockQuestRewardRepository) ListUserQuestRewards(ctx context.Context, userID uuid.UUID) ([]*model.QuestReward, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestReward), args.Error(1)
}

type MockBadgeRepository struct {
	mock.Mock
}

func (m *MockBadgeRepository) SeedBadges(ctx context.Context, badges []model.Badge) error {
	args := m.Called(ctx, badges)
	return args.Error(0)
}

func (m *MockBadgeRepository) ListBadges(ctx context.Context) ([]*model.Badge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Badge), args.Error(1)
}

func (m *MockBadgeRepository) AwardBadge(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockBadgeRepository) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*model.UserBadge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserBadge), args.Error(1)
}

type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) GetDailyReward(ctx context.Context, day time.Time) (*model.DailyReward, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyReward), args.Error(1)
}

func (m *MockSettlementRepository) ListDailyRewards(ctx context.Context, limit int) ([]*model.DailyReward, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DailyReward), args.Error(1)
}

func (m *MockSettlementRepository) ListSessionsOverlapping(ctx context.Context, from, to time.Time) ([]*model.Session, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Session), args.Error(1)
}

func (m *MockSettlementRepository) SaveSettlement(ctx context.Context, daily *model.DailyReward, rewards []model.UserDailyReward, settledSessions []uuid.UUID) ([]model.SnapshotEntry, error) {
	args := m.Called(ctx, daily, rewards, settledSessions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SnapshotEntry), args.Error(1)
}

func (m *MockSettlementRepository) SetMerkleRoot(ctx context.Context, day time.Time, root string) error {
	args := m.Called(ctx, day, root)
	return args.Error(0)
}

func (m *MockSettlementRepository) SetRootTxHash(ctx context.Context, day time.Time, txHash string) error {
	args := m.Called(ctx, day, txHash)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetSnapshot(ctx context.Context, day time.Time) ([]model.SnapshotEntry, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SnapshotEntry), args.Error(1)
}

func (m *MockSettlementRepository) GetLatestRootedDay(ctx context.Context) (*model.DailyReward, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyReward), args.Error(1)
}

func (m *MockSettlementRepository) ListUserDailyRewards(ctx context.Context, userID uuid.UUID, limit int) ([]*model.UserDailyReward, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserDailyReward), args.Error(1)
}
