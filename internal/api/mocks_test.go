package api

import (
	"context"
	"time"

	"proof_of_existence/internal/model"
	"proof_of_existence/internal/rewards"
	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Login(ctx context.Context, address string, referralCode string) (*model.User, error) {
	args := m.Called(ctx, address, referralCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) EnsureUser(ctx context.Context, address string) (*model.User, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) GetUserByAddress(ctx context.Context, address string) (*model.User, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) GetLeaderboard(ctx context.Context) ([]*model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserService) GetReferrals(ctx context.Context, address string) ([]*model.UserReferral, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferral), args.Error(1)
}

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Submit(ctx context.Context, user *model.User, req service.SubmitSession) (*model.Session, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionService) View(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionService) Like(ctx context.Context, userID uuid.UUID, id uuid.UUID) (int, error) {
	args := m.Called(ctx, userID, id)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionService) ListPublic(ctx context.Context, limit, offset uint64) ([]*model.Session, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Session), args.Error(1)
}

func (m *MockSessionService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Session), args.Error(1)
}

func (m *MockSessionService) SetVisibility(ctx context.Context, userID uuid.UUID, id uuid.UUID, public bool) error {
	args := m.Called(ctx, userID, id, public)
	return args.Error(0)
}

func (m *MockSessionService) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockSessionService) RecordMint(ctx context.Context, userID uuid.UUID, id uuid.UUID, txHash string) error {
	args := m.Called(ctx, userID, id, txHash)
	return args.Error(0)
}

func (m *MockSessionService) ThumbnailUpload(ctx context.Context, userID uuid.UUID, id uuid.UUID, contentType string) (*storage.Upload, error) {
	args := m.Called(ctx, userID, id, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Upload), args.Error(1)
}

type MockDailyQuestService struct {
	mock.Mock
}

func (m *MockDailyQuestService) GetStatus(ctx context.Context, userID uuid.UUID) (*model.DailyQuestStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyQuestStatus), args.Error(1)
}

func (m *MockDailyQuestService) CompleteTask(ctx context.Context, userID uuid.UUID, code model.TaskCode) error {
	args := m.Called(ctx, userID, code)
	return args.Error(0)
}

func (m *MockDailyQuestService) Claim(ctx context.Context, userID uuid.UUID) (*model.StreakClaim, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StreakClaim), args.Error(1)
}

type MockQuestRewardService struct {
	mock.Mock
}

func (m *MockQuestRewardService) Create(ctx context.Context, address string, reason string, amount decimal.Decimal) (*model.QuestReward, error) {
	args := m.Called(ctx, address, reason, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestReward), args.Error(1)
}

func (m *MockQuestRewardService) Approve(ctx context.Context, id uuid.UUID) (*model.QuestReward, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestReward), args.Error(1)
}

func (m *MockQuestRewardService) MarkSent(ctx context.Context, id uuid.UUID, txHash string) (*model.QuestReward, error) {
	args := m.Called(ctx, id, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestReward), args.Error(1)
}

func (m *MockQuestRewardService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.QuestReward, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestReward), args.Error(1)
}

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) Calculate(ctx context.Context, day time.Time) (*rewards.Result, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rewards.Result), args.Error(1)
}

func (m *MockSettlementService) Settle(ctx context.Context, day time.Time) (*service.Settlement, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Settlement), args.Error(1)
}

func (m *MockSettlementService) PublishRoot(ctx context.Context, day time.Time) (string, error) {
	args := m.Called(ctx, day)
	return args.String(0), args.Error(1)
}

func (m *MockSettlementService) Proof(ctx context.Context, address string) (*model.ClaimProof, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClaimProof), args.Error(1)
}

func (m *MockSettlementService) History(ctx context.Context, limit int) ([]*model.DailyReward, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DailyReward), args.Error(1)
}

func (m *MockSettlementService) UserHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*model.UserDailyReward, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserDailyReward), args.Error(1)
}

type MockPricingService struct {
	mock.Mock
}

func (m *MockPricingService) Quote(duration int) (*service.Quote, error) {
	args := m.Called(duration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Quote), args.Error(1)
}

func (m *MockPricingService) QuoteOnChain(ctx context.Context, duration int) (*service.Quote, error) {
	args := m.Called(ctx, duration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Quote), args.Error(1)
}

type MockBadgeService struct {
	mock.Mock
}

func (m *MockBadgeService) Seed(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBadgeService) ListCatalog(ctx context.Context) ([]*model.Badge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Badge), args.Error(1)
}

func (m *MockBadgeService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.UserBadge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserBadge), args.Error(1)
}

func (m *MockBadgeService) Award(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}
