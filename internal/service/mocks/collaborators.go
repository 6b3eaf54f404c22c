package mocks

import (
	"context"

	"proof_of_existence/internal/model"
	"proof_of_existence/pkg/chain"
	"proof_of_existence/pkg/storage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTaskRecorder struct {
	mock.Mock
}

func (m *MockTaskRecorder) CompleteTask(ctx context.Context, userID uuid.UUID, code model.TaskCode) error {
	args := m.Called(ctx, userID, code)
	return args.Error(0)
}

type MockBadgeAwarder struct {
	mock.Mock
}

func (m *MockBadgeAwarder) Award(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

type MockSessionPublisher struct {
	mock.Mock
}

func (m *MockSessionPublisher) Publish(session *model.Session) {
	m.Called(session)
}

type MockThumbnailPresigner struct {
	mock.Mock
}

func (m *MockThumbnailPresigner) PresignThumbnail(ctx context.Context, sessionID uuid.UUID, contentType string) (*storage.Upload, error) {
	args := m.Called(ctx, sessionID, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Upload), args.Error(1)
}

type MockRootPublisher struct {
	mock.Mock
}

func (m *MockRootPublisher) PublishRoot(ctx context.Context, root common.Hash) (common.Hash, error) {
	args := m.Called(ctx, root)
	return args.Get(0).(common.Hash), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

type MockPricingReader struct {
	mock.Mock
}

func (m *MockPricingReader) RecorderPricing(ctx context.Context) (*chain.Pricing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chain.Pricing), args.Error(1)
}
