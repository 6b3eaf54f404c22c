package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"proof_of_existence/internal/model"
	"proof_of_existence/internal/repository"
	"proof_of_existence/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	LeaderboardSize        = 100
	ReferrerBadgeThreshold = 5
)

type UserService struct {
	repo   UserRepository
	badges BadgeAwarder
	now    func() time.Time
}

func NewUserService(repo UserRepository, badges BadgeAwarder) *UserService {
	return &UserService{
		repo:   repo,
		badges: badges,
		now:    time.Now,
	}
}

func normalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

// Login registers the wallet on first sight and records the login time.
// referralCode is only honoured when the user is created.
func (s *UserService) Login(ctx context.Context, address string, referralCode string) (*model.User, error) {
	user, err := s.getOrCreate(ctx, address, referralCode)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.repo.TouchUserLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = now

	return user, nil
}

func (s *UserService) EnsureUser(ctx context.Context, address string) (*model.User, error) {
	return s.getOrCreate(ctx, address, "")
}

func (s *UserService) getOrCreate(ctx context.Context, address string, referralCode string) (*model.User, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByAddress(ctx, address)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user by address: %w", err)
	}

	now := s.now().UTC()
	user = &model.User{
		ID:            uuid.New(),
		WalletAddress: address,
		CreatedAt:     now,
		LastLoginAt:   now,
	}

	err = s.repo.CreateUser(ctx, user, referralCode)
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		// registered concurrently
		return s.GetUserByAddress(ctx, address)
	case err != nil:
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if user.ReferredBy != nil {
		s.rewardReferrer(ctx, *user.ReferredBy)
	}

	return user, nil
}

func (s *UserService) rewardReferrer(ctx context.Context, referrerID uuid.UUID) {
	log := logger.Logger()

	referrer, err := s.repo.GetUserByID(ctx, referrerID)
	if err != nil {
		log.Error("failed to load referrer", zap.String("referrer_id", referrerID.String()), zap.Error(err))
		return
	}
	if referrer.Referrals < ReferrerBadgeThreshold {
		return
	}

	if _, err := s.badges.Award(ctx, referrer.ID, model.BadgeReferrer5); err != nil {
		log.Error("failed to award referrer badge", zap.String("referrer_id", referrerID.String()), zap.Error(err))
	}
}

func (s *UserService) GetUserByAddress(ctx context.Context, address string) (*model.User, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by address: %w", err)
	}
	return user, nil
}

func (s *UserService) GetLeaderboard(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.GetTopUsers(ctx, LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetReferrals(ctx context.Context, address string) ([]*model.UserReferral, error) {
	user, err := s.GetUserByAddress(ctx, address)
	if err != nil {
		return nil, err
	}

	referrals, err := s.repo.GetUserReferrals(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}
	return referrals, nil
}
