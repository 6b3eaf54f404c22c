package service

import (
	"context"
	"fmt"

	"proof_of_existence/internal/model"

	"github.com/google/uuid"
)

type BadgeService struct {
	repo BadgeRepository
}

func NewBadgeService(repo BadgeRepository) *BadgeService {
	return &BadgeService{
		repo: repo,
	}
}

func (s *BadgeService) Seed(ctx context.Context) error {
	if err := s.repo.SeedBadges(ctx, model.BadgeCatalog); err != nil {
		return fmt.Errorf("failed to seed badges: %w", err)
	}
	return nil
}

func (s *BadgeService) ListCatalog(ctx context.Context) ([]*model.Badge, error) {
	badges, err := s.repo.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

func (s *BadgeService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.UserBadge, error) {
	badges, err := s.repo.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	return badges, nil
}

// Award reports whether the badge was newly awarded. Awarding a badge twice is
// a no-op.
func (s *BadgeService) Award(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	known := false
	for _, b := range model.BadgeCatalog {
		if b.Code == code {
			known = true
			break
		}
	}
	if !known {
		return false, ErrUnknownBadge
	}

	awarded, err := s.repo.AwardBadge(ctx, userID, code)
	if err != nil {
		return false, fmt.Errorf("failed to award badge: %w", err)
	}
	return awarded, nil
}
