package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"proof_of_existence/internal/model"
	"proof_of_existence/internal/repository"
	"proof_of_existence/internal/rewards"
	"proof_of_existence/pkg/logger"
	"proof_of_existence/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	colorPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

const (
	trailSlackMs  = 1000
	maxClockSkew  = time.Minute
	maxPublicPage = 100
)

// SessionRules are the acceptance thresholds for a submitted drawing.
// Durations are in seconds.
type SessionRules struct {
	MinDuration int
	MaxDuration int
	MinPoints   int
}

func DefaultSessionRules() SessionRules {
	return SessionRules{
		MinDuration: 10,
		MaxDuration: 6 * 60 * 60,
		MinPoints:   20,
	}
}

type SubmitSession struct {
	StartedAt time.Time
	Duration  int
	Trail     []model.TrailPoint
	Color     string
	IsPublic  bool
}

type SessionService struct {
	repo    SessionRepository
	rules   SessionRules
	tasks   TaskRecorder
	badges  BadgeAwarder
	feed    SessionPublisher
	uploads ThumbnailPresigner
	now     func() time.Time
}

// NewSessionService wires the session workflow. feed and uploads may be nil.
func NewSessionService(repo SessionRepository, rules SessionRules, tasks TaskRecorder, badges BadgeAwarder, feed SessionPublisher, uploads ThumbnailPresigner) *SessionService {
	return &SessionService{
		repo:    repo,
		rules:   rules,
		tasks:   tasks,
		badges:  badges,
		feed:    feed,
		uploads: uploads,
		now:     time.Now,
	}
}

func rejected(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSessionRejected, fmt.Sprintf(format, args...))
}

func (s *SessionService) validate(req SubmitSession) error {
	if req.StartedAt.IsZero() {
		return rejected("start time is required")
	}
	if req.StartedAt.After(s.now().Add(maxClockSkew)) {
		return rejected("start time is in the future")
	}
	if req.Duration < s.rules.MinDuration {
		return rejected("duration below %d seconds", s.rules.MinDuration)
	}
	if s.rules.MaxDuration > 0 && req.Duration > s.rules.MaxDuration {
		return rejected("duration above %d seconds", s.rules.MaxDuration)
	}
	if req.StartedAt.Add(time.Duration(req.Duration) * time.Second).After(s.now().Add(maxClockSkew)) {
		return rejected("session ends in the future")
	}
	if req.StartedAt.Before(rewards.DayStart(s.now()).AddDate(0, 0, -1)) {
		return rejected("start time is more than a day old")
	}
	if len(req.Trail) < s.rules.MinPoints {
		return rejected("trail has fewer than %d points", s.rules.MinPoints)
	}
	if !colorPattern.MatchString(req.Color) {
		return rejected("color must be #rrggbb")
	}

	limit := int64(req.Duration)*1000 + trailSlackMs
	var prev int64
	for i, p := range req.Trail {
		if p.T < 0 || p.T > limit {
			return rejected("trail point %d is outside the session", i)
		}
		if p.T < prev {
			return rejected("trail timestamps must not decrease")
		}
		prev = p.T
	}

	return nil
}

func (s *SessionService) Submit(ctx context.Context, user *model.User, req SubmitSession) (*model.Session, error) {
	log := logger.Logger()

	if err := s.validate(req); err != nil {
		return nil, err
	}

	day := rewards.DayStart(req.StartedAt)
	_, err := s.repo.GetDailyReward(ctx, day)
	switch {
	case err == nil:
		return nil, rejected("day %s is already settled", day.Format(dayLayout))
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check settlement: %w", err)
	}

	session := &model.Session{
		ID:            uuid.New(),
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		StartedAt:     req.StartedAt.UTC(),
		Duration:      req.Duration,
		Trail:         req.Trail,
		Color:         req.Color,
		Status:        model.SessionPending,
		IsPublic:      req.IsPublic,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.tasks.CompleteTask(ctx, user.ID, model.TaskDraw); err != nil {
		log.Error("failed to complete draw task", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	if _, err := s.badges.Award(ctx, user.ID, model.BadgeFirstDrawing); err != nil {
		log.Error("failed to award first drawing badge", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	if session.IsPublic && s.feed != nil {
		s.feed.Publish(session)
	}

	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (s *SessionService) owned(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*model.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrForbidden
	}
	return session, nil
}

func (s *SessionService) View(ctx context.Context, id uuid.UUID) (int, error) {
	views, err := s.repo.IncrementSessionViews(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("failed to count view: %w", err)
	}
	return views, nil
}

// Like counts at most one like per user. Repeat likes return the current
// count and change nothing.
func (s *SessionService) Like(ctx context.Context, userID uuid.UUID, id uuid.UUID) (int, error) {
	log := logger.Logger()

	likes, added, err := s.repo.LikeSession(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("failed to like session: %w", err)
	}
	if !added {
		return likes, nil
	}

	if err := s.tasks.CompleteTask(ctx, userID, model.TaskLike); err != nil {
		log.Error("failed to complete like task", zap.String("user_id", userID.String()), zap.Error(err))
	}

	return likes, nil
}

func (s *SessionService) ListPublic(ctx context.Context, limit, offset uint64) ([]*model.Session, error) {
	if limit == 0 || limit > maxPublicPage {
		limit = maxPublicPage
	}

	sessions, err := s.repo.ListPublicSessions(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list public sessions: %w", err)
	}
	return sessions, nil
}

func (s *SessionService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Session, error) {
	sessions, err := s.repo.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user sessions: %w", err)
	}
	return sessions, nil
}

func (s *SessionService) SetVisibility(ctx context.Context, userID uuid.UUID, id uuid.UUID, public bool) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.UpdateSessionVisibility(ctx, id, public); err != nil {
		return fmt.Errorf("failed to update visibility: %w", err)
	}
	return nil
}

func (s *SessionService) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	err := s.repo.DeleteSession(ctx, id)
	switch {
	case errors.Is(err, repository.ErrInvalidTransition):
		return ErrSessionMinted
	case errors.Is(err, repository.ErrNotFound):
		return ErrSessionNotFound
	case err != nil:
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// RecordMint stores the NFT mint transaction of a session. Only PENDING and
// SETTLED sessions can be minted.
func (s *SessionService) RecordMint(ctx context.Context, userID uuid.UUID, id uuid.UUID, txHash string) error {
	if !txHashPattern.MatchString(txHash) {
		return ErrInvalidTxHash
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	err := s.repo.MarkSessionMinted(ctx, id, txHash)
	switch {
	case errors.Is(err, repository.ErrInvalidTransition):
		return ErrSessionMinted
	case errors.Is(err, repository.ErrNotFound):
		return ErrSessionNotFound
	case err != nil:
		return fmt.Errorf("failed to record mint: %w", err)
	}
	return nil
}

func (s *SessionService) ThumbnailUpload(ctx context.Context, userID uuid.UUID, id uuid.UUID, contentType string) (*storage.Upload, error) {
	if s.uploads == nil {
		return nil, ErrUploadsDisabled
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}

	upload, err := s.uploads.PresignThumbnail(ctx, id, contentType)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetSessionThumbnail(ctx, id, upload.PublicURL); err != nil {
		return nil, fmt.Errorf("failed to store thumbnail url: %w", err)
	}

	return upload, nil
}
