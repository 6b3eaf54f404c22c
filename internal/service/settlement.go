package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"proof_of_existence/internal/model"
	"proof_of_existence/internal/repository"
	"proof_of_existence/internal/rewards"
	"proof_of_existence/pkg/logger"
	"proof_of_existence/pkg/merkle"
	"proof_of_existence/pkg/notify"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Settlement is the outcome of settling one day.
type Settlement struct {
	Day          time.Time
	Result       *rewards.Result
	SettledCount int
	SnapshotSize int
	Root         string
	TxHash       string
}

type SettlementService struct {
	repo      SettlementRepository
	rates     rewards.Rates
	publisher RootPublisher
	notifier  notify.Notifier
	now       func() time.Time
}

// NewSettlementService accepts a nil publisher; roots are then stored but not
// sent on chain until PublishRoot is run with a configured chain.
func NewSettlementService(repo SettlementRepository, rates rewards.Rates, publisher RootPublisher, notifier notify.Notifier) *SettlementService {
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &SettlementService{
		repo:      repo,
		rates:     rates,
		publisher: publisher,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Yesterday is the default day to settle.
func (s *SettlementService) Yesterday() time.Time {
	return rewards.DayStart(s.now()).AddDate(0, 0, -1)
}

func (s *SettlementService) load(ctx context.Context, day time.Time) ([]*model.Session, *rewards.Result, error) {
	sessions, err := s.repo.ListSessionsOverlapping(ctx, day, day.Add(rewards.Day))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	intervals := make([]rewards.Interval, len(sessions))
	for i, session := range sessions {
		intervals[i] = rewards.Interval{
			Address:  session.WalletAddress,
			Start:    session.StartedAt,
			Duration: time.Duration(session.Duration) * time.Second,
		}
	}

	result, err := rewards.Calculate(day, intervals, s.rates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to calculate rewards: %w", err)
	}

	return sessions, result, nil
}

// Calculate is a dry run of the reward calculation for a day.
func (s *SettlementService) Calculate(ctx context.Context, day time.Time) (*rewards.Result, error) {
	_, result, err := s.load(ctx, rewards.DayStart(day))
	return result, err
}

// Settle records the rewards of a day, commits the cumulative snapshot to a
// Merkle root and publishes the root. A day can be settled only once.
func (s *SettlementService) Settle(ctx context.Context, day time.Time) (*Settlement, error) {
	log := logger.Logger()
	day = rewards.DayStart(day)

	_, err := s.repo.GetDailyReward(ctx, day)
	switch {
	case err == nil:
		return nil, ErrAlreadySettled
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check settlement: %w", err)
	}

	sessions, result, err := s.load(ctx, day)
	if err != nil {
		return nil, err
	}

	userIDs := make(map[string]uuid.UUID, len(sessions))
	dayEnd := day.Add(rewards.Day)
	var settled []uuid.UUID
	for _, session := range sessions {
		userIDs[session.WalletAddress] = session.UserID
		if session.Status == model.SessionPending && !session.EndsAt().After(dayEnd) {
			settled = append(settled, session.ID)
		}
	}

	rows := make([]model.UserDailyReward, len(result.Rewards))
	for i, r := range result.Rewards {
		rows[i] = model.UserDailyReward{
			Day:           day,
			UserID:        userIDs[r.Address],
			WalletAddress: r.Address,
			ExclusiveMs:   r.ExclusiveMs,
			SharedMs:      r.SharedMs,
			Amount:        decimal.NewFromBigInt(r.Amount, 0),
		}
	}

	budget := decimal.Zero
	if s.rates.DailyBudget != nil {
		budget = decimal.NewFromBigInt(s.rates.DailyBudget, 0)
	}

	snapshot, err := s.repo.SaveSettlement(ctx, &model.DailyReward{
		Day:           day,
		Budget:        budget,
		TotalRewarded: decimal.NewFromBigInt(result.Total, 0),
		Participants:  len(rows),
		CoveredMs:     result.CoveredMs,
		CreatedAt:     s.now().UTC(),
	}, rows, settled)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadySettled) {
			return nil, ErrAlreadySettled
		}
		return nil, fmt.Errorf("failed to save settlement: %w", err)
	}

	out := &Settlement{
		Day:          day,
		Result:       result,
		SettledCount: len(settled),
		SnapshotSize: len(snapshot),
	}

	log.Info("day settled",
		zap.String("day", day.Format(dayLayout)),
		zap.Int("participants", len(rows)),
		zap.Int64("covered_ms", result.CoveredMs),
		zap.String("total", result.Total.String()))

	if len(rows) == 0 {
		s.notify(ctx, fmt.Sprintf("Settled %s: no drawing sessions", day.Format(dayLayout)))
		return out, nil
	}

	tree, err := buildTree(snapshot)
	if err != nil {
		return out, err
	}
	out.Root = tree.Root().Hex()

	if err := s.repo.SetMerkleRoot(ctx, day, out.Root); err != nil {
		return out, fmt.Errorf("failed to store merkle root: %w", err)
	}

	if s.publisher == nil {
		log.Warn("root publisher not configured, root stored only", zap.String("root", out.Root))
		s.notify(ctx, fmt.Sprintf("Settled %s: %d users, %s wei, root %s (not published)",
			day.Format(dayLayout), len(rows), result.Total, out.Root))
		return out, nil
	}

	txHash, err := s.publish(ctx, day, tree.Root())
	if err != nil {
		s.notify(ctx, fmt.Sprintf("Settled %s but publishing root %s failed: %v", day.Format(dayLayout), out.Root, err))
		return out, err
	}
	out.TxHash = txHash

	s.notify(ctx, fmt.Sprintf("Settled %s: %d users, %s wei, root %s, tx %s",
		day.Format(dayLayout), len(rows), result.Total, out.Root, txHash))

	return out, nil
}

func (s *SettlementService) publish(ctx context.Context, day time.Time, root common.Hash) (string, error) {
	tx, err := s.publisher.PublishRoot(ctx, root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	txHash := tx.Hex()
	if err := s.repo.SetRootTxHash(ctx, day, txHash); err != nil {
		return txHash, fmt.Errorf("failed to store root tx hash: %w", err)
	}
	return txHash, nil
}

func (s *SettlementService) notify(ctx context.Context, text string) {
	if err := s.notifier.Notify(ctx, text); err != nil {
		logger.Logger().Warn("failed to send settlement notification", zap.Error(err))
	}
}

// PublishRoot retries publishing the stored root of a settled day.
func (s *SettlementService) PublishRoot(ctx context.Context, day time.Time) (string, error) {
	day = rewards.DayStart(day)

	daily, err := s.repo.GetDailyReward(ctx, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrDayNotSettled
		}
		return "", fmt.Errorf("failed to get daily reward: %w", err)
	}

	switch {
	case daily.MerkleRoot == nil:
		return "", ErrNoRoot
	case daily.RootTxHash != nil:
		return "", ErrRootAlreadyPublished
	case s.publisher == nil:
		return "", ErrPublisherDisabled
	}

	return s.publish(ctx, day, common.HexToHash(*daily.MerkleRoot))
}

// Proof returns the claim proof of an address against the latest published
// snapshot.
func (s *SettlementService) Proof(ctx context.Context, address string) (*model.ClaimProof, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}

	daily, err := s.repo.GetLatestRootedDay(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSettlement
		}
		return nil, fmt.Errorf("failed to get latest root: %w", err)
	}

	snapshot, err := s.repo.GetSnapshot(ctx, daily.Day)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	tree, err := buildTree(snapshot)
	if err != nil {
		return nil, err
	}
	if tree.Root().Hex() != *daily.MerkleRoot {
		return nil, ErrRootMismatch
	}

	proof, err := tree.Proof(common.HexToAddress(address))
	if err != nil {
		if errors.Is(err, merkle.ErrLeafNotFound) {
			return nil, ErrNotInSnapshot
		}
		return nil, err
	}

	claim := &model.ClaimProof{
		Day:           daily.Day,
		Root:          *daily.MerkleRoot,
		WalletAddress: address,
		Proof:         make([]string, len(proof)),
	}
	for i, h := range proof {
		claim.Proof[i] = h.Hex()
	}
	for _, entry := range snapshot {
		if entry.WalletAddress == address {
			claim.CumulativeAmount = entry.CumulativeAmount
			break
		}
	}

	return claim, nil
}

func (s *SettlementService) History(ctx context.Context, limit int) ([]*model.DailyReward, error) {
	days, err := s.repo.ListDailyRewards(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily rewards: %w", err)
	}
	return days, nil
}

func (s *SettlementService) UserHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*model.UserDailyReward, error) {
	days, err := s.repo.ListUserDailyRewards(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user rewards: %w", err)
	}
	return days, nil
}

func buildTree(snapshot []model.SnapshotEntry) (*merkle.Tree, error) {
	entries := make([]merkle.Entry, len(snapshot))
	for i, entry := range snapshot {
		if !common.IsHexAddress(entry.WalletAddress) {
			return nil, fmt.Errorf("snapshot has invalid address %q", entry.WalletAddress)
		}
		entries[i] = merkle.Entry{
			Address: common.HexToAddress(entry.WalletAddress),
			Amount:  new(big.Int).Set(entry.CumulativeAmount.BigInt()),
		}
	}

	tree, err := merkle.New(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build merkle tree: %w", err)
	}
	return tree, nil
}
