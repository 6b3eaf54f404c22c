package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"proof_of_existence/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type DailyReward struct {
	Day           time.Time       `db:"day"`
	Budget        decimal.Decimal `db:"budget"`
	TotalRewarded decimal.Decimal `db:"total_rewarded"`
	Participants  int             `db:"participants"`
	CoveredMs     int64           `db:"covered_ms"`
	MerkleRoot    *string         `db:"merkle_root"`
	RootTxHash    *string         `db:"root_tx_hash"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (d *DailyReward) toModel() *model.DailyReward {
	return &model.DailyReward{
		Day:           d.Day.UTC(),
		Budget:        d.Budget,
		TotalRewarded: d.TotalRewarded,
		Participants:  d.Participants,
		CoveredMs:     d.CoveredMs,
		MerkleRoot:    d.MerkleRoot,
		RootTxHash:    d.RootTxHash,
		CreatedAt:     d.CreatedAt,
	}
}

type UserDailyReward struct {
	Day           time.Time       `db:"day"`
	UserID        uuid.UUID       `db:"user_id"`
	WalletAddress string          `db:"wallet_address"`
	ExclusiveMs   int64           `db:"exclusive_ms"`
	SharedMs      int64           `db:"shared_ms"`
	Amount        decimal.Decimal `db:"amount"`
}

type snapshotEntry struct {
	WalletAddress    string          `db:"wallet_address"`
	CumulativeAmount decimal.Decimal `db:"cumulative_amount"`
}

var dailyRewardColumns = []string{
	"day", "budget", "total_rewarded", "participants", "covered_ms", "merkle_root", "root_tx_hash", "created_at",
}

// SaveSettlement records a settled day, adds every user's amount to the
// cumulative total and moves the given sessions from PENDING to SETTLED. It
// returns the snapshot of cumulative amounts that the day's Merkle tree
// commits to.
func (r *Repository) SaveSettlement(ctx context.Context, daily *model.DailyReward, rewards []model.UserDailyReward, settledSessions []uuid.UUID) ([]model.SnapshotEntry, error) {
	var snapshot []model.SnapshotEntry

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("daily_rewards").
			SetMap(map[string]interface{}{
				"day":            daily.Day,
				"budget":         daily.Budget,
				"total_rewarded": daily.TotalRewarded,
				"participants":   daily.Participants,
				"covered_ms":     daily.CoveredMs,
				"created_at":     daily.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build daily reward insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadySettled
			}
			return fmt.Errorf("failed to insert daily reward: %w", err)
		}

		for _, reward := range rewards {
			insertQuery, insertArgs, err := squirrel.
				Insert("user_daily_rewards").
				SetMap(map[string]interface{}{
					"day":            daily.Day,
					"user_id":        reward.UserID,
					"wallet_address": reward.WalletAddress,
					"exclusive_ms":   reward.ExclusiveMs,
					"shared_ms":      reward.SharedMs,
					"amount":         reward.Amount,
				}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
				return fmt.Errorf("failed to insert user daily reward: %w", err)
			}

			updateQuery, updateArgs, err := squirrel.
				Update("users").
				Set("cumulative_rewards", squirrel.Expr("cumulative_rewards + ?", reward.Amount)).
				Where(squirrel.Eq{"id": reward.UserID}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
				return fmt.Errorf("failed to update cumulative rewards: %w", err)
			}
		}

		if len(settledSessions) > 0 {
			ids := make([]string, len(settledSessions))
			for i, id := range settledSessions {
				ids[i] = id.String()
			}

			settleQuery, settleArgs, err := squirrel.
				Update("sessions").
				Set("status", string(model.SessionSettled)).
				Where(squirrel.Expr("id = ANY(?::uuid[])", pq.Array(ids))).
				Where(squirrel.Eq{"status": string(model.SessionPending)}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, settleQuery, settleArgs...); err != nil {
				return fmt.Errorf("failed to settle sessions: %w", err)
			}
		}

		snapshotQuery, snapshotArgs, err := squirrel.
			Insert("merkle_snapshots").
			Columns("day", "wallet_address", "cumulative_amount").
			Select(squirrel.
				Select().
				Column(squirrel.Expr("?::date", daily.Day)).
				Columns("wallet_address", "cumulative_rewards").
				From("users").
				Where(squirrel.Gt{"cumulative_rewards": 0})).
			Suffix("RETURNING wallet_address, cumulative_amount").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var rows []snapshotEntry
		if err := tx.SelectContext(ctx, &rows, snapshotQuery, snapshotArgs...); err != nil {
			return fmt.Errorf("failed to write merkle snapshot: %w", err)
		}

		snapshot = make([]model.SnapshotEntry, len(rows))
		for i, row := range rows {
			snapshot[i] = model.SnapshotEntry{WalletAddress: row.WalletAddress, CumulativeAmount: row.CumulativeAmount}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (r *Repository) GetDailyReward(ctx context.Context, day time.Time) (*model.DailyReward, error) {
	query, args, err := squirrel.
		Select(dailyRewardColumns...).
		From("daily_rewards").
		Where(squirrel.Eq{"day": day}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row DailyReward
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) ListDailyRewards(ctx context.Context, limit int) ([]*model.DailyReward, error) {
	query, args, err := squirrel.
		Select(dailyRewardColumns...).
		From("daily_rewards").
		OrderBy("day DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []DailyReward
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*model.DailyReward, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (r *Repository) updateDailyReward(ctx context.Context, day time.Time, column, value string) error {
	query, args, err := squirrel.
		Update("daily_rewards").
		Set(column, value).
		Where(squirrel.Eq{"day": day}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetMerkleRoot(ctx context.Context, day time.Time, root string) error {
	return r.updateDailyReward(ctx, day, "merkle_root", root)
}

func (r *Repository) SetRootTxHash(ctx context.Context, day time.Time, txHash string) error {
	return r.updateDailyReward(ctx, day, "root_tx_hash", txHash)
}

func (r *Repository) GetSnapshot(ctx context.Context, day time.Time) ([]model.SnapshotEntry, error) {
	query, args, err := squirrel.
		Select("wallet_address", "cumulative_amount").
		From("merkle_snapshots").
		Where(squirrel.Eq{"day": day}).
		OrderBy("wallet_address").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []snapshotEntry
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]model.SnapshotEntry, len(rows))
	for i, row := range rows {
		out[i] = model.SnapshotEntry{WalletAddress: row.WalletAddress, CumulativeAmount: row.CumulativeAmount}
	}
	return out, nil
}

// GetLatestRootedDay returns the most recent settled day that has a Merkle
// root.
func (r *Repository) GetLatestRootedDay(ctx context.Context) (*model.DailyReward, error) {
	query, args, err := squirrel.
		Select(dailyRewardColumns...).
		From("daily_rewards").
		Where(squirrel.NotEq{"merkle_root": nil}).
		OrderBy("day DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row DailyReward
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) ListUserDailyRewards(ctx context.Context, userID uuid.UUID, limit int) ([]*model.UserDailyReward, error) {
	query, args, err := squirrel.
		Select("day", "user_id", "wallet_address", "exclusive_ms", "shared_ms", "amount").
		From("user_daily_rewards").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("day DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []UserDailyReward
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*model.UserDailyReward, len(rows))
	for i, row := range rows {
		out[i] = &model.UserDailyReward{
			Day:           row.Day.UTC(),
			UserID:        row.UserID,
			WalletAddress: row.WalletAddress,
			ExclusiveMs:   row.ExclusiveMs,
			SharedMs:      row.SharedMs,
			Amount:        row.Amount,
		}
	}
	return out, nil
}
