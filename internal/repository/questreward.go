package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"proof_of_existence/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type QuestReward struct {
	ID         uuid.UUID       `db:"id"`
	UserID     uuid.UUID       `db:"user_id"`
	Reason     string          `db:"reason"`
	Amount     decimal.Decimal `db:"amount"`
	Status     string          `db:"status"`
	TxHash     *string         `db:"tx_hash"`
	CreatedAt  time.Time       `db:"created_at"`
	ApprovedAt *time.Time      `db:"approved_at"`
	SentAt     *time.Time      `db:"sent_at"`
}

func (q *QuestReward) toModel() *model.QuestReward {
	return &model.QuestReward{
		ID:         q.ID,
		UserID:     q.UserID,
		Reason:     q.Reason,
		Amount:     q.Amount,
		Status:     model.QuestRewardStatus(q.Status),
		TxHash:     q.TxHash,
		CreatedAt:  q.CreatedAt,
		ApprovedAt: q.ApprovedAt,
		SentAt:     q.SentAt,
	}
}

var questRewardColumns = []string{
	"id", "user_id", "reason", "amount", "status", "tx_hash", "created_at", "approved_at", "sent_at",
}

func (r *Repository) CreateQuestReward(ctx context.Context, reward *model.QuestReward) error {
	query, args, err := squirrel.
		Insert("quest_rewards").
		SetMap(map[string]interface{}{
			"id":         reward.ID,
			"user_id":    reward.UserID,
			"reason":     reward.Reason,
			"amount":     reward.Amount,
			"status":     string(model.QuestRewardPending),
			"created_at": reward.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest reward insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert quest reward: %w", err)
	}

	reward.Status = model.QuestRewardPending
	return nil
}

// insertApprovedRewardWithTx records an already approved reward and credits
// it. It reports false, without crediting, when the user already has a
// reward with the same reason.
func (r *Repository) insertApprovedRewardWithTx(ctx context.Context, tx *sqlx.Tx, reward *model.QuestReward) (bool, error) {
	now := time.Now().UTC()
	query, args, err := squirrel.
		Insert("quest_rewards").
		SetMap(map[string]interface{}{
			"id":          reward.ID,
			"user_id":     reward.UserID,
			"reason":      reward.Reason,
			"amount":      reward.Amount,
			"status":      string(model.QuestRewardApproved),
			"created_at":  now,
			"approved_at": now,
		}).
		Suffix("ON CONFLICT (user_id, reason) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert quest reward: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	if err := r.creditBalanceWithTx(ctx, tx, reward.UserID, reward.Amount); err != nil {
		return false, fmt.Errorf("failed to credit quest reward: %w", err)
	}

	reward.Status = model.QuestRewardApproved
	reward.CreatedAt = now
	reward.ApprovedAt = &now
	return true, nil
}

func (r *Repository) GetQuestReward(ctx context.Context, id uuid.UUID) (*model.QuestReward, error) {
	query, args, err := squirrel.
		Select(questRewardColumns...).
		From("quest_rewards").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var reward QuestReward
	err = r.db.GetContext(ctx, &reward, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return reward.toModel(), nil
}

// transitionQuestRewardWithTx moves a reward from one status to the next and
// returns the updated row. ErrInvalidTransition is returned when the row
// exists but is not in the from status.
func (r *Repository) transitionQuestRewardWithTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from model.QuestRewardStatus, set map[string]interface{}) (*model.QuestReward, error) {
	query, args, err := squirrel.
		Update("quest_rewards").
		SetMap(set).
		Where(squirrel.Eq{"id": id, "status": string(from)}).
		Suffix("RETURNING " + strings.Join(questRewardColumns, ", ")).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var reward QuestReward
	err = tx.GetContext(ctx, &reward, query, args...)
	if err == nil {
		return reward.toModel(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	err = tx.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM quest_rewards WHERE id = $1)", id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrInvalidTransition
}

// ApproveQuestReward moves PENDING to APPROVED and credits the balance.
func (r *Repository) ApproveQuestReward(ctx context.Context, id uuid.UUID) (*model.QuestReward, error) {
	var out *model.QuestReward

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		reward, err := r.transitionQuestRewardWithTx(ctx, tx, id, model.QuestRewardPending, map[string]interface{}{
			"status":      string(model.QuestRewardApproved),
			"approved_at": time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		if err := r.creditBalanceWithTx(ctx, tx, reward.UserID, reward.Amount); err != nil {
			return fmt.Errorf("failed to credit quest reward: %w", err)
		}

		out = reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// MarkQuestRewardSent moves APPROVED to SENT once the payout transaction is
// known.
func (r *Repository) MarkQuestRewardSent(ctx context.Context, id uuid.UUID, txHash string) (*model.QuestReward, error) {
	var out *model.QuestReward

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		reward, err := r.transitionQuestRewardWithTx(ctx, tx, id, model.QuestRewardApproved, map[string]interface{}{
			"status":  string(model.QuestRewardSent),
			"tx_hash": txHash,
			"sent_at": time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		out = reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *Repository) ListUserQuestRewards(ctx context.Context, userID uuid.UUID) ([]*model.QuestReward, error) {
	query, args, err := squirrel.
		Select(questRewardColumns...).
		From("quest_rewards").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []QuestReward
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	rewards := make([]*model.QuestReward, len(rows))
	for i := range rows {
		rewards[i] = rows[i].toModel()
	}
	return rewards, nil
}
