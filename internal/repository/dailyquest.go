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
)

const dayLayout = "2006-01-02"

type DailyQuest struct {
	UserID        uuid.UUID  `db:"user_id"`
	LastClaimDay  *time.Time `db:"last_claim_day"`
	CurrentStreak int        `db:"current_streak"`
	LongestStreak int        `db:"longest_streak"`
}

func (r *Repository) GetDailyQuest(ctx context.Context, userID uuid.UUID) (*model.DailyQuest, error) {
	var quest DailyQuest

	query, args, err := squirrel.
		Select("user_id", "last_claim_day", "current_streak", "longest_streak").
		From("daily_quests").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &quest, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	out := &model.DailyQuest{
		UserID:        quest.UserID,
		CurrentStreak: quest.CurrentStreak,
		LongestStreak: quest.LongestStreak,
	}
	if quest.LastClaimDay != nil {
		day := quest.LastClaimDay.UTC().Format(dayLayout)
		out.LastClaimDay = &day
	}

	return out, nil
}

func (r *Repository) UpdateDailyQuest(ctx context.Context, quest *model.DailyQuest) error {
	query, args, err := squirrel.
		Update("daily_quests").
		SetMap(map[string]interface{}{
			"last_claim_day": quest.LastClaimDay,
			"current_streak": quest.CurrentStreak,
			"longest_streak": quest.LongestStreak,
		}).
		Where(squirrel.Eq{"user_id": quest.UserID}).
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

func (r *Repository) CompleteTask(ctx context.Context, userID uuid.UUID, day string, code model.TaskCode) error {
	query, args, err := squirrel.
		Insert("daily_tasks").
		Columns("user_id", "day", "task_code", "completed_at").
		Values(userID, day, string(code), time.Now().UTC()).
		Suffix("ON CONFLICT (user_id, day, task_code) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) ListCompletedTasks(ctx context.Context, userID uuid.UUID, day string) ([]model.TaskCode, error) {
	query, args, err := squirrel.
		Select("task_code").
		From("daily_tasks").
		Where(squirrel.Eq{"user_id": userID, "day": day}).
		OrderBy("completed_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, args...); err != nil {
		return nil, err
	}

	tasks := make([]model.TaskCode, len(codes))
	for i, c := range codes {
		tasks[i] = model.TaskCode(c)
	}
	return tasks, nil
}

// ClaimStreak stores the new streak and pays the day reward in one
// transaction. previousDay guards against double claims: the update only
// applies while the stored last_claim_day still equals it. The milestone
// reward, if any, is paid only the first time its reason is inserted.
func (r *Repository) ClaimStreak(ctx context.Context, quest *model.DailyQuest, previousDay *string, reward *model.QuestReward, milestone *model.QuestReward) (bool, error) {
	milestonePaid := false

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		builder := squirrel.
			Update("daily_quests").
			SetMap(map[string]interface{}{
				"last_claim_day": quest.LastClaimDay,
				"current_streak": quest.CurrentStreak,
				"longest_streak": quest.LongestStreak,
			}).
			Where(squirrel.Eq{"user_id": quest.UserID})
		if previousDay == nil {
			builder = builder.Where(squirrel.Eq{"last_claim_day": nil})
		} else {
			builder = builder.Where(squirrel.Eq{"last_claim_day": *previousDay})
		}

		query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update daily quest: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyClaimed
		}

		if _, err := r.insertApprovedRewardWithTx(ctx, tx, reward); err != nil {
			return err
		}

		if milestone != nil {
			inserted, err := r.insertApprovedRewardWithTx(ctx, tx, milestone)
			if err != nil {
				return err
			}
			milestonePaid = inserted
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return milestonePaid, nil
}
