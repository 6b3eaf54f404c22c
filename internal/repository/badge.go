package repository

import (
	"context"
	"fmt"
	"time"

	"proof_of_existence/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type badge struct {
	Code        string `db:"code"`
	Name        string `db:"name"`
	Description string `db:"description"`
	ImageURL    string `db:"image_url"`
}

type userBadge struct {
	Code        string    `db:"code"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	ImageURL    string    `db:"image_url"`
	AwardedAt   time.Time `db:"awarded_at"`
}

func (r *Repository) SeedBadges(ctx context.Context, badges []model.Badge) error {
	if len(badges) == 0 {
		return nil
	}

	builder := squirrel.
		Insert("badges").
		Columns("code", "name", "description", "image_url")
	for _, b := range badges {
		builder = builder.Values(b.Code, b.Name, b.Description, b.ImageURL)
	}

	query, args, err := builder.
		Suffix("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description, image_url = EXCLUDED.image_url").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build badge seed query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to seed badges: %w", err)
	}
	return nil
}

func (r *Repository) ListBadges(ctx context.Context) ([]*model.Badge, error) {
	query, args, err := squirrel.
		Select("code", "name", "description", "image_url").
		From("badges").
		OrderBy("code").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []badge
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*model.Badge, len(rows))
	for i, b := range rows {
		out[i] = &model.Badge{Code: b.Code, Name: b.Name, Description: b.Description, ImageURL: b.ImageURL}
	}
	return out, nil
}

// AwardBadge reports whether the badge was newly awarded.
func (r *Repository) AwardBadge(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	query, args, err := squirrel.
		Insert("user_badges").
		Columns("user_id", "badge_code", "awarded_at").
		Values(userID, code, time.Now().UTC()).
		Suffix("ON CONFLICT (user_id, badge_code) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to award badge: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *Repository) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*model.UserBadge, error) {
	query, args, err := squirrel.
		Select("b.code", "b.name", "b.description", "b.image_url", "ub.awarded_at").
		From("user_badges ub").
		Join("badges b ON b.code = ub.badge_code").
		Where(squirrel.Eq{"ub.user_id": userID}).
		OrderBy("ub.awarded_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []userBadge
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*model.UserBadge, len(rows))
	for i, b := range rows {
		out[i] = &model.UserBadge{
			Badge: model.Badge{
				Code:        b.Code,
				Name:        b.Name,
				Description: b.Description,
				ImageURL:    b.ImageURL,
			},
			AwardedAt: b.AwardedAt,
		}
	}
	return out, nil
}
