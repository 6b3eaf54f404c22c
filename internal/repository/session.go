package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"proof_of_existence/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Session struct {
	ID            uuid.UUID `db:"id"`
	UserID        uuid.UUID `db:"user_id"`
	WalletAddress string    `db:"wallet_address"`
	StartedAt     time.Time `db:"started_at"`
	Duration      int       `db:"duration"`
	Trail         []byte    `db:"trail"`
	Color         string    `db:"color"`
	Status        string    `db:"status"`
	TxHash        *string   `db:"tx_hash"`
	ThumbnailURL  *string   `db:"thumbnail_url"`
	Likes         int       `db:"likes"`
	Views         int       `db:"views"`
	IsPublic      bool      `db:"is_public"`
	CreatedAt     time.Time `db:"created_at"`
}

func (s *Session) toModel() (*model.Session, error) {
	var trail []model.TrailPoint
	if len(s.Trail) > 0 {
		if err := json.Unmarshal(s.Trail, &trail); err != nil {
			return nil, fmt.Errorf("failed to decode trail of session %s: %w", s.ID, err)
		}
	}

	return &model.Session{
		ID:            s.ID,
		UserID:        s.UserID,
		WalletAddress: s.WalletAddress,
		StartedAt:     s.StartedAt.UTC(),
		Duration:      s.Duration,
		Trail:         trail,
		Color:         s.Color,
		Status:        model.SessionStatus(s.Status),
		TxHash:        s.TxHash,
		ThumbnailURL:  s.ThumbnailURL,
		Likes:         s.Likes,
		Views:         s.Views,
		IsPublic:      s.IsPublic,
		CreatedAt:     s.CreatedAt,
	}, nil
}

func sessionSelect(withTrail bool) squirrel.SelectBuilder {
	trail := "'[]'::jsonb AS trail"
	if withTrail {
		trail = "s.trail"
	}

	return squirrel.Select(
		"s.id",
		"s.user_id",
		"u.wallet_address",
		"s.started_at",
		"s.duration",
		trail,
		"s.color",
		"s.status",
		"s.tx_hash",
		"s.thumbnail_url",
		"s.likes",
		"s.views",
		"s.is_public",
		"s.created_at",
	).
		From("sessions s").
		Join("users u ON u.id = s.user_id").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *Repository) CreateSession(ctx context.Context, session *model.Session) error {
	trail, err := json.Marshal(session.Trail)
	if err != nil {
		return fmt.Errorf("failed to encode trail: %w", err)
	}

	query, args, err := squirrel.
		Insert("sessions").
		SetMap(map[string]interface{}{
			"id":         session.ID,
			"user_id":    session.UserID,
			"started_at": session.StartedAt,
			"duration":   session.Duration,
			"trail":      string(trail),
			"color":      session.Color,
			"status":     string(session.Status),
			"likes":      0,
			"views":      0,
			"is_public":  session.IsPublic,
			"created_at": session.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build session insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query, args, err := sessionSelect(true).
		Where(squirrel.Eq{"s.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var session Session
	err = r.db.GetContext(ctx, &session, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return session.toModel()
}

func (r *Repository) selectSessions(ctx context.Context, builder squirrel.SelectBuilder) ([]*model.Session, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []Session
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.Session, 0, len(rows))
	for i := range rows {
		s, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}

func (r *Repository) ListPublicSessions(ctx context.Context, limit, offset uint64) ([]*model.Session, error) {
	return r.selectSessions(ctx, sessionSelect(true).
		Where(squirrel.Eq{"s.is_public": true}).
		OrderBy("s.created_at DESC").
		Limit(limit).
		Offset(offset))
}

func (r *Repository) ListUserSessions(ctx context.Context, userID uuid.UUID) ([]*model.Session, error) {
	return r.selectSessions(ctx, sessionSelect(false).
		Where(squirrel.Eq{"s.user_id": userID}).
		OrderBy("s.started_at DESC"))
}

// ListSessionsOverlapping returns every session whose drawing interval
// intersects [from, to). Trails are not loaded.
func (r *Repository) ListSessionsOverlapping(ctx context.Context, from, to time.Time) ([]*model.Session, error) {
	return r.selectSessions(ctx, sessionSelect(false).
		Where(squirrel.Lt{"s.started_at": to}).
		Where(squirrel.Expr("s.started_at + make_interval(secs => s.duration) > ?", from)).
		OrderBy("s.started_at ASC"))
}

func (r *Repository) incrementSessionCounter(ctx context.Context, id uuid.UUID, column string) (int, error) {
	query, args, err := squirrel.
		Update("sessions").
		Set(column, squirrel.Expr(column+" + 1")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + column).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var value int
	err = r.db.GetContext(ctx, &value, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	return value, nil
}

// LikeSession records one like per user and session. added is false when the
// user had already liked the session; likes is the current count either way.
func (r *Repository) LikeSession(ctx context.Context, userID uuid.UUID, id uuid.UUID) (int, bool, error) {
	var (
		likes int
		added bool
	)

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &likes, "SELECT likes FROM sessions WHERE id = $1 FOR UPDATE", id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		query, args, err := squirrel.
			Insert("session_likes").
			Columns("session_id", "user_id", "created_at").
			Values(id, userID, time.Now().UTC()).
			Suffix("ON CONFLICT (session_id, user_id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert like: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}

		err = tx.GetContext(ctx, &likes, "UPDATE sessions SET likes = likes + 1 WHERE id = $1 RETURNING likes", id)
		if err != nil {
			return fmt.Errorf("failed to increment likes: %w", err)
		}
		added = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return likes, added, nil
}

func (r *Repository) IncrementSessionViews(ctx context.Context, id uuid.UUID) (int, error) {
	return r.incrementSessionCounter(ctx, id, "views")
}

func (r *Repository) updateSession(ctx context.Context, id uuid.UUID, set map[string]interface{}, extra ...squirrel.Sqlizer) (int64, error) {
	builder := squirrel.
		Update("sessions").
		SetMap(set).
		Where(squirrel.Eq{"id": id})
	for _, cond := range extra {
		builder = builder.Where(cond)
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *Repository) UpdateSessionVisibility(ctx context.Context, id uuid.UUID, public bool) error {
	rows, err := r.updateSession(ctx, id, map[string]interface{}{"is_public": public})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetSessionThumbnail(ctx context.Context, id uuid.UUID, url string) error {
	rows, err := r.updateSession(ctx, id, map[string]interface{}{"thumbnail_url": url})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSessionMinted moves a PENDING or SETTLED session to MINTED.
func (r *Repository) MarkSessionMinted(ctx context.Context, id uuid.UUID, txHash string) error {
	rows, err := r.updateSession(ctx, id,
		map[string]interface{}{
			"status":  string(model.SessionMinted),
			"tx_hash": txHash,
		},
		squirrel.Eq{"status": []string{string(model.SessionPending), string(model.SessionSettled)}},
	)
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := r.GetSession(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

func (r *Repository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	query, args, err := squirrel.
		Delete("sessions").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": string(model.SessionMinted)}).
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
		if _, err := r.GetSession(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	return nil
}
