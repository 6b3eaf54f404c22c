package repository

import (
	"context"
	"crypto/rand"
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

// ReferralSharePercent of every balance credit goes to the referrer.
const ReferralSharePercent = 10

const referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var userColumns = []string{
	"id",
	"wallet_address",
	"social_id",
	"balance",
	"cumulative_rewards",
	"referral_code",
	"referred_by",
	"referrals",
	"is_admin",
	"created_at",
	"last_login_at",
}

type User struct {
	ID                uuid.UUID       `db:"id"`
	WalletAddress     string          `db:"wallet_address"`
	SocialID          *string         `db:"social_id"`
	Balance           decimal.Decimal `db:"balance"`
	CumulativeRewards decimal.Decimal `db:"cumulative_rewards"`
	ReferralCode      string          `db:"referral_code"`
	ReferredBy        *uuid.UUID      `db:"referred_by"`
	Referrals         int             `db:"referrals"`
	IsAdmin           bool            `db:"is_admin"`
	CreatedAt         time.Time       `db:"created_at"`
	LastLoginAt       time.Time       `db:"last_login_at"`
}

func (u *User) toModel() *model.User {
	return &model.User{
		ID:                u.ID,
		WalletAddress:     u.WalletAddress,
		SocialID:          u.SocialID,
		Balance:           u.Balance,
		CumulativeRewards: u.CumulativeRewards,
		ReferralCode:      u.ReferralCode,
		ReferredBy:        u.ReferredBy,
		Referrals:         u.Referrals,
		IsAdmin:           u.IsAdmin,
		CreatedAt:         u.CreatedAt,
		LastLoginAt:       u.LastLoginAt,
	}
}

type userReferral struct {
	WalletAddress     string          `db:"wallet_address"`
	Referrals         int             `db:"referrals"`
	CumulativeRewards decimal.Decimal `db:"cumulative_rewards"`
	CreatedAt         time.Time       `db:"created_at"`
}

func newReferralCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = referralCodeAlphabet[int(buf[i])%len(referralCodeAlphabet)]
	}
	return string(buf), nil
}

// CreateUser inserts the user together with its daily quest row. When
// referralCode matches an existing user, that user becomes the referrer and
// its referral counter is incremented.
func (r *Repository) CreateUser(ctx context.Context, user *model.User, referralCode string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if referralCode != "" {
			referrer, err := r.getUserWithTx(ctx, tx, squirrel.Eq{"referral_code": strings.ToUpper(referralCode)})
			switch {
			case errors.Is(err, ErrNotFound):
			case err != nil:
				return fmt.Errorf("failed to resolve referral code: %w", err)
			default:
				user.ReferredBy = &referrer.ID
			}
		}

		code, err := newReferralCode()
		if err != nil {
			return fmt.Errorf("failed to generate referral code: %w", err)
		}
		user.ReferralCode = code

		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"id":                 user.ID,
				"wallet_address":     user.WalletAddress,
				"social_id":          user.SocialID,
				"balance":            decimal.Zero,
				"cumulative_rewards": decimal.Zero,
				"referral_code":      user.ReferralCode,
				"referred_by":        user.ReferredBy,
				"referrals":          0,
				"is_admin":           false,
				"created_at":         user.CreatedAt,
				"last_login_at":      user.LastLoginAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}

		if user.ReferredBy != nil {
			updateQuery, updateArgs, err := squirrel.
				Update("users").
				Set("referrals", squirrel.Expr("referrals + 1")).
				Where(squirrel.Eq{"id": *user.ReferredBy}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build referrer update query: %w", err)
			}

			_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
			if err != nil {
				return fmt.Errorf("failed to update referrer: %w", err)
			}
		}

		questQuery, questArgs, err := squirrel.
			Insert("daily_quests").
			SetMap(map[string]interface{}{
				"user_id":        user.ID,
				"current_streak": 0,
				"longest_streak": 0,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build daily quest insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, questQuery, questArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert daily quest: %w", err)
		}

		return nil
	})
}

func (r *Repository) getUser(ctx context.Context, where squirrel.Sqlizer) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select(userColumns...).
		From("users").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) getUserWithTx(ctx context.Context, tx *sqlx.Tx, where squirrel.Sqlizer) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select(userColumns...).
		From("users").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getUser(ctx, squirrel.Eq{"id": id})
}

func (r *Repository) GetUserByAddress(ctx context.Context, address string) (*model.User, error) {
	return r.getUser(ctx, squirrel.Eq{"wallet_address": strings.ToLower(address)})
}

func (r *Repository) TouchUserLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query, args, err := squirrel.
		Update("users").
		Set("last_login_at", at).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// creditBalanceWithTx adds amount to the user's off-chain balance and pays
// the referral share to the referrer, if any.
func (r *Repository) creditBalanceWithTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	user, err := r.getUserWithTx(ctx, tx, squirrel.Eq{"id": userID})
	if err != nil {
		return err
	}

	updateQuery, updateArgs, err := squirrel.
		Update("users").
		Set("balance", squirrel.Expr("balance + ?", amount)).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
	if err != nil {
		return err
	}

	if user.ReferredBy != nil {
		referrerAmount := amount.Mul(decimal.NewFromInt(ReferralSharePercent)).Div(decimal.NewFromInt(100)).Floor()
		if referrerAmount.IsZero() {
			return nil
		}

		updateReferrerQuery, referrerArgs, err := squirrel.
			Update("users").
			Set("balance", squirrel.Expr("balance + ?", referrerAmount)).
			Where(squirrel.Eq{"id": *user.ReferredBy}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, updateReferrerQuery, referrerArgs...)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	var users []User

	query, args, err := squirrel.
		Select(userColumns...).
		From("users").
		OrderBy("cumulative_rewards DESC", "created_at ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, err
	}

	userList := make([]*model.User, len(users))
	for i := range users {
		userList[i] = users[i].toModel()
	}

	return userList, nil
}

func (r *Repository) GetUserReferrals(ctx context.Context, userID uuid.UUID) ([]*model.UserReferral, error) {
	query := squirrel.Select(
		"wallet_address",
		"referrals",
		"cumulative_rewards",
		"created_at",
	).
		From("users").
		Where(squirrel.Eq{"referred_by": userID}).
		OrderBy("cumulative_rewards DESC").
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var referrals []*userReferral
	err = r.db.SelectContext(ctx, &referrals, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}

	refs := make([]*model.UserReferral, len(referrals))
	for i, ref := range referrals {
		refs[i] = &model.UserReferral{
			WalletAddress:     ref.WalletAddress,
			Referrals:         ref.Referrals,
			CumulativeRewards: ref.CumulativeRewards,
			CreatedAt:         ref.CreatedAt,
		}
	}

	return refs, nil
}
