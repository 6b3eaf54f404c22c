package api

import (
	"errors"
	"net/http"
	"time"

	"proof_of_existence/internal/middleware"
	"proof_of_existence/internal/model"
	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/auth"
	"proof_of_existence/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const rewardHistoryLimit = 30

type userRoutes struct {
	us service.UserServiceI
	bs service.BadgeServiceI
	qs service.QuestRewardServiceI
	ss service.SettlementServiceI
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, bs service.BadgeServiceI, qs service.QuestRewardServiceI, ss service.SettlementServiceI, a *auth.WalletAuth, authz *middleware.Authorization) {
	r := &userRoutes{us: us, bs: bs, qs: qs, ss: ss}
	h := handler.Group("/users")
	{
		h.GET("/leaderboard", r.GetLeaderboard)
		h.GET("/:address", r.GetUserByAddress)
		h.GET("/:address/referrals", r.GetUserReferrals)
	}

	me := h.Group("/me")
	me.Use(a.WalletAuthMiddleware(), authz.CurrentUser())
	{
		me.GET("", r.GetMe)
		me.GET("/badges", r.GetMyBadges)
		me.GET("/quest-rewards", r.GetMyQuestRewards)
		me.GET("/daily-rewards", r.GetMyDailyRewards)
	}
}

type UserResponse struct {
	WalletAddress     string          `json:"wallet_address"`
	Balance           decimal.Decimal `json:"balance"`
	CumulativeRewards decimal.Decimal `json:"cumulative_rewards"`
	ReferralCode      string          `json:"referral_code"`
	Referrals         int             `json:"referrals"`
	IsAdmin           bool            `json:"is_admin"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		WalletAddress:     u.WalletAddress,
		Balance:           u.Balance,
		CumulativeRewards: u.CumulativeRewards,
		ReferralCode:      u.ReferralCode,
		Referrals:         u.Referrals,
		IsAdmin:           u.IsAdmin,
		CreatedAt:         u.CreatedAt,
	}
}

type PublicUserResponse struct {
	WalletAddress     string          `json:"wallet_address"`
	CumulativeRewards decimal.Decimal `json:"cumulative_rewards"`
	Referrals         int             `json:"referrals"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toPublicUserResponse(u *model.User) PublicUserResponse {
	return PublicUserResponse{
		WalletAddress:     u.WalletAddress,
		CumulativeRewards: u.CumulativeRewards,
		Referrals:         u.Referrals,
		CreatedAt:         u.CreatedAt,
	}
}

func (r *userRoutes) GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (r *userRoutes) GetUserByAddress(c *gin.Context) {
	log := logger.Logger()

	address := c.Param("address")
	user, err := r.us.GetUserByAddress(c.Request.Context(), address)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no user associated with the provided address"})
		default:
			log.Error("failed to get user", zap.String("address", address), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		}
		return
	}

	c.JSON(http.StatusOK, toPublicUserResponse(user))
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	users, err := r.us.GetLeaderboard(c.Request.Context())
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	out := make([]PublicUserResponse, len(users))
	for i, u := range users {
		out[i] = toPublicUserResponse(u)
	}

	c.JSON(http.StatusOK, out)
}

type ReferralResponse struct {
	WalletAddress     string          `json:"wallet_address"`
	Referrals         int             `json:"referrals"`
	CumulativeRewards decimal.Decimal `json:"cumulative_rewards"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (r *userRoutes) GetUserReferrals(c *gin.Context) {
	log := logger.Logger()

	address := c.Param("address")
	referrals, err := r.us.GetReferrals(c.Request.Context(), address)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Error("failed to get referrals", zap.String("address", address), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referrals"})
		}
		return
	}

	out := make([]ReferralResponse, len(referrals))
	for i, ref := range referrals {
		out[i] = ReferralResponse{
			WalletAddress:     ref.WalletAddress,
			Referrals:         ref.Referrals,
			CumulativeRewards: ref.CumulativeRewards,
			CreatedAt:         ref.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

type UserBadgeResponse struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	AwardedAt   time.Time `json:"awarded_at"`
}

func (r *userRoutes) GetMyBadges(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	badges, err := r.bs.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to list user badges", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list badges"})
		return
	}

	out := make([]UserBadgeResponse, len(badges))
	for i, b := range badges {
		out[i] = UserBadgeResponse{
			Code:        b.Code,
			Name:        b.Name,
			Description: b.Description,
			ImageURL:    b.ImageURL,
			AwardedAt:   b.AwardedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *userRoutes) GetMyQuestRewards(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	rewards, err := r.qs.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to list quest rewards", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quest rewards"})
		return
	}

	out := make([]QuestRewardResponse, len(rewards))
	for i, reward := range rewards {
		out[i] = toQuestRewardResponse(reward)
	}

	c.JSON(http.StatusOK, out)
}

type UserDailyRewardResponse struct {
	Day         string          `json:"day"`
	ExclusiveMs int64           `json:"exclusive_ms"`
	SharedMs    int64           `json:"shared_ms"`
	Amount      decimal.Decimal `json:"amount"`
}

func (r *userRoutes) GetMyDailyRewards(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	days, err := r.ss.UserHistory(c.Request.Context(), user.ID, rewardHistoryLimit)
	if err != nil {
		log.Error("failed to list daily rewards", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list daily rewards"})
		return
	}

	out := make([]UserDailyRewardResponse, len(days))
	for i, d := range days {
		out[i] = UserDailyRewardResponse{
			Day:         d.Day.Format(dayLayout),
			ExclusiveMs: d.ExclusiveMs,
			SharedMs:    d.SharedMs,
			Amount:      d.Amount,
		}
	}

	c.JSON(http.StatusOK, out)
}
