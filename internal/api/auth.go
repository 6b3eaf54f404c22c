package api

import (
	"errors"
	"net/http"
	"time"

	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/auth"
	"proof_of_existence/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type authRoutes struct {
	us service.UserServiceI
	a  *auth.WalletAuth
}

func NewAuthRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.WalletAuth, limit gin.HandlerFunc) {
	r := &authRoutes{us: us, a: a}
	h := handler.Group("/auth")
	h.Use(limit)
	{
		h.GET("/message", r.GetLoginMessage)
		h.POST("/login", r.Login)
	}
}

type LoginRequest struct {
	Address      string `json:"address" binding:"required"`
	Message      string `json:"message" binding:"required"`
	Signature    string `json:"signature" binding:"required"`
	ReferralCode string `json:"referral_code"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func (r *authRoutes) GetLoginMessage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": auth.LoginMessage(time.Now())})
}

func (r *authRoutes) Login(c *gin.Context) {
	log := logger.Logger()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	addr, err := r.a.VerifyLogin(req.Address, req.Message, req.Signature)
	if err != nil {
		log.Info("wallet login rejected", zap.String("address", req.Address), zap.Error(err))
		switch {
		case errors.Is(err, auth.ErrInvalidAddress), errors.Is(err, auth.ErrInvalidMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		}
		return
	}

	user, err := r.us.Login(c.Request.Context(), auth.NormalizeAddress(addr), req.ReferralCode)
	if err != nil {
		log.Error("failed to login user", zap.String("address", addr.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to login"})
		return
	}

	token, expires, err := r.a.IssueToken(addr)
	if err != nil {
		log.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to login"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      toUserResponse(user),
	})
}
