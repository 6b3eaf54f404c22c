package middleware

import (
	"errors"
	"net/http"

	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/auth"
	"proof_of_existence/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

const (
	CurrentUserKey = "current_user"
	IsAdminKey     = "is_admin"
)

type Authorization struct {
	userService service.UserServiceI
}

func NewAuthorization(userService service.UserServiceI) *Authorization {
	return &Authorization{
		userService: userService,
	}
}

// CurrentUser loads the authenticated wallet's user row, registering it on
// first sight, and stores it in the context.
func (a *Authorization) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		walletUser, ok := auth.WalletUser(c)
		if !ok {
			log.Error("wallet user data not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		user, err := a.userService.EnsureUser(c.Request.Context(), walletUser.Key())
		if err != nil {
			log.Error("failed to get user data", zap.String("address", walletUser.Key()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

func (a *Authorization) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		walletUser, ok := auth.WalletUser(c)
		if !ok {
			log.Error("wallet user data not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		user, err := a.userService.GetUserByAddress(c.Request.Context(), walletUser.Key())
		if err != nil {
			if !errors.Is(err, service.ErrUserNotFound) {
				log.Error("failed to get user data", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if !user.IsAdmin {
			log.Info("unauthorized access attempt to admin endpoint",
				zap.String("address", walletUser.Key()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Set(CurrentUserKey, user)
		c.Set(IsAdminKey, true)
		c.Next()
	}
}
