package api

import (
	"net/http"
	"time"

	"proof_of_existence/internal/middleware"
	"proof_of_existence/internal/model"
	"proof_of_existence/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func currentUser(c *gin.Context) (*model.User, bool) {
	log := logger.Logger()

	userData, exists := c.Get(middleware.CurrentUserKey)
	if !exists {
		log.Error("current user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	user, ok := userData.(*model.User)
	if !ok {
		log.Error("invalid type assertion for current user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	return user, true
}

func idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		logger.Logger().Info("failed to parse id", zap.String("id", c.Param("id")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

const dayLayout = "2006-01-02"

func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation(dayLayout, s, time.UTC)
}
