package api

import (
	"net/http"

	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type badgeRoutes struct {
	bs service.BadgeServiceI
}

func NewBadgeRoutes(handler *gin.RouterGroup, bs service.BadgeServiceI) {
	r := &badgeRoutes{bs: bs}
	handler.GET("/badges", r.ListBadges)
}

type BadgeResponse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
}

func (r *badgeRoutes) ListBadges(c *gin.Context) {
	log := logger.Logger()

	badges, err := r.bs.ListCatalog(c.Request.Context())
	if err != nil {
		log.Error("failed to list badges", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list badges"})
		return
	}

	out := make([]BadgeResponse, len(badges))
	for i, b := range badges {
		out[i] = BadgeResponse{
			Code:        b.Code,
			Name:        b.Name,
			Description: b.Description,
			ImageURL:    b.ImageURL,
		}
	}

	c.JSON(http.StatusOK, out)
}
