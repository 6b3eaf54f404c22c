package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"proof_of_existence/internal/middleware"
	"proof_of_existence/internal/model"
	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/auth"
	"proof_of_existence/pkg/logger"
	"proof_of_existence/pkg/storage"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 20

type sessionRoutes struct {
	ss service.SessionServiceI
}

func NewSessionRoutes(handler *gin.RouterGroup, ss service.SessionServiceI, a *auth.WalletAuth, authz *middleware.Authorization, limit gin.HandlerFunc) {
	r := &sessionRoutes{ss: ss}
	h := handler.Group("/sessions")
	{
		h.GET("", r.ListPublic)
		h.GET("/:id", r.GetSession)
		h.POST("/:id/view", r.ViewSession)
	}

	private := h.Group("")
	private.Use(a.WalletAuthMiddleware(), authz.CurrentUser())
	{
		private.POST("", limit, r.Submit)
		private.GET("/mine", r.ListMine)
		private.POST("/:id/like", limit, r.LikeSession)
		private.PATCH("/:id/visibility", r.SetVisibility)
		private.DELETE("/:id", r.DeleteSession)
		private.POST("/:id/mint", r.RecordMint)
		private.POST("/:id/thumbnail", r.ThumbnailUpload)
	}
}

type SubmitSessionRequest struct {
	StartedAt time.Time          `json:"started_at" binding:"required"`
	Duration  int                `json:"duration" binding:"required"`
	Trail     []model.TrailPoint `json:"trail" binding:"required"`
	Color     string             `json:"color" binding:"required"`
	IsPublic  bool               `json:"is_public"`
}

type SessionResponse struct {
	ID            string             `json:"id"`
	WalletAddress string             `json:"wallet_address"`
	StartedAt     time.Time          `json:"started_at"`
	Duration      int                `json:"duration"`
	Trail         []model.TrailPoint `json:"trail,omitempty"`
	Color         string             `json:"color"`
	Status        string             `json:"status"`
	TxHash        *string            `json:"tx_hash,omitempty"`
	ThumbnailURL  *string            `json:"thumbnail_url,omitempty"`
	Likes         int                `json:"likes"`
	Views         int                `json:"views"`
	IsPublic      bool               `json:"is_public"`
	CreatedAt     time.Time          `json:"created_at"`
}

// toSessionResponse omits the trail in list views.
func toSessionResponse(s *model.Session, withTrail bool) SessionResponse {
	resp := SessionResponse{
		ID:            s.ID.String(),
		WalletAddress: s.WalletAddress,
		StartedAt:     s.StartedAt,
		Duration:      s.Duration,
		Color:         s.Color,
		Status:        string(s.Status),
		TxHash:        s.TxHash,
		ThumbnailURL:  s.ThumbnailURL,
		Likes:         s.Likes,
		Views:         s.Views,
		IsPublic:      s.IsPublic,
		CreatedAt:     s.CreatedAt,
	}
	if withTrail {
		resp.Trail = s.Trail
	}
	return resp
}

func toSessionList(sessions []*model.Session) []SessionResponse {
	out := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = toSessionResponse(s, false)
	}
	return out
}

// sessionError maps service errors shared by the session endpoints.
func sessionError(c *gin.Context, err error, msg string) {
	log := logger.Logger()

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionMinted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTxHash), errors.Is(err, storage.ErrUnsupportedContentType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUploadsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func (r *sessionRoutes) Submit(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req SubmitSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := r.ss.Submit(c.Request.Context(), user, service.SubmitSession{
		StartedAt: req.StartedAt,
		Duration:  req.Duration,
		Trail:     req.Trail,
		Color:     req.Color,
		IsPublic:  req.IsPublic,
	})
	if err != nil {
		if errors.Is(err, service.ErrSessionRejected) {
			log.Info("session rejected", zap.String("address", user.WalletAddress), zap.Error(err))
		}
		sessionError(c, err, "failed to submit session")
		return
	}

	c.JSON(http.StatusCreated, toSessionResponse(session, true))
}

func pageParams(c *gin.Context) (uint64, uint64, bool) {
	limit, offset := uint64(defaultPageSize), uint64(0)

	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return 0, 0, false
		}
		limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return 0, 0, false
		}
		offset = n
	}

	return limit, offset, true
}

func (r *sessionRoutes) ListPublic(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	sessions, err := r.ss.ListPublic(c.Request.Context(), limit, offset)
	if err != nil {
		sessionError(c, err, "failed to list sessions")
		return
	}

	c.JSON(http.StatusOK, toSessionList(sessions))
}

func (r *sessionRoutes) ListMine(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	sessions, err := r.ss.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		sessionError(c, err, "failed to list sessions")
		return
	}

	c.JSON(http.StatusOK, toSessionList(sessions))
}

func (r *sessionRoutes) GetSession(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	session, err := r.ss.Get(c.Request.Context(), id)
	if err != nil {
		sessionError(c, err, "failed to get session")
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(session, true))
}

func (r *sessionRoutes) ViewSession(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	views, err := r.ss.View(c.Request.Context(), id)
	if err != nil {
		sessionError(c, err, "failed to record view")
		return
	}

	c.JSON(http.StatusOK, gin.H{"views": views})
}

func (r *sessionRoutes) LikeSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	likes, err := r.ss.Like(c.Request.Context(), user.ID, id)
	if err != nil {
		sessionError(c, err, "failed to like session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

type VisibilityRequest struct {
	IsPublic *bool `json:"is_public" binding:"required"`
}

func (r *sessionRoutes) SetVisibility(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := r.ss.SetVisibility(c.Request.Context(), user.ID, id, *req.IsPublic); err != nil {
		sessionError(c, err, "failed to update visibility")
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_public": *req.IsPublic})
}

func (r *sessionRoutes) DeleteSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := r.ss.Delete(c.Request.Context(), user.ID, id); err != nil {
		sessionError(c, err, "failed to delete session")
		return
	}

	c.Status(http.StatusNoContent)
}

type MintRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}

func (r *sessionRoutes) RecordMint(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := r.ss.RecordMint(c.Request.Context(), user.ID, id, req.TxHash); err != nil {
		sessionError(c, err, "failed to record mint")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": model.SessionMinted, "tx_hash": req.TxHash})
}

type ThumbnailRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

type ThumbnailResponse struct {
	UploadURL string    `json:"upload_url"`
	Method    string    `json:"method"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r *sessionRoutes) ThumbnailUpload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req ThumbnailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	upload, err := r.ss.ThumbnailUpload(c.Request.Context(), user.ID, id, req.ContentType)
	if err != nil {
		sessionError(c, err, "failed to prepare thumbnail upload")
		return
	}

	c.JSON(http.StatusOK, ThumbnailResponse{
		UploadURL: upload.URL,
		Method:    upload.Method,
		PublicURL: upload.PublicURL,
		ExpiresAt: upload.ExpiresAt,
	})
}
