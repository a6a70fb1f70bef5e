package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/article-engagement-api/internal/apperr"
	"github.com/article-engagement-api/internal/models"
	"github.com/article-engagement-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DiscussionHandler handles comment and reply endpoints
type DiscussionHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewDiscussionHandler creates a new DiscussionHandler
func NewDiscussionHandler(services *service.Services, log zerolog.Logger) *DiscussionHandler {
	return &DiscussionHandler{
		services: services,
		log:      log.With().Str("handler", "discussion").Logger(),
	}
}

// PostComment handles POST /v1/articles/:article_id/comments
func (h *DiscussionHandler) PostComment(c *gin.Context) {
	var req models.TextRequest
	if !h.bind(c, &req) {
		return
	}

	comment, err := h.services.Engagement.PostComment(c.Request.Context(), c.Param("article_id"), callerID(c), req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Comment added", gin.H{"comment": comment})
}

// LatestComments handles GET /v1/articles/:article_id/comments?limit=N and
// POST /v1/articles/:article_id/comments/latest with an optional {"limit": N}
func (h *DiscussionHandler) LatestComments(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, h.log, apperr.Validation("limit must be a number"))
			return
		}
		limit = n
	}

	if c.Request.Method == http.MethodPost {
		var req models.LatestCommentsRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, h.log, apperr.Validation("Invalid request body"))
			return
		}
		if req.Limit != 0 {
			limit = req.Limit
		}
	}

	comments, err := h.services.Engagement.GetLatestComments(c.Request.Context(), c.Param("article_id"), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Latest comments fetched", gin.H{"comments": comments})
}

// GetComment handles GET /v1/comments/:comment_id
func (h *DiscussionHandler) GetComment(c *gin.Context) {
	comment, err := h.services.Engagement.GetComment(c.Request.Context(), c.Param("comment_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Fetched", gin.H{"comment": comment})
}

// EditComment handles PUT /v1/comments/:comment_id
func (h *DiscussionHandler) EditComment(c *gin.Context) {
	var req models.TextRequest
	if !h.bind(c, &req) {
		return
	}

	comment, err := h.services.Engagement.EditComment(c.Request.Context(), c.Param("comment_id"), callerID(c), req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Comment updated", gin.H{"comment": comment})
}

// DeleteComment handles DELETE /v1/comments/:comment_id
func (h *DiscussionHandler) DeleteComment(c *gin.Context) {
	if err := h.services.Engagement.DeleteComment(c.Request.Context(), c.Param("comment_id"), callerID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Comment deleted", nil)
}

// PostReply handles POST /v1/comments/:comment_id/replies
func (h *DiscussionHandler) PostReply(c *gin.Context) {
	var req models.TextRequest
	if !h.bind(c, &req) {
		return
	}

	reply, err := h.services.Engagement.PostReply(c.Request.Context(), c.Param("comment_id"), callerID(c), req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Reply added", gin.H{"reply": reply})
}

// GetReply handles GET /v1/replies/:reply_id
func (h *DiscussionHandler) GetReply(c *gin.Context) {
	reply, err := h.services.Engagement.GetReply(c.Request.Context(), c.Param("reply_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Fetched", gin.H{"reply": reply})
}

// EditReply handles PUT /v1/replies/:reply_id
func (h *DiscussionHandler) EditReply(c *gin.Context) {
	var req models.TextRequest
	if !h.bind(c, &req) {
		return
	}

	reply, err := h.services.Engagement.EditReply(c.Request.Context(), c.Param("reply_id"), callerID(c), req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Reply updated", gin.H{"reply": reply})
}

// DeleteReply handles DELETE /v1/replies/:reply_id
func (h *DiscussionHandler) DeleteReply(c *gin.Context) {
	if err := h.services.Engagement.DeleteReply(c.Request.Context(), c.Param("reply_id"), callerID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Reply deleted", nil)
}

func (h *DiscussionHandler) bind(c *gin.Context, req *models.TextRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, h.log, apperr.Validation("Invalid request body"))
		return false
	}
	return true
}
