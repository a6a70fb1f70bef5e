package api

import (
	"net/http"
	"strings"

	"github.com/article-engagement-api/internal/models"
	"github.com/article-engagement-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ReactionHandler handles like, dislike and bookmark endpoints
type ReactionHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(services *service.Services, log zerolog.Logger) *ReactionHandler {
	return &ReactionHandler{
		services: services,
		log:      log.With().Str("handler", "reaction").Logger(),
	}
}

// Like handles POST /v1/articles/:article_id/like
func (h *ReactionHandler) Like(c *gin.Context) {
	summary, err := h.services.Engagement.LikeArticle(c.Request.Context(), c.Param("article_id"), callerID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Article liked!", gin.H{"reaction": summary})
}

// Unlike handles DELETE /v1/articles/:article_id/like
func (h *ReactionHandler) Unlike(c *gin.Context) {
	h.remove(c, models.ReactionLike, "Like removed")
}

// Dislike handles POST /v1/articles/:article_id/dislike
func (h *ReactionHandler) Dislike(c *gin.Context) {
	summary, err := h.services.Engagement.DislikeArticle(c.Request.Context(), c.Param("article_id"), callerID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Article disliked!", gin.H{"reaction": summary})
}

// Undislike handles DELETE /v1/articles/:article_id/dislike
func (h *ReactionHandler) Undislike(c *gin.Context) {
	h.remove(c, models.ReactionDislike, "Dislike removed")
}

func (h *ReactionHandler) remove(c *gin.Context, kind models.ReactionKind, msg string) {
	summary, err := h.services.Engagement.RemoveReaction(c.Request.Context(), c.Param("article_id"), callerID(c), kind)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, msg, gin.H{"reaction": summary})
}

// Bookmark handles POST /v1/articles/:article_id/bookmark
func (h *ReactionHandler) Bookmark(c *gin.Context) {
	if err := h.services.Engagement.BookmarkArticle(c.Request.Context(), c.Param("article_id"), callerID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Article added to bookmarks", nil)
}

// RemoveBookmark handles DELETE /v1/articles/:article_id/bookmark
func (h *ReactionHandler) RemoveBookmark(c *gin.Context) {
	if err := h.services.Engagement.RemoveBookmark(c.Request.Context(), c.Param("article_id"), callerID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Article removed from bookmarks", nil)
}

// Counts handles GET /v1/articles/:article_id/reactions
// The caller's own flags are filled in only when a token is sent.
func (h *ReactionHandler) Counts(c *gin.Context) {
	summary, err := h.services.Engagement.ReactionCounts(c.Request.Context(), c.Param("article_id"), callerID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Fetched", gin.H{"reaction": summary})
}

// Mine handles GET /v1/me/reactions/:kind
func (h *ReactionHandler) Mine(c *gin.Context) {
	kind := models.ReactionKind(strings.ToLower(c.Param("kind")))

	articles, err := h.services.Engagement.GetArticlesUserReactedTo(c.Request.Context(), callerID(c), kind)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Fetched", gin.H{"articles": articles})
}
