package api

import (
	"context"
	"net/http"
	"time"

	"github.com/article-engagement-api/internal/identity"
	"github.com/article-engagement-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterOption customises NewRouter
type RouterOption func(*routerOptions)

type routerOptions struct {
	healthCheck func(ctx context.Context) error
}

// WithHealthCheck makes /health report unhealthy when check fails
func WithHealthCheck(check func(ctx context.Context) error) RouterOption {
	return func(o *routerOptions) {
		o.healthCheck = check
	}
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, verifier identity.Provider, log zerolog.Logger, opts ...RouterOption) *gin.Engine {
	o := &routerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	reactions := NewReactionHandler(services, log)
	discussion := NewDiscussionHandler(services, log)

	authed := requireAuth(verifier)
	optional := optionalAuth(verifier)

	// Health check
	router.GET("/health", healthHandler(o.healthCheck, log))
	router.GET("/metrics", metricsHandler(services, log))

	// API v1
	v1 := router.Group("/v1")
	{
		articles := v1.Group("/articles/:article_id")
		{
			articles.POST("/like", authed, reactions.Like)
			articles.DELETE("/like", authed, reactions.Unlike)
			articles.POST("/dislike", authed, reactions.Dislike)
			articles.DELETE("/dislike", authed, reactions.Undislike)
			articles.POST("/bookmark", authed, reactions.Bookmark)
			articles.DELETE("/bookmark", authed, reactions.RemoveBookmark)
			articles.GET("/reactions", optional, reactions.Counts)

			articles.POST("/comments", authed, discussion.PostComment)
			articles.GET("/comments", discussion.LatestComments)
			articles.POST("/comments/latest", discussion.LatestComments)
		}

		comments := v1.Group("/comments/:comment_id")
		{
			comments.GET("", discussion.GetComment)
			comments.PUT("", authed, discussion.EditComment)
			comments.DELETE("", authed, discussion.DeleteComment)
			comments.POST("/replies", authed, discussion.PostReply)
		}

		replies := v1.Group("/replies/:reply_id")
		{
			replies.GET("", discussion.GetReply)
			replies.PUT("", authed, discussion.EditReply)
			replies.DELETE("", authed, discussion.DeleteReply)
		}

		v1.GET("/me/reactions/:kind", authed, reactions.Mine)
	}

	return router
}

// healthHandler returns the health status
func healthHandler(check func(ctx context.Context) error, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				log.Error().Err(err).Msg("Health check failed")
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "article-engagement-api",
		})
	}
}

// metricsHandler returns engagement totals
func metricsHandler(services *service.Services, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("handler", "metrics").Logger()
	return func(c *gin.Context) {
		stats, err := services.Engagement.Stats(c.Request.Context())
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"engagement": stats,
			"timestamp":  time.Now().Format(time.RFC3339),
		})
	}
}
