package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/article-engagement-api/internal/apperr"
	"github.com/article-engagement-api/internal/identity"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const callerKey = "caller"

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("path", c.Request.URL.Path).
					Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, envelope{
					Success: false,
					Msg:     internalErrorMsg,
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		if caller, ok := callerFrom(c); ok {
			event = event.Str("user_id", caller.UserID)
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireAuth rejects requests without a valid bearer token
func requireAuth(verifier identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWith(c, apperr.Auth("Authorization header is missing"))
			return
		}
		if !authenticate(c, verifier, header) {
			return
		}
		c.Next()
	}
}

// optionalAuth resolves the caller when a token is sent. A bad token is
// still rejected.
func optionalAuth(verifier identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "" && !authenticate(c, verifier, header) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, verifier identity.Provider, header string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		abortWith(c, apperr.Auth("Bearer token required"))
		return false
	}

	caller, err := verifier.Verify(c.Request.Context(), token)
	if err != nil {
		abortWith(c, err)
		return false
	}

	c.Set(callerKey, caller)
	return true
}

func callerFrom(c *gin.Context) (*identity.Identity, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil, false
	}
	caller, ok := v.(*identity.Identity)
	return caller, ok
}

// callerID is empty for anonymous requests
func callerID(c *gin.Context) string {
	if caller, ok := callerFrom(c); ok {
		return caller.UserID
	}
	return ""
}

func abortWith(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), envelope{
		Success: false,
		Msg:     apperr.Message(err, internalErrorMsg),
	})
}
