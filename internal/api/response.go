package api

import (
	"github.com/article-engagement-api/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const internalErrorMsg = "Something went wrong"

// envelope is the error body and the common part of every success body
type envelope struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

// respond writes {success: true, msg, ...payload}
func respond(c *gin.Context, status int, msg string, payload gin.H) {
	body := gin.H{"success": true, "msg": msg}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondError maps err onto the taxonomy status. Internal failures are
// logged and their details withheld from the client.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Msg("Request failed")
	}

	c.JSON(status, envelope{
		Success: false,
		Msg:     apperr.Message(err, internalErrorMsg),
	})
}
