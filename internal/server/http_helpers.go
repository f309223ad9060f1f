package server

import (
	"errors"
	"net/http"

	"incommon/internal/docstore"
	"incommon/internal/game"

	"github.com/gin-gonic/gin"
)

// statusFor maps controller errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrNotFound), errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, game.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, docstore.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	var verr *game.ValidationError
	if errors.As(err, &verr) {
		message = verr.Message
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message})
}
