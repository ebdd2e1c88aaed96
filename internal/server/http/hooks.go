package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/notyfai/internal/errs"
	"github.com/and161185/notyfai/internal/service"
)

const (
	maxHookBody = 1 << 20

	hookTokenHeader = "x-notyfai-token"
	hookEventHeader = "x-cursor-event"
)

// CursorHook accepts one Cursor webhook delivery and schedules notification fan-out.
func (s *Server) CursorHook(c *gin.Context) {
	// query wins over header
	token := c.Query("token")
	if token == "" {
		token = c.GetHeader(hookTokenHeader)
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxHookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortError(c, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		body = nil
	}

	d, err := s.hooks.Ingest(c.Request.Context(), service.HookInput{
		Token:       token,
		Body:        body,
		EventHeader: c.GetHeader(hookEventHeader),
	})
	switch {
	case err == nil:
	case errors.Is(err, errs.ErrMissingToken):
		abortError(c, http.StatusUnauthorized, "Missing token")
		return
	case errors.Is(err, errs.ErrInvalidToken):
		abortError(c, http.StatusUnauthorized, "Invalid token")
		return
	case errors.Is(err, errs.ErrNotFound):
		abortError(c, http.StatusNotFound, "Instance not found")
		return
	case errors.Is(err, errs.ErrRevoked):
		abortError(c, http.StatusGone, "Instance revoked")
		return
	case errors.Is(err, service.ErrEventNotStored):
		abortError(c, http.StatusInternalServerError, "Failed to store event")
		return
	default:
		s.log.Error("hook ingest", zap.Error(err))
		abortError(c, http.StatusInternalServerError, "Failed to load instance")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"ok": true})
	s.notifier.Dispatch(c.Request.Context(), d)
}
