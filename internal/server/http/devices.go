package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/notyfai/internal/errs"
)

// deviceRequest keeps fields untyped so non-string values fail validation, not decoding.
type deviceRequest struct {
	Token    any `json:"token"`
	Platform any `json:"platform"`
}

func (r deviceRequest) strings() (token, platform string) {
	token, _ = r.Token.(string)
	platform, _ = r.Platform.(string)
	return token, platform
}

// RegisterDevice upserts a push token for the caller.
func (s *Server) RegisterDevice(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req deviceRequest
	if !bindJSON(c, &req) {
		return
	}
	token, platform := req.strings()
	if err := s.devices.Register(c.Request.Context(), p, token, platform); err != nil {
		if errors.Is(err, errs.ErrInvalidInput) {
			abortError(c, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("register device token", zap.Stringer("user", p.UserID), zap.Error(err))
		abortError(c, http.StatusInternalServerError, "Failed to register device token")
		return
	}
	c.Status(http.StatusNoContent)
}

// UnregisterDevice removes a push token of the caller.
func (s *Server) UnregisterDevice(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req deviceRequest
	if !bindJSON(c, &req) {
		return
	}
	token, _ := req.strings()
	if err := s.devices.Unregister(c.Request.Context(), p, token); err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidInput):
			abortError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, errs.ErrNotFound):
			abortError(c, http.StatusNotFound, "Device token not found")
		default:
			s.log.Error("unregister device token", zap.Stringer("user", p.UserID), zap.Error(err))
			abortError(c, http.StatusInternalServerError, "Failed to remove device token")
		}
		return
	}
	c.Status(http.StatusNoContent)
}
