package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/notyfai/internal/errs"
)

// ListInstances returns the caller's instances, newest first.
func (s *Server) ListInstances(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	list, err := s.instances.List(c.Request.Context(), p)
	if err != nil {
		s.log.Error("list instances", zap.Error(err))
		abortError(c, http.StatusInternalServerError, "Failed to list instances")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateInstance registers a new instance for the caller.
func (s *Server) CreateInstance(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !bindJSON(c, &req) {
		return
	}
	in, err := s.instances.Create(c.Request.Context(), p, req.Name)
	if err != nil {
		s.log.Error("create instance", zap.Error(err))
		abortError(c, http.StatusInternalServerError, "Failed to create instance")
		return
	}
	c.JSON(http.StatusCreated, in)
}

// DeleteInstance removes one of the caller's instances with its events.
func (s *Server) DeleteInstance(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := s.instances.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			abortError(c, http.StatusNotFound, "Instance not found")
			return
		}
		s.log.Error("delete instance", zap.Error(err))
		abortError(c, http.StatusInternalServerError, "Failed to delete instance")
		return
	}
	c.Status(http.StatusNoContent)
}

// HookSetup returns the signed webhook URL and hooks.json for an instance.
func (s *Server) HookSetup(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	hs, err := s.instances.HookSetup(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			abortError(c, http.StatusNotFound, "Instance not found")
			return
		}
		s.log.Error("hook setup", zap.Error(err))
		abortError(c, http.StatusInternalServerError, "Failed to load instance")
		return
	}
	c.JSON(http.StatusOK, hs)
}
