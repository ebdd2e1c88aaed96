// Package httpserver exposes the notyfai JSON API over gin.
package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/and161185/notyfai/internal/model"
	"github.com/and161185/notyfai/internal/service"
)

// Dispatcher runs notification fan-out off the request path. Implemented by *notify.Notifier.
type Dispatcher interface {
	Dispatch(ctx context.Context, d model.Delivery)
}

// Server wires services into HTTP handlers.
type Server struct {
	auth      service.AuthService
	instances service.InstanceService
	hooks     service.HookService
	devices   service.DeviceService
	notifier  Dispatcher
	log       *zap.Logger
}

// New constructs the HTTP API with injected services.
func New(auth service.AuthService, instances service.InstanceService, hooks service.HookService,
	devices service.DeviceService, notifier Dispatcher, log *zap.Logger) *Server {
	return &Server{
		auth:      auth,
		instances: instances,
		hooks:     hooks,
		devices:   devices,
		notifier:  notifier,
		log:       log,
	}
}

// Router builds the gin engine with middleware and every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(Recover(s.log), Logging(s.log), Instrument())

	r.GET("/health", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/otp/send", s.SendOTP)
	auth.POST("/otp/verify", s.VerifyOTP)
	auth.POST("/signup", s.SignUp)
	auth.POST("/signin", s.SignIn)
	auth.POST("/google", s.Google)
	auth.POST("/refresh", s.Refresh)

	api.POST("/hooks/cursor", s.CursorHook)

	authed := api.Group("", RequireAuth(s.auth))
	authed.GET("/instances", s.ListInstances)
	authed.POST("/instances", s.CreateInstance)
	authed.DELETE("/instances/:id", s.DeleteInstance)
	authed.GET("/instances/:id/hook-setup", s.HookSetup)
	authed.POST("/devices/token", s.RegisterDevice)
	authed.DELETE("/devices/token", s.UnregisterDevice)

	return r
}

// Health answers liveness probes.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// bindJSON decodes an optional JSON body; an empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		abortError(c, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// principal returns the caller attached by RequireAuth.
func principal(c *gin.Context) (model.Principal, bool) {
	p, ok := PrincipalFromCtx(c.Request.Context())
	if !ok {
		abortError(c, http.StatusUnauthorized, "Unauthorized")
	}
	return p, ok
}
