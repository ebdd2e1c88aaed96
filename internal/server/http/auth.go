package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/notyfai/internal/errs"
	"github.com/and161185/notyfai/internal/identity"
	"github.com/and161185/notyfai/internal/model"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// authError maps auth-flow failures to a status and a client-safe message.
func (s *Server) authError(c *gin.Context, op string, err error) {
	var apiErr *identity.APIError
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		abortError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr):
		status := http.StatusBadRequest
		if errors.Is(err, errs.ErrRateLimited) {
			status = http.StatusTooManyRequests
		}
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		abortError(c, status, msg)
	case errors.Is(err, errs.ErrRateLimited):
		abortError(c, http.StatusTooManyRequests, "Too many attempts")
	case errors.Is(err, identity.ErrNoSession):
		abortError(c, http.StatusBadRequest, "No session returned")
	default:
		s.log.Error("auth flow failed", zap.String("op", op), zap.Error(err))
		abortError(c, http.StatusInternalServerError, "Authentication failed")
	}
}

// SendOTP e-mails a one-time code.
func (s *Server) SendOTP(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.auth.SendOTP(c.Request.Context(), req.Email); err != nil {
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) && errors.Is(err, errs.ErrRateLimited) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": apiErr.Message,
				"code":  "email_limit_exceeded",
			})
			return
		}
		s.authError(c, "otp/send", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to email"})
}

// VerifyOTP exchanges an e-mailed code for a session.
func (s *Server) VerifyOTP(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := s.auth.VerifyOTP(c.Request.Context(), req.Email, req.Token, c.ClientIP())
	s.writeSession(c, "otp/verify", sess, err)
}

// SignUp registers a password account.
func (s *Server) SignUp(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, user, err := s.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.authError(c, "signup", err)
		return
	}
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Check your email to confirm your account", "user": user})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// SignIn authenticates with e-mail and password.
func (s *Server) SignIn(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	s.writeSession(c, "signin", sess, err)
}

// Google exchanges a Google ID token for a session.
func (s *Server) Google(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sess, err := s.auth.SignInWithGoogle(c.Request.Context(), req.IDToken)
	s.writeSession(c, "google", sess, err)
}

// Refresh renews a session.
func (s *Server) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sess, err := s.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			abortError(c, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		s.authError(c, "refresh", err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) writeSession(c *gin.Context, op string, sess *model.Session, err error) {
	if err != nil {
		s.authError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
