// Package service contains application services for auth, instances, hooks and devices.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/notyfai/internal/errs"
	"github.com/and161185/notyfai/internal/identity"
	"github.com/and161185/notyfai/internal/limiter"
	"github.com/and161185/notyfai/internal/model"
)

// IdentityProvider is the external user directory. Implemented by *identity.Client.
type IdentityProvider interface {
	GetUser(ctx context.Context, accessToken string) (*model.User, error)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*model.Session, error)
	SignUp(ctx context.Context, email, password string) (*model.Session, json.RawMessage, error)
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignInWithIDToken(ctx context.Context, provider, idToken string) (*model.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*model.Session, error)
}

// AuthService resolves bearer credentials and proxies sign-in flows to the identity provider.
type AuthService interface {
	// Authenticate validates an access token with the provider on every call.
	Authenticate(ctx context.Context, accessToken string) (model.Principal, error)
	// SendOTP e-mails a one-time code.
	SendOTP(ctx context.Context, email string) error
	// VerifyOTP exchanges a code for a session, limiting failed attempts per (email, ip).
	VerifyOTP(ctx context.Context, email, code, ip string) (*model.Session, error)
	// SignUp creates a password account; the session is nil while confirmation is pending.
	SignUp(ctx context.Context, email, password string) (*model.Session, json.RawMessage, error)
	// SignIn authenticates with a password, limiting failed attempts per (email, ip).
	SignIn(ctx context.Context, email, password, ip string) (*model.Session, error)
	// SignInWithGoogle exchanges a Google ID token for a session.
	SignInWithGoogle(ctx context.Context, idToken string) (*model.Session, error)
	// Refresh exchanges a refresh token for a new session.
	Refresh(ctx context.Context, refreshToken string) (*model.Session, error)
}

type AuthServiceImpl struct {
	idp IdentityProvider
	lim limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(idp IdentityProvider, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{idp: idp, lim: lim}
}

// Authenticate resolves the user behind accessToken. Any provider failure is ErrUnauthorized.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, accessToken string) (model.Principal, error) {
	if accessToken == "" {
		return model.Principal{}, errs.ErrUnauthorized
	}
	u, err := s.idp.GetUser(ctx, accessToken)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	id, err := uuid.FromString(u.ID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: bad user id", errs.ErrUnauthorized)
	}
	p := model.Principal{UserID: id, AccessToken: accessToken}
	// claims are optional: storage falls back to {"sub","role"}
	if claims, err := identity.Claims(accessToken); err == nil {
		p.Claims = claims
	}
	return p, nil
}

// SendOTP validates the address and asks the provider to e-mail a code.
func (s *AuthServiceImpl) SendOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return InputError("email is required")
	}
	return s.idp.SendOTP(ctx, email)
}

// VerifyOTP checks an e-mailed code.
func (s *AuthServiceImpl) VerifyOTP(ctx context.Context, email, code, ip string) (*model.Session, error) {
	email, code = strings.TrimSpace(email), strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, InputError("email and token are required")
	}
	return s.limited(ctx, email, ip, func() (*model.Session, error) {
		return s.idp.VerifyOTP(ctx, email, code)
	})
}

// SignUp registers a password account.
func (s *AuthServiceImpl) SignUp(ctx context.Context, email, password string) (*model.Session, json.RawMessage, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil, InputError("email and password are required")
	}
	return s.idp.SignUp(ctx, email, password)
}

// SignIn authenticates with e-mail and password.
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password, ip string) (*model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, InputError("email and password are required")
	}
	return s.limited(ctx, email, ip, func() (*model.Session, error) {
		return s.idp.SignInWithPassword(ctx, email, password)
	})
}

// SignInWithGoogle exchanges a Google ID token.
func (s *AuthServiceImpl) SignInWithGoogle(ctx context.Context, idToken string) (*model.Session, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, InputError("id_token is required")
	}
	return s.idp.SignInWithIDToken(ctx, "google", idToken)
}

// Refresh renews a session. Every failure is ErrUnauthorized.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, InputError("refresh_token is required")
	}
	sess, err := s.idp.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	return sess, nil
}

// limited runs attempt under the (email, ip) limiter. Rejected credentials count as failures.
func (s *AuthServiceImpl) limited(ctx context.Context, email, ip string, attempt func() (*model.Session, error)) (*model.Session, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return nil, fmt.Errorf("limiter: %w", err)
	}
	if !allowed {
		return nil, errs.ErrRateLimited
	}

	sess, err := attempt()
	if err != nil {
		if isRejection(err) {
			if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
				return nil, errs.ErrRateLimited
			}
		}
		return nil, err
	}

	// best-effort reset
	_ = s.lim.Success(ctx, email, ipHash)
	return sess, nil
}

// isRejection reports whether the provider refused the credentials (as opposed to being down).
func isRejection(err error) bool {
	var apiErr *identity.APIError
	if !errors.As(err, &apiErr) || errors.Is(err, errs.ErrRateLimited) {
		return false
	}
	return apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError
}
