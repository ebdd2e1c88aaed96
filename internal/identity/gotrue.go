// Package identity is a client for the Supabase Auth (GoTrue) REST API.
//
// The server never stores passwords or sessions itself: every call is forwarded to the
// provider with the project's publishable key.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/and161185/notyfai/internal/errs"
	"github.com/and161185/notyfai/internal/model"
)

// APIError is a non-2xx answer from the provider.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("identity: %d: %s", e.Status, e.Message)
}

var rateLimitRe = regexp.MustCompile(`(?i)rate limit|limit exceeded|too many`)

// Is makes rate-limit answers match errs.ErrRateLimited.
func (e *APIError) Is(target error) bool {
	if target != errs.ErrRateLimited {
		return false
	}
	return e.Status == http.StatusTooManyRequests || rateLimitRe.MatchString(e.Message)
}

// Client talks to GoTrue under <base>/auth/v1.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// New constructs a client for the project at baseURL.
func New(baseURL, publishableKey string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/") + "/auth/v1",
		apiKey: publishableKey,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetUser validates accessToken and returns its user.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, errs.ErrUnauthorized
	}
	return &u, nil
}

// SendOTP e-mails a one-time code, creating the user if needed.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	body := map[string]any{"email": email, "create_user": true}
	return c.do(ctx, http.MethodPost, "/otp", "", body, nil)
}

// VerifyOTP exchanges an e-mailed code for a session.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*model.Session, error) {
	body := map[string]any{"type": "email", "email": email, "token": code}
	return c.session(ctx, "/verify", body)
}

// SignUp creates a password account. The session is nil when e-mail confirmation is pending.
func (c *Client) SignUp(ctx context.Context, email, password string) (*model.Session, json.RawMessage, error) {
	var raw json.RawMessage
	body := map[string]any{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/signup", "", body, &raw); err != nil {
		return nil, nil, err
	}
	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, nil, fmt.Errorf("identity: decode signup: %w", err)
	}
	if s.AccessToken != "" {
		return &s, s.User, nil
	}
	// without a session GoTrue answers with the bare user object
	return nil, raw, nil
}

// SignInWithPassword authenticates with e-mail and password.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	body := map[string]any{"email": email, "password": password}
	return c.session(ctx, "/token?grant_type=password", body)
}

// SignInWithIDToken authenticates with an OpenID Connect ID token of provider (e.g. "google").
func (c *Client) SignInWithIDToken(ctx context.Context, provider, idToken string) (*model.Session, error) {
	body := map[string]any{"provider": provider, "id_token": idToken}
	return c.session(ctx, "/token?grant_type=id_token", body)
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	body := map[string]any{"refresh_token": refreshToken}
	return c.session(ctx, "/token?grant_type=refresh_token", body)
}

// ErrNoSession is returned when the provider answers without a session.
var ErrNoSession = errors.New("identity: no session returned")

func (c *Client) session(ctx context.Context, path string, body any) (*model.Session, error) {
	var s model.Session
	if err := c.do(ctx, http.MethodPost, path, "", body, &s); err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("identity: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("identity: decode: %w", err)
	}
	return nil
}

// decodeError understands both GoTrue error shapes:
// {"code":400,"error_code":"...","msg":"..."} and {"error":"...","error_description":"..."}.
func decodeError(status int, data []byte) error {
	var body struct {
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(data, &body)

	e := &APIError{Status: status, Code: body.ErrorCode}
	for _, m := range []string{body.Msg, body.ErrorDescription, body.Message, body.Error} {
		if m != "" {
			e.Message = m
			break
		}
	}
	if e.Code == "" && body.ErrorDescription != "" {
		e.Code = body.Error
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
