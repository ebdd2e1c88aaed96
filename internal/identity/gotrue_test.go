package identity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/notyfai/internal/errs"
)

type recorded struct {
	method string
	path   string
	query  string
	apikey string
	auth   string
	body   map[string]any
}

func fakeGoTrue(t *testing.T, status int, answer string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.apikey = r.Header.Get("apikey")
		rec.auth = r.Header.Get("Authorization")
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, answer)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "pk_test"), rec
}

const sessionJSON = `{"access_token":"at","refresh_token":"rt","expires_in":3600,"token_type":"bearer","user":{"id":"u1","email":"a@b.c"}}`

func TestGetUser_OK(t *testing.T) {
	c, rec := fakeGoTrue(t, 200, `{"id":"0b0e0000-0000-4000-8000-000000000001","email":"a@b.c"}`)

	u, err := c.GetUser(context.Background(), "jwt-1")
	require.NoError(t, err)
	require.Equal(t, "0b0e0000-0000-4000-8000-000000000001", u.ID)
	require.Equal(t, http.MethodGet, rec.method)
	require.Equal(t, "/auth/v1/user", rec.path)
	require.Equal(t, "pk_test", rec.apikey)
	require.Equal(t, "Bearer jwt-1", rec.auth)
}

func TestGetUser_Rejected(t *testing.T) {
	c, _ := fakeGoTrue(t, 401, `{"code":401,"error_code":"bad_jwt","msg":"invalid JWT"}`)

	_, err := c.GetUser(context.Background(), "jwt-1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 401, apiErr.Status)
	require.Equal(t, "bad_jwt", apiErr.Code)
	require.Equal(t, "invalid JWT", apiErr.Message)
}

func TestGetUser_EmptyUser(t *testing.T) {
	c, _ := fakeGoTrue(t, 200, `{}`)

	_, err := c.GetUser(context.Background(), "jwt-1")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestSendOTP(t *testing.T) {
	c, rec := fakeGoTrue(t, 200, `{}`)

	require.NoError(t, c.SendOTP(context.Background(), "a@b.c"))
	require.Equal(t, "/auth/v1/otp", rec.path)
	require.Equal(t, "a@b.c", rec.body["email"])
	require.Equal(t, true, rec.body["create_user"])
}

func TestSendOTP_RateLimited(t *testing.T) {
	c, _ := fakeGoTrue(t, 429, `{"code":429,"error_code":"over_email_send_rate_limit","msg":"email rate limit exceeded"}`)
	require.ErrorIs(t, c.SendOTP(context.Background(), "a@b.c"), errs.ErrRateLimited)

	c, _ = fakeGoTrue(t, 400, `{"msg":"Too many requests, slow down"}`)
	require.ErrorIs(t, c.SendOTP(context.Background(), "a@b.c"), errs.ErrRateLimited)

	c, _ = fakeGoTrue(t, 400, `{"msg":"Signups not allowed for otp"}`)
	err := c.SendOTP(context.Background(), "a@b.c")
	require.Error(t, err)
	require.False(t, errors.Is(err, errs.ErrRateLimited))
}

func TestVerifyOTP(t *testing.T) {
	c, rec := fakeGoTrue(t, 200, sessionJSON)

	s, err := c.VerifyOTP(context.Background(), "a@b.c", "123456")
	require.NoError(t, err)
	require.Equal(t, "at", s.AccessToken)
	require.Equal(t, "rt", s.RefreshToken)
	require.Equal(t, int64(3600), s.ExpiresIn)
	require.JSONEq(t, `{"id":"u1","email":"a@b.c"}`, string(s.User))
	require.Equal(t, "/auth/v1/verify", rec.path)
	require.Equal(t, "email", rec.body["type"])
	require.Equal(t, "123456", rec.body["token"])
}

func TestVerifyOTP_NoSession(t *testing.T) {
	c, _ := fakeGoTrue(t, 200, `{"user":{"id":"u1"}}`)

	_, err := c.VerifyOTP(context.Background(), "a@b.c", "123456")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSignUp_WithAndWithoutSession(t *testing.T) {
	c, _ := fakeGoTrue(t, 200, sessionJSON)
	s, user, err := c.SignUp(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	require.NotNil(t, s)
	require.JSONEq(t, `{"id":"u1","email":"a@b.c"}`, string(user))

	c, _ = fakeGoTrue(t, 200, `{"id":"u2","email":"x@y.z","confirmation_sent_at":"2026-01-01T00:00:00Z"}`)
	s, user, err = c.SignUp(context.Background(), "x@y.z", "pw")
	require.NoError(t, err)
	require.Nil(t, s)
	require.Contains(t, string(user), `"u2"`)
}

func TestTokenGrants(t *testing.T) {
	c, rec := fakeGoTrue(t, 200, sessionJSON)

	_, err := c.SignInWithPassword(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	require.Equal(t, "/auth/v1/token", rec.path)
	require.Equal(t, "grant_type=password", rec.query)

	_, err = c.SignInWithIDToken(context.Background(), "google", "idt")
	require.NoError(t, err)
	require.Equal(t, "grant_type=id_token", rec.query)
	require.Equal(t, "google", rec.body["provider"])
	require.Equal(t, "idt", rec.body["id_token"])

	_, err = c.Refresh(context.Background(), "rt")
	require.NoError(t, err)
	require.Equal(t, "grant_type=refresh_token", rec.query)
	require.Equal(t, "rt", rec.body["refresh_token"])
}

func TestOAuthErrorShape(t *testing.T) {
	c, _ := fakeGoTrue(t, 400, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)

	_, err := c.SignInWithPassword(context.Background(), "a@b.c", "bad")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "invalid_grant", apiErr.Code)
	require.Equal(t, "Invalid login credentials", apiErr.Message)
}

func TestClaims(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u1",
		"role": "authenticated",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("provider-secret"))
	require.NoError(t, err)

	raw, err := Claims(signed)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	require.Equal(t, "u1", m["sub"])
	require.Equal(t, "authenticated", m["role"])

	_, err = Claims("not-a-jwt")
	require.Error(t, err)
}
