// Package model defines domain entities used by services and repositories.
package model

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Instance is one registered Cursor client belonging to a user.
type Instance struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"-"`
	Name        *string    `json:"name"`
	CreatedAt   time.Time  `json:"created_at"`
	Revoked     bool       `json:"revoked"`
	LastEventAt *time.Time `json:"last_event_at"`
}

// DisplayName returns the instance name or "" when unnamed.
func (i Instance) DisplayName() string {
	if i.Name == nil {
		return ""
	}
	return *i.Name
}

// CursorEvent is one accepted webhook delivery. Rows are never updated.
type CursorEvent struct {
	InstanceID uuid.UUID
	Kind       EventKind
	Payload    json.RawMessage // always a JSON object
}

// Platform is the operating system of a registered device.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// PushToken maps a user to one device registration. Unique on (UserID, Token).
type PushToken struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Token    string
	Platform Platform
}

// Principal is the authenticated caller of a user-scoped request.
type Principal struct {
	UserID      uuid.UUID
	AccessToken string          // caller's credential, forwarded for row-level security
	Claims      json.RawMessage // JWT claims of AccessToken as a JSON object
}

// Delivery is the outcome of an accepted webhook, handed to notification fan-out.
type Delivery struct {
	UserID       uuid.UUID
	InstanceID   uuid.UUID
	Kind         EventKind
	InstanceName string
}

// Session is an identity-provider session returned by sign-in flows.
type Session struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int64           `json:"expires_in"`
	TokenType    string          `json:"token_type,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

// User is the subset of an identity-provider user the server relies on.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
