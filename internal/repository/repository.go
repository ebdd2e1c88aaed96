// Package repository defines storage interfaces implemented by concrete backends.
//
// Methods taking a model.Principal run with the caller's identity so row-level security
// applies; the others use the elevated server credential.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/notyfai/internal/model"
)

// InstanceRepository stores Cursor instances.
type InstanceRepository interface {
	// List returns the caller's instances, newest first.
	List(ctx context.Context, p model.Principal) ([]model.Instance, error)
	// Create inserts a new instance owned by the caller.
	Create(ctx context.Context, p model.Principal, name *string) (*model.Instance, error)
	// Get loads one of the caller's instances.
	Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Instance, error)
	// Delete removes one of the caller's instances together with its events.
	Delete(ctx context.Context, p model.Principal, id uuid.UUID) error

	// Lookup loads any instance by ID, bypassing ownership checks.
	Lookup(ctx context.Context, id uuid.UUID) (*model.Instance, error)
	// TouchLastEvent sets last_event_at of an instance.
	TouchLastEvent(ctx context.Context, id uuid.UUID, at time.Time) error
}

// EventRepository appends webhook deliveries.
type EventRepository interface {
	// Insert appends one event row.
	Insert(ctx context.Context, ev model.CursorEvent) error
}

// PushTokenRepository stores device registrations.
type PushTokenRepository interface {
	// Upsert registers token for the user, updating the platform if already present.
	Upsert(ctx context.Context, userID uuid.UUID, token string, platform model.Platform) error
	// Remove deletes the user's registration of token.
	Remove(ctx context.Context, userID uuid.UUID, token string) error
	// ListByUser returns every registration of the user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PushToken, error)
	// DeleteByIDs deletes registrations in one statement.
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}
