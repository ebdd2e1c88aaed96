package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/notyfai/internal/model"
)

// EventRepo implements EventRepository using PostgreSQL.
type EventRepo struct{ db *DB }

// NewEventRepo constructs an event repository.
func NewEventRepo(db *DB) *EventRepo { return &EventRepo{db: db} }

// Insert appends one webhook delivery.
func (r *EventRepo) Insert(ctx context.Context, ev model.CursorEvent) error {
	const q = `INSERT INTO cursor_events (instance_id, event_type, payload) VALUES ($1, $2, $3)`
	payload := []byte(ev.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	if _, err := r.db.Pool.Exec(ctx, q, ev.InstanceID, string(ev.Kind), payload); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}
