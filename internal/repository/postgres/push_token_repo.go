package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/notyfai/internal/errs"
	"github.com/and161185/notyfai/internal/model"
)

// PushTokenRepo implements PushTokenRepository using PostgreSQL.
type PushTokenRepo struct{ db *DB }

// NewPushTokenRepo constructs a push token repository.
func NewPushTokenRepo(db *DB) *PushTokenRepo { return &PushTokenRepo{db: db} }

// Upsert registers a device token; re-registration updates the platform.
func (r *PushTokenRepo) Upsert(ctx context.Context, userID uuid.UUID, token string, platform model.Platform) error {
	const q = `
INSERT INTO push_tokens (user_id, token, platform)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, token)
DO UPDATE SET platform=EXCLUDED.platform, updated_at=now()`
	if _, err := r.db.Pool.Exec(ctx, q, userID, token, string(platform)); err != nil {
		return fmt.Errorf("upsert push token: %w", err)
	}
	return nil
}

// Remove deletes the user's registration of token.
func (r *PushTokenRepo) Remove(ctx context.Context, userID uuid.UUID, token string) error {
	const q = `DELETE FROM push_tokens WHERE user_id=$1 AND token=$2`
	tag, err := r.db.Pool.Exec(ctx, q, userID, token)
	if err != nil {
		return fmt.Errorf("remove push token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListByUser returns all device registrations of a user.
func (r *PushTokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PushToken, error) {
	const q = `SELECT id, user_id, token, platform FROM push_tokens WHERE user_id=$1`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list push tokens: %w", err)
	}
	defer rows.Close()

	var out []model.PushToken
	for rows.Next() {
		var (
			pt       model.PushToken
			platform string
		)
		if err := rows.Scan(&pt.ID, &pt.UserID, &pt.Token, &platform); err != nil {
			return nil, fmt.Errorf("list push tokens: %w", err)
		}
		pt.Platform = model.Platform(platform)
		out = append(out, pt)
	}
	return out, rows.Err()
}

// DeleteByIDs removes the given registrations in a single statement.
func (r *PushTokenRepo) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `DELETE FROM push_tokens WHERE id = ANY($1::uuid[])`
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	if _, err := r.db.Pool.Exec(ctx, q, strIDs); err != nil {
		return fmt.Errorf("delete push tokens: %w", err)
	}
	return nil
}
