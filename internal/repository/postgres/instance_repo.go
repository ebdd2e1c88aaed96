package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/notyfai/internal/errs"
	"github.com/and161185/notyfai/internal/model"
)

// InstanceRepo implements InstanceRepository using PostgreSQL.
type InstanceRepo struct{ db *DB }

// NewInstanceRepo constructs an instance repository.
func NewInstanceRepo(db *DB) *InstanceRepo { return &InstanceRepo{db: db} }

const instanceCols = `id, user_id, name, created_at, revoked, last_event_at`

func scanInstance(row pgx.Row) (*model.Instance, error) {
	var in model.Instance
	if err := row.Scan(&in.ID, &in.UserID, &in.Name, &in.CreatedAt, &in.Revoked, &in.LastEventAt); err != nil {
		return nil, err
	}
	return &in, nil
}

// List returns the principal's instances ordered by creation time, newest first.
func (r *InstanceRepo) List(ctx context.Context, p model.Principal) ([]model.Instance, error) {
	const q = `
SELECT ` + instanceCols + `
FROM cursor_instances
WHERE user_id=$1
ORDER BY created_at DESC`
	out := []model.Instance{}
	err := r.db.asUser(ctx, p, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, q, p.UserID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			in, err := scanInstance(rows)
			if err != nil {
				return err
			}
			out = append(out, *in)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	return out, nil
}

// Create inserts an instance owned by the principal.
func (r *InstanceRepo) Create(ctx context.Context, p model.Principal, name *string) (*model.Instance, error) {
	const q = `
INSERT INTO cursor_instances (user_id, name)
VALUES ($1, $2)
RETURNING ` + instanceCols
	var in *model.Instance
	err := r.db.asUser(ctx, p, func(tx pgx.Tx) error {
		var err error
		in, err = scanInstance(tx.QueryRow(ctx, q, p.UserID, name))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	return in, nil
}

// Get loads one of the principal's instances.
func (r *InstanceRepo) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Instance, error) {
	const q = `
SELECT ` + instanceCols + `
FROM cursor_instances WHERE id=$1 AND user_id=$2`
	var in *model.Instance
	err := r.db.asUser(ctx, p, func(tx pgx.Tx) error {
		var err error
		in, err = scanInstance(tx.QueryRow(ctx, q, id, p.UserID))
		return err
	})
	if err != nil {
		if isNoRows(err) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return in, nil
}

// Delete verifies ownership as the principal, then removes events and the instance
// with the elevated credential. Nothing is touched when the instance is not visible.
func (r *InstanceRepo) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	const own = `SELECT id FROM cursor_instances WHERE id=$1 AND user_id=$2`
	err := r.db.asUser(ctx, p, func(tx pgx.Tx) error {
		var got uuid.UUID
		return tx.QueryRow(ctx, own, id, p.UserID).Scan(&got)
	})
	if err != nil {
		if isNoRows(err) {
			return errs.ErrNotFound
		}
		return fmt.Errorf("delete instance: %w", err)
	}

	const delEvents = `DELETE FROM cursor_events WHERE instance_id=$1`
	const delInstance = `DELETE FROM cursor_instances WHERE id=$1 AND user_id=$2`
	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, delEvents, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, delInstance, id, p.UserID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete instance: %w", err)
	}
	return nil
}

// Lookup loads any instance by ID.
func (r *InstanceRepo) Lookup(ctx context.Context, id uuid.UUID) (*model.Instance, error) {
	const q = `SELECT ` + instanceCols + ` FROM cursor_instances WHERE id=$1`
	in, err := scanInstance(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("lookup instance: %w", err)
	}
	return in, nil
}

// TouchLastEvent records the time of the latest accepted event.
func (r *InstanceRepo) TouchLastEvent(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `UPDATE cursor_instances SET last_event_at=$2 WHERE id=$1`
	if _, err := r.db.Pool.Exec(ctx, q, id, at); err != nil {
		return fmt.Errorf("touch instance: %w", err)
	}
	return nil
}
