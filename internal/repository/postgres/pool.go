// Package postgres contains PostgreSQL implementations of repository interfaces.
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/and161185/notyfai/internal/model"
)

// PgxPool is a minimal abstraction over a Postgres connection pool,
// used by repositories. It is implemented by *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	// Exec executes a SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// Query executes a SELECT and returns a rows iterator.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	// BeginTx starts a transaction with the provided options.
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	// Close shuts down the pool and frees resources.
	Close()
}

// DB wraps pgxpool.Pool to satisfy repository constructors and allow testing.
// The pool connects with the elevated server credential; user-scoped work goes through asUser.
type DB struct{ Pool PgxPool }

// New creates a new connection pool for the given DSN.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

// Close closes the underlying pool.
func (db *DB) Close() { db.Pool.Close() }

// AuthenticatedRole is the database role row-level-security policies are written for.
const AuthenticatedRole = "authenticated"

const setClaimsSQL = `SELECT set_config('role', $1, true), set_config('request.jwt.claims', $2, true)`

// asUser runs fn in a transaction that acts as the principal: the role is switched to
// AuthenticatedRole and the caller's JWT claims are exposed to RLS policies.
func (db *DB) asUser(ctx context.Context, p model.Principal, fn func(tx pgx.Tx) error) error {
	claims, err := claimsJSON(p)
	if err != nil {
		return err
	}
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, setClaimsSQL, AuthenticatedRole, claims); err != nil {
			return err
		}
		return fn(tx)
	})
}

// inTx runs fn in a transaction, committing on success.
func (db *DB) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()
	return fn(tx)
}

// claimsJSON returns the claims to expose to RLS. Principals resolved without claims
// get the minimal {"sub","role"} document policies depend on.
func claimsJSON(p model.Principal) (string, error) {
	if len(p.Claims) > 0 {
		return string(p.Claims), nil
	}
	b, err := json.Marshal(map[string]string{"sub": p.UserID.String(), "role": AuthenticatedRole})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// isNoRows reports whether the error is pgx.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
