package optout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Registry persists per-sender opt-out flags. Opt-out survives
// conversation resets: once a sender says STOP, only their own START
// clears it.
type Registry struct {
	pool rowQuerier
}

func NewRegistry(pool *pgxpool.Pool) *Registry {
	if pool == nil {
		panic("optout: pgx pool required")
	}
	return &Registry{pool: pool}
}

func newRegistryWithExec(exec rowQuerier) *Registry {
	if exec == nil {
		panic("optout: exec required")
	}
	return &Registry{pool: exec}
}

// IsOptedOut reports whether the sender currently has an active opt-out.
func (r *Registry) IsOptedOut(ctx context.Context, senderID string) (bool, error) {
	query := `SELECT opted_out FROM optout_registry WHERE sender_id = $1`
	var optedOut bool
	if err := r.pool.QueryRow(ctx, query, senderID).Scan(&optedOut); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("optout: check registry: %w", err)
	}
	return optedOut, nil
}

// OptOut records a STOP for the sender.
func (r *Registry) OptOut(ctx context.Context, senderID string) error {
	return r.set(ctx, senderID, true)
}

// OptIn clears the sender's opt-out after a START.
func (r *Registry) OptIn(ctx context.Context, senderID string) error {
	return r.set(ctx, senderID, false)
}

func (r *Registry) set(ctx context.Context, senderID string, optedOut bool) error {
	query := `
		INSERT INTO optout_registry (sender_id, opted_out, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (sender_id) DO UPDATE SET
			opted_out = EXCLUDED.opted_out,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.pool.Exec(ctx, query, senderID, optedOut, time.Now().UTC()); err != nil {
		return fmt.Errorf("optout: set registry: %w", err)
	}
	return nil
}
