// Package ledger guarantees at-most-once handling of inbound messages.
// WhatsApp redelivers webhooks until acknowledged, so every message id
// passes through here before any side effect runs.
package ledger

import (
	"context"
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

type Ledger struct {
	pool rowQuerier
}

func New(pool *pgxpool.Pool) *Ledger {
	if pool == nil {
		panic("ledger: pgx pool required")
	}
	return &Ledger{pool: pool}
}

func newWithExec(exec rowQuerier) *Ledger {
	if exec == nil {
		panic("ledger: exec required")
	}
	return &Ledger{pool: exec}
}

// MarkProcessed claims a message id, returning false if another worker
// or an earlier delivery already claimed it. The insert is the atomic
// gate: there is no separate check-then-insert window.
func (l *Ledger) MarkProcessed(ctx context.Context, messageID string) (bool, error) {
	query := `
		INSERT INTO processed_messages (message_id, processed_at)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	ct, err := l.pool.Exec(ctx, query, messageID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("ledger: mark processed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// Prune removes entries older than retention. WhatsApp does not
// redeliver messages that old, so keeping them only grows the table.
func (l *Ledger) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	query := `DELETE FROM processed_messages WHERE processed_at < $1`
	ct, err := l.pool.Exec(ctx, query, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("ledger: prune: %w", err)
	}
	return ct.RowsAffected(), nil
}
