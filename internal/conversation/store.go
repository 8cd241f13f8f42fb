package conversation

import (
	"context"
	"encoding/json"
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

// Store persists per-sender conversation state in Postgres. Profile and
// task fields are kept as JSONB so onboarding and intake can grow
// fields without migrations.
type Store struct {
	pool rowQuerier
}

func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("conversation: pgx pool required")
	}
	return &Store{pool: pool}
}

func newStoreWithExec(exec rowQuerier) *Store {
	if exec == nil {
		panic("conversation: exec required")
	}
	return &Store{pool: exec}
}

// Load returns the stored state for a sender, or a fresh consent-gate
// state when the sender has never written before.
func (s *Store) Load(ctx context.Context, senderID string) (*State, error) {
	query := `
		SELECT consented, stage, profile, task_fields, updated_at
		FROM conversation_state
		WHERE sender_id = $1
	`
	var (
		state       = NewState(senderID)
		profileJSON []byte
		taskJSON    []byte
	)
	err := s.pool.QueryRow(ctx, query, senderID).
		Scan(&state.Consented, &state.Stage, &profileJSON, &taskJSON, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: load state: %w", err)
	}
	if len(profileJSON) > 0 {
		if err := json.Unmarshal(profileJSON, &state.Profile); err != nil {
			return nil, fmt.Errorf("conversation: decode profile: %w", err)
		}
	}
	if len(taskJSON) > 0 {
		if err := json.Unmarshal(taskJSON, &state.TaskFields); err != nil {
			return nil, fmt.Errorf("conversation: decode task fields: %w", err)
		}
	}
	return state, nil
}

// Save upserts the sender's state. Last write wins; message ordering
// per sender is the platform's responsibility and redelivery is
// filtered by the processed-message ledger before we get here.
func (s *Store) Save(ctx context.Context, state *State) error {
	profileJSON, err := json.Marshal(state.Profile)
	if err != nil {
		return fmt.Errorf("conversation: encode profile: %w", err)
	}
	taskJSON, err := json.Marshal(state.TaskFields)
	if err != nil {
		return fmt.Errorf("conversation: encode task fields: %w", err)
	}
	query := `
		INSERT INTO conversation_state (sender_id, consented, stage, profile, task_fields, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sender_id) DO UPDATE SET
			consented = EXCLUDED.consented,
			stage = EXCLUDED.stage,
			profile = EXCLUDED.profile,
			task_fields = EXCLUDED.task_fields,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.pool.Exec(ctx, query, state.SenderID, state.Consented, string(state.Stage), profileJSON, taskJSON, time.Now().UTC()); err != nil {
		return fmt.Errorf("conversation: save state: %w", err)
	}
	return nil
}
