package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TranscriptStore records message metadata for audit and triage.
// Message bodies are never stored: only who, when, direction, kind,
// the safety verdict, and intent tags.
type TranscriptStore struct {
	db *sql.DB
}

func NewTranscriptStore(db *sql.DB) *TranscriptStore {
	if db == nil {
		return nil
	}
	return &TranscriptStore{db: db}
}

type TranscriptEntry struct {
	SenderID   string
	MessageID  string
	Direction  string // "in" or "out"
	Kind       string
	Verdict    string
	IntentTags []string
}

// Record appends one transcript row. A nil store is a no-op so callers
// can run without the audit database in tests and local setups.
func (s *TranscriptStore) Record(ctx context.Context, entry TranscriptEntry) error {
	if s == nil {
		return nil
	}
	query := `
		INSERT INTO transcripts (id, sender_id, message_id, direction, kind, verdict, intent_tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), entry.SenderID, entry.MessageID, entry.Direction,
		entry.Kind, entry.Verdict, strings.Join(entry.IntentTags, ","), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("conversation: record transcript: %w", err)
	}
	return nil
}
