package conversation

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestStoreLoadMissingSenderStartsFresh(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithExec(mock)

	mock.ExpectQuery("SELECT consented, stage, profile, task_fields, updated_at").
		WithArgs("919800000001").
		WillReturnError(pgx.ErrNoRows)

	state, err := store.Load(context.Background(), "919800000001")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Stage != StageAwaitingConsent || state.Consented {
		t.Fatalf("fresh state = %+v", state)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreLoadDecodesJSONFields(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithExec(mock)

	rows := pgxmock.NewRows([]string{"consented", "stage", "profile", "task_fields", "updated_at"}).
		AddRow(true, Stage("active_task"), []byte(`{"name":"Sunita","age":"54","city":"Pune"}`), []byte(`{"cancer_type":"breast"}`), time.Now())
	mock.ExpectQuery("SELECT consented, stage, profile, task_fields, updated_at").
		WithArgs("919800000002").
		WillReturnRows(rows)

	state, err := store.Load(context.Background(), "919800000002")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !state.Consented || state.Stage != StageActiveTask {
		t.Fatalf("state = %+v", state)
	}
	if state.Profile["city"] != "Pune" || state.TaskFields["cancer_type"] != "breast" {
		t.Fatalf("decoded fields = %v / %v", state.Profile, state.TaskFields)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreSaveUpserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithExec(mock)

	state := NewState("919800000003")
	state.Consented = true
	state.Stage = StageMenu
	state.Profile["name"] = "Ramesh"

	mock.ExpectExec("INSERT INTO conversation_state").
		WithArgs("919800000003", true, "menu", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTranscriptStoreRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewTranscriptStore(db)

	mock.ExpectExec("INSERT INTO transcripts").
		WithArgs(sqlmock.AnyArg(), "919800000004", "wamid.A", "in", "text", "ok", "treatment,cost", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Record(context.Background(), TranscriptEntry{
		SenderID:   "919800000004",
		MessageID:  "wamid.A",
		Direction:  "in",
		Kind:       "text",
		Verdict:    "ok",
		IntentTags: []string{"treatment", "cost"},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTranscriptStoreNilIsNoop(t *testing.T) {
	var store *TranscriptStore
	if err := store.Record(context.Background(), TranscriptEntry{SenderID: "x"}); err != nil {
		t.Fatalf("nil store record: %v", err)
	}
}
