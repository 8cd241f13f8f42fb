package optout

import (
	"context"
	"testing"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestRegistryRoundTrip(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	reg := newRegistryWithExec(mock)
	ctx := context.Background()

	// Unknown sender is opted in by default.
	mock.ExpectQuery("SELECT opted_out FROM optout_registry").
		WithArgs("919800000001").
		WillReturnError(pgx.ErrNoRows)
	out, err := reg.IsOptedOut(ctx, "919800000001")
	if err != nil || out {
		t.Fatalf("unknown sender: out=%v err=%v", out, err)
	}

	mock.ExpectExec("INSERT INTO optout_registry").
		WithArgs("919800000001", true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if err := reg.OptOut(ctx, "919800000001"); err != nil {
		t.Fatalf("opt out: %v", err)
	}

	mock.ExpectQuery("SELECT opted_out FROM optout_registry").
		WithArgs("919800000001").
		WillReturnRows(pgxmock.NewRows([]string{"opted_out"}).AddRow(true))
	out, err = reg.IsOptedOut(ctx, "919800000001")
	if err != nil || !out {
		t.Fatalf("after STOP: out=%v err=%v", out, err)
	}

	mock.ExpectExec("INSERT INTO optout_registry").
		WithArgs("919800000001", false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if err := reg.OptIn(ctx, "919800000001"); err != nil {
		t.Fatalf("opt in: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
