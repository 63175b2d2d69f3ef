package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/hustleboard/hustleboard/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(sqlx.NewDb(db, "postgres")), mock
}

func TestGetProjectNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM projects WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetProject(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteProjectNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM projects WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteProject(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindActiveSession(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "project_id", "user_id", "start_time", "end_time", "duration", "category", "on_chain_proof", "created_at"}).
		AddRow("s1", "p1", "u1", start, nil, int64(0), "building", "", start)

	mock.ExpectQuery(`SELECT \* FROM time_sessions\s+WHERE user_id = \$1 AND end_time IS NULL`).
		WithArgs("u1").
		WillReturnRows(rows)

	sess, err := store.FindActiveSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FindActiveSession: %v", err)
	}
	if !sess.Open() {
		t.Fatal("expected open session")
	}
	if sess.ID != "s1" {
		t.Fatalf("session id = %q, want s1", sess.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
