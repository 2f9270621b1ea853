package cvs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateAndGet(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := `{"familyName":"Mustermann","id":"cv-1"}`

	mock.ExpectExec("INSERT INTO cvs").
		WithArgs("cv-1", doc, now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id, document, created_at, updated_at FROM cvs WHERE id = \\$1").
		WithArgs("cv-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document", "created_at", "updated_at"}).
			AddRow("cv-1", doc, now, now))

	if err := repo.Create(context.Background(), CV{ID: "cv-1", Document: []byte(doc), CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	cv, err := repo.Get(context.Background(), "cv-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(cv.Document) != doc {
		t.Fatalf("unexpected document %s", cv.Document)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM cvs").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("UPDATE cvs").WithArgs("missing", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM cvs").WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, CV{ID: "missing", Document: []byte(`{}`)}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListEscapesSearchTerm(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("json_each_text").
		WithArgs(`100\%`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document", "created_at", "updated_at"}).
			AddRow("cv-1", `{"id":"cv-1"}`, now, now).
			AddRow("cv-2", `{"id":"cv-2"}`, now, now))

	got, err := repo.List(context.Background(), " 100% ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[1].ID != "cv-2" {
		t.Fatalf("unexpected list %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSuggestions(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT DISTINCT f.value").
		WithArgs("Mus", 10).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("Mustermann").AddRow("Musterstadt"))

	got, err := repo.Suggestions(context.Background(), "Mus", 0)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(got) != 2 || got[0] != "Mustermann" {
		t.Fatalf("unexpected suggestions %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
