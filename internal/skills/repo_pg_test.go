package skills

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoSaveGetList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO skills .* ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs("SK1", "Elasticsearch", "other", now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id, name, category, created_at FROM skills WHERE id = \\$1").
		WithArgs("SK9").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("ORDER BY name ASC, id ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category", "created_at"}).
			AddRow("SK3", "Derby", "other", now).
			AddRow("SK1", "Elasticsearch", "other", now))

	if err := repo.Save(ctx, Skill{ID: "SK1", Name: "Elasticsearch", Category: "other", CreatedAt: now}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := repo.Get(ctx, "SK9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "SK3" {
		t.Fatalf("unexpected list %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO skills .* ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs("SK1", "Elasticsearch", "other", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO skills .* ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs("SK1", "Oracle", "other", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Create(ctx, Skill{ID: "SK1", Name: "Elasticsearch", Category: "other", CreatedAt: now}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, Skill{ID: "SK1", Name: "Oracle", Category: "other", CreatedAt: now}); !errors.Is(err, ErrConflict) {
		t.Fatalf("Create: expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
