package profiles

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+profiles`).
		WithArgs("u-1", "Acme", "retail", "https://acme.example", 0, "", "", "", "fashion").
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &models.Profile{UserID: "u-1", CompanyName: "Acme", Industry: "retail",
		Website: "https://acme.example", Niche: "fashion"}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"user_id", "company_name", "industry", "website",
		"campaigns", "followers", "engagement", "instagram_handle", "niche",
		"created_at", "updated_at"}).
		AddRow("u-1", "Acme", "retail", "", 3, "120k", "4.2%", "@acme", "fashion", now, now)
	mock.ExpectQuery(`(?s)FROM\s+profiles\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.CompanyName != "Acme" || got.Campaigns != 3 || got.InstagramHandle != "@acme" {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+profiles`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+profiles`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Profile{UserID: "ghost"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}
