package campaigns

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

	now := time.Now()
	rows := sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now)
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+campaigns`).
		WithArgs("c-1", "u-client", "u-inf", "brief", "deliverables", nil).
		WillReturnRows(rows)

	c := &models.Campaign{ID: "c-1", ClientID: "u-client", InfluencerID: "u-inf",
		NotesForClient: "brief", NotesForInfluencer: "deliverables"}
	got, err := repo.Create(context.Background(), c)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected campaign: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+campaigns\s+WHERE\s+id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestList_ByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "client_id", "influencer_id",
		"notes_for_client", "notes_for_influencer", "due_date", "created_at", "updated_at"}).
		AddRow("c-1", "u-client", "u-inf", "", "", nil, now, now)

	q := `(?s)FROM\s+campaigns\s+WHERE\s+client_id\s*=\s*\$1\s+OR\s+influencer_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$2\s+OFFSET\s+\$3`
	mock.ExpectQuery(q).
		WithArgs("u-inf", 20, 0).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), "u-inf", 20, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c-1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+campaigns`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Campaign{ID: "ghost"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+campaigns\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "c-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}
