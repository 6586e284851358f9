package repomanager

import (
	"context"
	"database/sql"

	"github.com/kingfluencer/backend/internal/dbx"
	"github.com/kingfluencer/backend/internal/server/migrations"
	"github.com/kingfluencer/backend/internal/server/repositories/campaigns"
	"github.com/kingfluencer/backend/internal/server/repositories/challenges"
	"github.com/kingfluencer/backend/internal/server/repositories/payments"
	"github.com/kingfluencer/backend/internal/server/repositories/profiles"
	"github.com/kingfluencer/backend/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Profiles(db dbx.DBTX) profiles.Repository {
	return profiles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Challenges(db dbx.DBTX) challenges.Repository {
	return challenges.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Campaigns(db dbx.DBTX) campaigns.Repository {
	return campaigns.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Payments(db dbx.DBTX) payments.Repository {
	return payments.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
