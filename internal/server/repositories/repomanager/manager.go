package repomanager

import (
	"context"
	"database/sql"

	"github.com/kingfluencer/backend/internal/dbx"
	"github.com/kingfluencer/backend/internal/server/repositories/campaigns"
	"github.com/kingfluencer/backend/internal/server/repositories/challenges"
	"github.com/kingfluencer/backend/internal/server/repositories/payments"
	"github.com/kingfluencer/backend/internal/server/repositories/profiles"
	"github.com/kingfluencer/backend/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Challenges(db dbx.DBTX) challenges.Repository
	Campaigns(db dbx.DBTX) campaigns.Repository
	Payments(db dbx.DBTX) payments.Repository
}
