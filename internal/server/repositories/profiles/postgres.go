package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/dbx"
	"github.com/kingfluencer/backend/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, profile *models.Profile) error {
	query :=
		`INSERT INTO profiles (user_id, company_name, industry, website, campaigns,
		   followers, engagement, instagram_handle, niche)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		profile.UserID, profile.CompanyName, profile.Industry, profile.Website,
		profile.Campaigns, profile.Followers, profile.Engagement,
		profile.InstagramHandle, profile.Niche)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query :=
		`SELECT user_id, company_name, industry, website, campaigns,
		   followers, engagement, instagram_handle, niche, created_at, updated_at
		 FROM profiles
		 WHERE user_id = $1
		 `

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.CompanyName,
		&p.Industry, &p.Website, &p.Campaigns, &p.Followers, &p.Engagement,
		&p.InstagramHandle, &p.Niche, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, profile *models.Profile) error {
	query :=
		`UPDATE profiles
		 SET company_name = $2, industry = $3, website = $4, campaigns = $5,
		     followers = $6, engagement = $7, instagram_handle = $8, niche = $9,
		     updated_at = now()
		 WHERE user_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		profile.UserID, profile.CompanyName, profile.Industry, profile.Website,
		profile.Campaigns, profile.Followers, profile.Engagement,
		profile.InstagramHandle, profile.Niche)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}

	return nil
}
