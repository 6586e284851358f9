package campaigns

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

const campaignColumns = `id, client_id, influencer_id, notes_for_client, notes_for_influencer,
	 due_date, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	c := &models.Campaign{}
	err := row.Scan(&c.ID, &c.ClientID, &c.InfluencerID, &c.NotesForClient,
		&c.NotesForInfluencer, &c.DueDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	query :=
		`INSERT INTO campaigns (id, client_id, influencer_id, notes_for_client, notes_for_influencer, due_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		campaign.ID, campaign.ClientID, campaign.InfluencerID,
		campaign.NotesForClient, campaign.NotesForInfluencer, campaign.DueDate).
		Scan(&campaign.CreatedAt, &campaign.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return campaign, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	c, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

// List returns campaigns where the given user is either side. An empty
// userID lists everything.
func (r *PostgresRepository) List(ctx context.Context, userID string, limit, offset int) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []any{}

	if userID != "" {
		args = append(args, userID)
		query += " WHERE client_id = $1 OR influencer_id = $1"
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	query :=
		`UPDATE campaigns
		 SET notes_for_client = $2, notes_for_influencer = $3, due_date = $4, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		campaign.ID, campaign.NotesForClient, campaign.NotesForInfluencer, campaign.DueDate)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM campaigns WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}

	return nil
}
