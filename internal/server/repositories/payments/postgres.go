package payments

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

const paymentColumns = `id, campaign_id, received_from_client, receivable_from_client,
	 receivable_due_date, payable_to_influencer, paid_to_influencer, paid_due_date,
	 status_for_client, status_for_influencer, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(&p.ID, &p.CampaignID, &p.ReceivedFromClient, &p.ReceivableFromClient,
		&p.ReceivableDueDate, &p.PayableToInfluencer, &p.PaidToInfluencer, &p.PaidDueDate,
		&p.StatusForClient, &p.StatusForInfluencer, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	query :=
		`INSERT INTO payments (id, campaign_id, received_from_client, receivable_from_client,
		   receivable_due_date, payable_to_influencer, paid_to_influencer, paid_due_date,
		   status_for_client, status_for_influencer)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		payment.ID, payment.CampaignID, payment.ReceivedFromClient, payment.ReceivableFromClient,
		payment.ReceivableDueDate, payment.PayableToInfluencer, payment.PaidToInfluencer,
		payment.PaidDueDate, payment.StatusForClient, payment.StatusForInfluencer).
		Scan(&payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return payment, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE campaign_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, payment *models.Payment) error {
	query :=
		`UPDATE payments
		 SET received_from_client = $2, receivable_from_client = $3, receivable_due_date = $4,
		     payable_to_influencer = $5, paid_to_influencer = $6, paid_due_date = $7,
		     status_for_client = $8, status_for_influencer = $9, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		payment.ID, payment.ReceivedFromClient, payment.ReceivableFromClient,
		payment.ReceivableDueDate, payment.PayableToInfluencer, payment.PaidToInfluencer,
		payment.PaidDueDate, payment.StatusForClient, payment.StatusForInfluencer)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM payments WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}

	return nil
}
