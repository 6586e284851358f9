package payments

import (
	"context"

	"github.com/kingfluencer/backend/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id string) error
}
