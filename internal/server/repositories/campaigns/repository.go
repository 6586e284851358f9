package campaigns

import (
	"context"

	"github.com/kingfluencer/backend/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id string) error
}
