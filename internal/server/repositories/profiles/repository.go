package profiles

import (
	"context"

	"github.com/kingfluencer/backend/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, profile *models.Profile) error
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}
