package users

import (
	"context"
	"time"

	"github.com/kingfluencer/backend/internal/server/models"
)

// Stats are the aggregate account counters shown on the operator dashboard.
type Stats struct {
	Clients     int64
	Influencers int64
	Verified    int64
}

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, role models.Role, search string, limit, offset int) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	EmailInUse(ctx context.Context, email, excludeID string) (bool, error)
	PhoneInUse(ctx context.Context, phone, excludeID string) (bool, error)

	SetVerified(ctx context.Context, id string, verified bool, at *time.Time) error
	SetEmailChangeState(ctx context.Context, id string, phase models.EmailChangePhase, oldVerifiedAt *time.Time, pendingEmail *string) error
	ApplyEmailChange(ctx context.Context, id, newEmail string) error

	Counts(ctx context.Context) (*Stats, error)
}
