package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/logging"
	"github.com/kingfluencer/backend/internal/server/config"
	"github.com/kingfluencer/backend/internal/server/models"
	"github.com/kingfluencer/backend/internal/server/repositories/repomanager"
)

// CampaignService is thin on purpose: the backend persists what the
// operator sent and enforces only referential sanity.
type CampaignService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	logger      logging.Logger
}

func NewCampaignService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *CampaignService {
	return &CampaignService{
		db:          db,
		repomanager: m,
		config:      cfg,
		logger:      logger.With("service", "campaigns"),
	}
}

func (s *CampaignService) dbCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.DBTimeout)
}

func (s *CampaignService) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	userRepo := s.repomanager.Users(s.db)
	client, err := userRepo.GetByID(dctx, campaign.ClientID)
	if err != nil {
		return nil, err
	}
	if client.Role != models.RoleClient {
		return nil, fmt.Errorf("%w: %s is not a client", common.ErrValidation, campaign.ClientID)
	}
	influencer, err := userRepo.GetByID(dctx, campaign.InfluencerID)
	if err != nil {
		return nil, err
	}
	if influencer.Role != models.RoleInfluencer {
		return nil, fmt.Errorf("%w: %s is not an influencer", common.ErrValidation, campaign.InfluencerID)
	}

	campaign.ID = uuid.NewString()
	created, err := s.repomanager.Campaigns(s.db).Create(dctx, campaign)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "campaign created", "campaign_id", created.ID)
	return created, nil
}

func (s *CampaignService) Get(ctx context.Context, id string) (*models.Campaign, error) {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()
	return s.repomanager.Campaigns(s.db).GetByID(dctx, id)
}

func (s *CampaignService) List(ctx context.Context, userID string, limit, offset int) ([]*models.Campaign, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	dctx, cancel := s.dbCtx(ctx)
	defer cancel()
	return s.repomanager.Campaigns(s.db).List(dctx, userID, limit, offset)
}

func (s *CampaignService) Update(ctx context.Context, campaign *models.Campaign) error {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()
	return s.repomanager.Campaigns(s.db).Update(dctx, campaign)
}

func (s *CampaignService) Delete(ctx context.Context, id string) error {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	if err := s.repomanager.Campaigns(s.db).Delete(dctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "campaign deleted", "campaign_id", id)
	return nil
}

// PaymentService mirrors CampaignService: persist what was sent.
type PaymentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	logger      logging.Logger
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *PaymentService {
	return &PaymentService{
		db:          db,
		repomanager: m,
		config:      cfg,
		logger:      logger.With("service", "payments"),
	}
}

func (s *PaymentService) dbCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.DBTimeout)
}

func (s *PaymentService) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	if _, err := s.repomanager.Campaigns(s.db).GetByID(dctx, payment.CampaignID); err != nil {
		return nil, err
	}

	payment.ID = uuid.NewString()
	if payment.StatusForClient == "" {
		payment.StatusForClient = "pending"
	}
	if payment.StatusForInfluencer == "" {
		payment.StatusForInfluencer = "pending"
	}

	created, err := s.repomanager.Payments(s.db).Create(dctx, payment)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "payment created", "payment_id", created.ID)
	return created, nil
}

func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()
	return s.repomanager.Payments(s.db).GetByID(dctx, id)
}

func (s *PaymentService) ListByCampaign(ctx context.Context, campaignID string) ([]*models.Payment, error) {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()
	return s.repomanager.Payments(s.db).ListByCampaign(dctx, campaignID)
}

func (s *PaymentService) Update(ctx context.Context, payment *models.Payment) error {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()
	return s.repomanager.Payments(s.db).Update(dctx, payment)
}

func (s *PaymentService) Delete(ctx context.Context, id string) error {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()
	return s.repomanager.Payments(s.db).Delete(dctx, id)
}
