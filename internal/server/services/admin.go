package services

import (
	"context"
	"database/sql"

	"github.com/kingfluencer/backend/internal/logging"
	"github.com/kingfluencer/backend/internal/server/config"
	"github.com/kingfluencer/backend/internal/server/repositories/repomanager"
	"github.com/kingfluencer/backend/internal/server/tokens"
)

// DashboardStats is what GET /api/admin/stats returns.
type DashboardStats struct {
	Clients        int64 `json:"clients"`
	Influencers    int64 `json:"influencers"`
	Verified       int64 `json:"verified"`
	ActiveSessions int   `json:"active_sessions"`
}

// AdminService serves the operator dashboard.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	registry    *tokens.Registry
	config      *config.Config
	logger      logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, registry *tokens.Registry,
	cfg *config.Config, logger logging.Logger) *AdminService {
	return &AdminService{
		db:          db,
		repomanager: m,
		registry:    registry,
		config:      cfg,
		logger:      logger.With("service", "admin"),
	}
}

func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	dctx, cancel := context.WithTimeout(ctx, s.config.DBTimeout)
	defer cancel()

	counts, err := s.repomanager.Users(s.db).Counts(dctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Clients:        counts.Clients,
		Influencers:    counts.Influencers,
		Verified:       counts.Verified,
		ActiveSessions: s.registry.Count(),
	}, nil
}
