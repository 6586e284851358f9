// Package server initializes and runs the backend application. It wires
// configuration, database, mail transport, the token registry and the HTTP
// server, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kingfluencer/backend/internal/filex"
	"github.com/kingfluencer/backend/internal/logging"
	"github.com/kingfluencer/backend/internal/server/config"
	"github.com/kingfluencer/backend/internal/server/httpapi"
	"github.com/kingfluencer/backend/internal/server/mailer"
	"github.com/kingfluencer/backend/internal/server/otp"
	"github.com/kingfluencer/backend/internal/server/ratelimit"
	"github.com/kingfluencer/backend/internal/server/repositories/repomanager"
	"github.com/kingfluencer/backend/internal/server/services"
	"github.com/kingfluencer/backend/internal/server/tokens"
)

const tokenStoreFile = "admin_tokens.json"

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	manager  repomanager.RepositoryManager
	registry *tokens.Registry
	server   *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	if cfg.AuthBypass && cfg.IsProduction() {
		return nil, fmt.Errorf("auth bypass is not allowed in production")
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	dataDir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	ttl := cfg.SessionTTL
	if cfg.SessionExplicitOnly {
		ttl = 0
	}
	registry, err := tokens.NewRegistry(filepath.Join(dataDir, tokenStoreFile), ttl, logger)
	if err != nil {
		return nil, fmt.Errorf("token registry: %w", err)
	}

	manager := repomanager.NewPostgresRepositoryManager()
	engine := otp.NewEngine(cfg.OTPValidity)
	mail := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		Disabled: cfg.SMTPDisabled,
	}, logger)

	var limiter *ratelimit.Limiter
	if cfg.RateLimitMax > 0 {
		limiter = ratelimit.New(cfg.RateLimitWindow, cfg.RateLimitMax)
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Auth:        services.NewAuthService(db, manager, engine, mail, registry, cfg, logger),
		EmailChange: services.NewEmailChangeService(db, manager, engine, mail, cfg, logger),
		Users:       services.NewUserService(db, manager, mail, cfg, logger),
		Admin:       services.NewAdminService(db, manager, registry, cfg, logger),
		Campaigns:   services.NewCampaignService(db, manager, cfg, logger),
		Payments:    services.NewPaymentService(db, manager, cfg, logger),
		Uploads:     services.NewUploadService(cfg),
		Registry:    registry,
		Limiter:     limiter,
		Config:      cfg,
		Logger:      logger,
	})

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		manager:  manager,
		registry: registry,
		server:   srv,
	}, nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	app.logger.Info(ctx, "starting app", "addr", app.config.RunAddr, "environment", app.config.Environment)
	if app.config.AuthBypass {
		app.logger.Warn(ctx, "AUTH BYPASS ENABLED: operator endpoints are open to anyone")
	}

	migCtx, migCancel := context.WithTimeout(ctx, 30*time.Second)
	defer migCancel()
	if err := app.manager.RunMigrations(migCtx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	httpServer := &http.Server{
		Addr:    app.config.RunAddr,
		Handler: app.server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown error", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err)
	}

	return nil
}
