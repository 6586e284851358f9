// Package services contains server-side business logic. This file implements
// AuthService, which runs the passwordless login flows: one-time codes over
// email for users, a single challenge slot plus a durable session token
// registry for the operator.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/dbx"
	"github.com/kingfluencer/backend/internal/logging"
	"github.com/kingfluencer/backend/internal/server/config"
	"github.com/kingfluencer/backend/internal/server/mailer"
	"github.com/kingfluencer/backend/internal/server/models"
	"github.com/kingfluencer/backend/internal/server/otp"
	"github.com/kingfluencer/backend/internal/server/repositories/repomanager"
	"github.com/kingfluencer/backend/internal/server/tokens"
)

// AuthService handles user and admin login.
//
// User challenges live in the otp_challenges table, one slot per purpose.
// The admin challenge is a single in-memory slot: there is exactly one
// operator identity and one server process.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	engine      *otp.Engine
	mailer      mailer.Mailer
	registry    *tokens.Registry
	config      *config.Config
	logger      logging.Logger

	adminMu        sync.Mutex
	adminChallenge *otp.Challenge
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, engine *otp.Engine,
	mail mailer.Mailer, registry *tokens.Registry, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		engine:      engine,
		mailer:      mail,
		registry:    registry,
		config:      cfg,
		logger:      logger.With("service", "auth"),
	}
}

func (s *AuthService) dbCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.DBTimeout)
}

// RequestLoginOTP issues a login code for the given address and emails it.
// If the email cannot be delivered the challenge is rolled back, so a code
// the user never saw cannot occupy the slot.
func (s *AuthService) RequestLoginOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	}

	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetByEmail(dctx, email)
	if err != nil {
		return err
	}

	code, challenge, err := s.engine.Issue()
	if err != nil {
		return common.ErrInternal
	}

	challengeRepo := s.repomanager.Challenges(s.db)
	if err := challengeRepo.Upsert(dctx, user.ID, otp.PurposeLogin, &challenge); err != nil {
		return err
	}

	if err := s.sendOTP(ctx, user.Email, code); err != nil {
		// conditional on the hash so a concurrently reissued code survives
		if _, delErr := challengeRepo.Consume(dctx, user.ID, otp.PurposeLogin, challenge.CodeHash); delErr != nil {
			s.logger.Error(ctx, "rolling back login challenge", "error", delErr)
		}
		return err
	}

	s.logger.Info(ctx, "login code issued", "user_id", user.ID)
	return nil
}

// VerifyLoginOTP checks the candidate code against the outstanding login
// challenge. On success the slot is cleared and the account is marked
// verified in the same transaction.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, email, candidate string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetByEmail(dctx, email)
	if err != nil {
		return nil, err
	}

	challenge, err := s.repomanager.Challenges(s.db).Get(dctx, user.ID, otp.PurposeLogin)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNoChallenge
		}
		return nil, err
	}

	if err := s.engine.Verify(challenge, candidate); err != nil {
		if errors.Is(err, common.ErrExpired) {
			// a dead code has no second chance, drop the slot
			if _, delErr := s.repomanager.Challenges(s.db).Consume(dctx, user.ID, otp.PurposeLogin, challenge.CodeHash); delErr != nil {
				s.logger.Error(ctx, "dropping expired login challenge", "error", delErr)
			}
		}
		return nil, err
	}

	now := time.Now()
	err = dbx.WithTx(dctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// the conditional delete decides the winner when two requests race
		// on the same code; whoever consumes the row succeeds, once
		consumed, err := s.repomanager.Challenges(tx).Consume(ctx, user.ID, otp.PurposeLogin, challenge.CodeHash)
		if err != nil {
			return err
		}
		if !consumed {
			return common.ErrNoChallenge
		}
		return s.repomanager.Users(tx).SetVerified(ctx, user.ID, true, &now)
	})
	if err != nil {
		return nil, err
	}

	user.Verified = true
	user.OTPVerifiedAt = &now
	s.logger.Info(ctx, "login code verified", "user_id", user.ID)
	return user, nil
}

// RequestAdminOTP issues a code for the operator. Only the configured admin
// address is ever accepted or mailed.
func (s *AuthService) RequestAdminOTP(ctx context.Context, email string) error {
	if !strings.EqualFold(strings.TrimSpace(email), s.config.AdminEmail) {
		return common.ErrForbidden
	}

	code, challenge, err := s.engine.Issue()
	if err != nil {
		return common.ErrInternal
	}

	if err := s.sendOTP(ctx, s.config.AdminEmail, code); err != nil {
		return err
	}

	s.adminMu.Lock()
	s.adminChallenge = &challenge
	s.adminMu.Unlock()

	s.logger.Info(ctx, "admin code issued")
	return nil
}

// VerifyAdminOTP checks the candidate against the admin slot and, on
// success, clears the slot and issues a session token.
func (s *AuthService) VerifyAdminOTP(ctx context.Context, email, candidate string) (string, error) {
	if !strings.EqualFold(strings.TrimSpace(email), s.config.AdminEmail) {
		return "", common.ErrForbidden
	}

	s.adminMu.Lock()
	challenge := s.adminChallenge
	err := s.engine.Verify(challenge, candidate)
	if err == nil || errors.Is(err, common.ErrExpired) {
		s.adminChallenge = nil
	}
	s.adminMu.Unlock()

	if err != nil {
		return "", err
	}

	token, err := s.registry.Issue(ctx)
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "admin session issued")
	return token, nil
}

// Logout revokes the presented admin session token. Unknown tokens are not
// an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	revoked, err := s.registry.Revoke(ctx, token)
	if err != nil {
		return err
	}
	if revoked {
		s.logger.Info(ctx, "admin session revoked")
	}
	return nil
}

func (s *AuthService) sendOTP(ctx context.Context, to, code string) error {
	minutes := int(s.engine.Validity().Minutes())
	body, err := mailer.RenderOTP(code, minutes)
	if err != nil {
		return common.ErrInternal
	}
	if err := s.mailer.Send(ctx, to, "Your verification code", body); err != nil {
		s.logger.Error(ctx, "sending verification code", "error", err)
		return err
	}
	return nil
}
