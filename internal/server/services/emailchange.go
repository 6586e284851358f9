package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/dbx"
	"github.com/kingfluencer/backend/internal/logging"
	"github.com/kingfluencer/backend/internal/server/config"
	"github.com/kingfluencer/backend/internal/server/mailer"
	"github.com/kingfluencer/backend/internal/server/models"
	"github.com/kingfluencer/backend/internal/server/otp"
	"github.com/kingfluencer/backend/internal/server/repositories/repomanager"
)

// EmailChangeService runs the two-step address change: prove ownership of
// the current address first, then of the new one. The ordering is enforced
// here, on the user row, never in the client.
type EmailChangeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	engine      *otp.Engine
	mailer      mailer.Mailer
	config      *config.Config
	logger      logging.Logger
}

func NewEmailChangeService(db *sql.DB, m repomanager.RepositoryManager, engine *otp.Engine,
	mail mailer.Mailer, cfg *config.Config, logger logging.Logger) *EmailChangeService {
	return &EmailChangeService{
		db:          db,
		repomanager: m,
		engine:      engine,
		mailer:      mail,
		config:      cfg,
		logger:      logger.With("service", "emailchange"),
	}
}

func (s *EmailChangeService) dbCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.DBTimeout)
}

// RequestOldVerification sends a code to the account's current address.
// Starting over is always allowed; any previous progress is discarded.
func (s *EmailChangeService) RequestOldVerification(ctx context.Context, user *models.User) error {
	code, challenge, err := s.engine.Issue()
	if err != nil {
		return common.ErrInternal
	}

	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	err = dbx.WithTx(dctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetEmailChangeState(ctx, user.ID, models.PhaseNone, nil, nil); err != nil {
			return err
		}
		if err := s.repomanager.Challenges(tx).Delete(ctx, user.ID, otp.PurposeNewEmail); err != nil {
			return err
		}
		return s.repomanager.Challenges(tx).Upsert(ctx, user.ID, otp.PurposeOldEmail, &challenge)
	})
	if err != nil {
		return err
	}

	if err := s.sendOTP(ctx, user.Email, code); err != nil {
		if _, delErr := s.repomanager.Challenges(s.db).Consume(dctx, user.ID, otp.PurposeOldEmail, challenge.CodeHash); delErr != nil {
			s.logger.Error(ctx, "rolling back old-email challenge", "error", delErr)
		}
		return err
	}

	s.logger.Info(ctx, "old-email code issued", "user_id", user.ID)
	return nil
}

// ConfirmOldVerification checks the code sent to the current address and,
// on success, advances the phase to old_verified.
func (s *EmailChangeService) ConfirmOldVerification(ctx context.Context, user *models.User, candidate string) error {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	challenge, err := s.repomanager.Challenges(s.db).Get(dctx, user.ID, otp.PurposeOldEmail)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNoChallenge
		}
		return err
	}

	if err := s.engine.Verify(challenge, candidate); err != nil {
		if errors.Is(err, common.ErrExpired) {
			if _, delErr := s.repomanager.Challenges(s.db).Consume(dctx, user.ID, otp.PurposeOldEmail, challenge.CodeHash); delErr != nil {
				s.logger.Error(ctx, "dropping expired old-email challenge", "error", delErr)
			}
		}
		return err
	}

	now := time.Now()
	err = dbx.WithTx(dctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		consumed, err := s.repomanager.Challenges(tx).Consume(ctx, user.ID, otp.PurposeOldEmail, challenge.CodeHash)
		if err != nil {
			return err
		}
		if !consumed {
			return common.ErrNoChallenge
		}
		return s.repomanager.Users(tx).SetEmailChangeState(ctx, user.ID, models.PhaseOldVerified, &now, nil)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "old address verified", "user_id", user.ID)
	return nil
}

// RequestNewVerification sends a code to the proposed address. Requires the
// old address to have been verified first, and refuses addresses that are
// taken or identical to the current one.
func (s *EmailChangeService) RequestNewVerification(ctx context.Context, user *models.User, newEmail string) error {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	if newEmail == "" || !strings.Contains(newEmail, "@") {
		return fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	if user.EmailChangePhase != models.PhaseOldVerified && user.EmailChangePhase != models.PhaseNewChallenge {
		return common.ErrOldNotVerified
	}
	if newEmail == user.Email {
		return fmt.Errorf("%w: new address matches the current one", common.ErrValidation)
	}

	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	inUse, err := s.repomanager.Users(s.db).EmailInUse(dctx, newEmail, user.ID)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: address already in use", common.ErrConflict)
	}

	code, challenge, err := s.engine.Issue()
	if err != nil {
		return common.ErrInternal
	}

	err = dbx.WithTx(dctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Challenges(tx).Upsert(ctx, user.ID, otp.PurposeNewEmail, &challenge); err != nil {
			return err
		}
		return s.repomanager.Users(tx).SetEmailChangeState(ctx, user.ID,
			models.PhaseNewChallenge, user.EmailChangeOldVerifiedAt, &newEmail)
	})
	if err != nil {
		return err
	}

	if err := s.sendOTP(ctx, newEmail, code); err != nil {
		// back to old_verified so the user can retry with another address
		rbErr := dbx.WithTx(dctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if _, err := s.repomanager.Challenges(tx).Consume(ctx, user.ID, otp.PurposeNewEmail, challenge.CodeHash); err != nil {
				return err
			}
			return s.repomanager.Users(tx).SetEmailChangeState(ctx, user.ID,
				models.PhaseOldVerified, user.EmailChangeOldVerifiedAt, nil)
		})
		if rbErr != nil {
			s.logger.Error(ctx, "rolling back new-email challenge", "error", rbErr)
		}
		return err
	}

	s.logger.Info(ctx, "new-email code issued", "user_id", user.ID)
	return nil
}

// ConfirmNewVerification checks the code sent to the pending address and
// commits the swap. Address availability is re-checked here: it may have
// been taken since the code went out.
func (s *EmailChangeService) ConfirmNewVerification(ctx context.Context, user *models.User, candidate string) error {
	if user.EmailChangePhase != models.PhaseNewChallenge || user.PendingEmail == nil {
		if user.EmailChangePhase == models.PhaseNone {
			return common.ErrOldNotVerified
		}
		return common.ErrNoChallenge
	}
	pending := *user.PendingEmail

	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	challenge, err := s.repomanager.Challenges(s.db).Get(dctx, user.ID, otp.PurposeNewEmail)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNoChallenge
		}
		return err
	}

	if err := s.engine.Verify(challenge, candidate); err != nil {
		if errors.Is(err, common.ErrExpired) {
			// only expiry forces a restart, and only from the new-address step
			rbErr := dbx.WithTx(dctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
				if _, err := s.repomanager.Challenges(tx).Consume(ctx, user.ID, otp.PurposeNewEmail, challenge.CodeHash); err != nil {
					return err
				}
				return s.repomanager.Users(tx).SetEmailChangeState(ctx, user.ID,
					models.PhaseOldVerified, user.EmailChangeOldVerifiedAt, nil)
			})
			if rbErr != nil {
				s.logger.Error(ctx, "resetting expired new-email challenge", "error", rbErr)
			}
		}
		return err
	}

	inUse, err := s.repomanager.Users(s.db).EmailInUse(dctx, pending, user.ID)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: address already in use", common.ErrConflict)
	}

	err = dbx.WithTx(dctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		consumed, err := s.repomanager.Challenges(tx).Consume(ctx, user.ID, otp.PurposeNewEmail, challenge.CodeHash)
		if err != nil {
			return err
		}
		if !consumed {
			return common.ErrNoChallenge
		}
		return s.repomanager.Users(tx).ApplyEmailChange(ctx, user.ID, pending)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "email address changed", "user_id", user.ID)
	return nil
}

func (s *EmailChangeService) sendOTP(ctx context.Context, to, code string) error {
	minutes := int(s.engine.Validity().Minutes())
	body, err := mailer.RenderOTP(code, minutes)
	if err != nil {
		return common.ErrInternal
	}
	if err := s.mailer.Send(ctx, to, "Confirm your email address", body); err != nil {
		s.logger.Error(ctx, "sending verification code", "error", err)
		return err
	}
	return nil
}
