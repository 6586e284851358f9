package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/dbx"
	"github.com/kingfluencer/backend/internal/logging"
	"github.com/kingfluencer/backend/internal/server/config"
	"github.com/kingfluencer/backend/internal/server/mailer"
	"github.com/kingfluencer/backend/internal/server/models"
	"github.com/kingfluencer/backend/internal/server/repositories/repomanager"
)

// UserService implements operator-side account management plus the
// self-service profile update.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      mailer.Mailer
	config      *config.Config
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, mail mailer.Mailer,
	cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		mailer:      mail,
		config:      cfg,
		logger:      logger.With("service", "users"),
	}
}

func (s *UserService) dbCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.DBTimeout)
}

// CreateUserInput carries the fields an operator supplies when opening an
// account.
type CreateUserInput struct {
	Name        string
	Email       string
	PhoneNumber string
	Role        models.Role
}

// UserWithProfile pairs the identity record with its role-specific profile.
type UserWithProfile struct {
	User    *models.User
	Profile *models.Profile
}

// Create opens an account with an empty profile. The welcome email is
// best-effort: a delivery failure is logged, never surfaced, because the
// account already exists.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrValidation, input.Role)
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	phone := strings.TrimSpace(input.PhoneNumber)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone number is required", common.ErrValidation)
	}

	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	userRepo := s.repomanager.Users(s.db)
	if inUse, err := userRepo.EmailInUse(dctx, email, ""); err != nil {
		return nil, err
	} else if inUse {
		return nil, fmt.Errorf("%w: email already in use", common.ErrConflict)
	}
	if inUse, err := userRepo.PhoneInUse(dctx, phone, ""); err != nil {
		return nil, err
	} else if inUse {
		return nil, fmt.Errorf("%w: phone number already in use", common.ErrConflict)
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          email,
		PhoneNumber:    phone,
		Role:           input.Role,
		CreatedByAdmin: true,
	}

	err := dbx.WithTx(dctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.repomanager.Profiles(tx).Create(ctx, &models.Profile{UserID: user.ID})
	})
	if err != nil {
		return nil, err
	}

	s.sendWelcome(ctx, user)

	s.logger.Info(ctx, "user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// GetByEmail looks up an account by address. Used by the identity guard.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	return s.repomanager.Users(s.db).GetByEmail(dctx, strings.ToLower(strings.TrimSpace(email)))
}

// Get returns the user together with its profile.
func (s *UserService) Get(ctx context.Context, id string) (*UserWithProfile, error) {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetByID(dctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := s.repomanager.Profiles(s.db).Get(dctx, id)
	if err != nil {
		return nil, err
	}
	return &UserWithProfile{User: user, Profile: profile}, nil
}

// List returns a page of users, optionally filtered by role and a
// name/email search term.
func (s *UserService) List(ctx context.Context, role models.Role, search string, limit, offset int) ([]*models.User, error) {
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrValidation, role)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	return s.repomanager.Users(s.db).List(dctx, role, search, limit, offset)
}

// UpdateInput carries the mutable account fields. Nil means "leave as is".
type UpdateInput struct {
	Name            *string
	PhoneNumber     *string
	ProfilePictures []string
	Profile         *models.Profile
}

// Update modifies the account and, if given, its profile. Phone uniqueness
// is re-checked; email changes go through the email-change flow only.
func (s *UserService) Update(ctx context.Context, id string, input UpdateInput) (*models.User, error) {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	userRepo := s.repomanager.Users(s.db)
	user, err := userRepo.GetByID(dctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
		}
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		if phone == "" {
			return nil, fmt.Errorf("%w: phone number is required", common.ErrValidation)
		}
		if phone != user.PhoneNumber {
			if inUse, err := userRepo.PhoneInUse(dctx, phone, user.ID); err != nil {
				return nil, err
			} else if inUse {
				return nil, fmt.Errorf("%w: phone number already in use", common.ErrConflict)
			}
		}
		user.PhoneNumber = phone
	}
	if input.ProfilePictures != nil {
		user.ProfilePictures = input.ProfilePictures
	}

	err = dbx.WithTx(dctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Update(ctx, user); err != nil {
			return err
		}
		if input.Profile != nil {
			input.Profile.UserID = user.ID
			return s.repomanager.Profiles(tx).Update(ctx, input.Profile)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user updated", "user_id", user.ID)
	return user, nil
}

// UpdateStatus maps the operator-facing status onto the verified flag:
// "active" marks the account verified, "completed" clears it.
func (s *UserService) UpdateStatus(ctx context.Context, id, status string) error {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	switch status {
	case "active":
		now := time.Now()
		return s.repomanager.Users(s.db).SetVerified(dctx, id, true, &now)
	case "completed":
		return s.repomanager.Users(s.db).SetVerified(dctx, id, false, nil)
	default:
		return fmt.Errorf("%w: unknown status %q", common.ErrValidation, status)
	}
}

// Delete removes the account. Profile, challenges, campaigns, and payments
// go with it through the schema's cascades.
func (s *UserService) Delete(ctx context.Context, id string) error {
	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	if err := s.repomanager.Users(s.db).Delete(dctx, id); err != nil {
		return err
	}

	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// SendCustomEmail lets the operator mail an account directly. Unlike the
// welcome mail this is an explicit operation, so failures surface.
func (s *UserService) SendCustomEmail(ctx context.Context, id, subject, htmlBody string) error {
	if strings.TrimSpace(subject) == "" {
		return fmt.Errorf("%w: subject is required", common.ErrValidation)
	}

	dctx, cancel := s.dbCtx(ctx)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetByID(dctx, id)
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, user.Email, subject, htmlBody)
}

func (s *UserService) sendWelcome(ctx context.Context, user *models.User) {
	body, err := mailer.RenderWelcome(user.Name, string(user.Role))
	if err != nil {
		s.logger.Warn(ctx, "rendering welcome email", "error", err)
		return
	}
	if err := s.mailer.Send(ctx, user.Email, "Welcome to Kingfluencer", body); err != nil {
		s.logger.Warn(ctx, "sending welcome email", "user_id", user.ID, "error", err)
	}
}
