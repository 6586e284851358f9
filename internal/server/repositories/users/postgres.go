package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/dbx"
	"github.com/kingfluencer/backend/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, name, email, phone_number, role, created_by_admin, verified,
	 otp_verified_at, email_change_phase, email_change_old_verified_at, pending_email,
	 profile_pictures, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	var pictures []byte
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PhoneNumber, &user.Role,
		&user.CreatedByAdmin, &user.Verified, &user.OTPVerifiedAt, &user.EmailChangePhase,
		&user.EmailChangeOldVerifiedAt, &user.PendingEmail, &pictures,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(pictures) > 0 {
		if err := json.Unmarshal(pictures, &user.ProfilePictures); err != nil {
			return nil, fmt.Errorf("decoding profile pictures: %w", err)
		}
	}
	return user, nil
}

func picturesJSON(pictures []string) ([]byte, error) {
	if pictures == nil {
		pictures = []string{}
	}
	return json.Marshal(pictures)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, name, email, phone_number, role, created_by_admin, verified, profile_pictures)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at
		 `

	pictures, err := picturesJSON(user.ProfilePictures)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.PhoneNumber, user.Role,
		user.CreatedByAdmin, user.Verified, pictures).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.EmailChangePhase = models.PhaseNone
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) List(ctx context.Context, role models.Role, search string, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []any{}

	if role != "" {
		args = append(args, role)
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", len(args), len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET name = $2, phone_number = $3, profile_pictures = $4, updated_at = now()
		 WHERE id = $1
		 `

	pictures, err := picturesJSON(user.ProfilePictures)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.PhoneNumber, pictures)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}

	return nil
}

// EmailInUse reports whether another account owns the address. An empty
// excludeID means no exclusion; the parameter is compared as text because
// an empty string is not a valid uuid value.
func (r *PostgresRepository) EmailInUse(ctx context.Context, email, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND ($2 = '' OR id::text <> $2))`

	var inUse bool
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&inUse); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return inUse, nil
}

func (r *PostgresRepository) PhoneInUse(ctx context.Context, phone, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE phone_number = $1 AND ($2 = '' OR id::text <> $2))`

	var inUse bool
	if err := r.db.QueryRowContext(ctx, query, phone, excludeID).Scan(&inUse); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return inUse, nil
}

func (r *PostgresRepository) SetVerified(ctx context.Context, id string, verified bool, at *time.Time) error {
	query :=
		`UPDATE users
		 SET verified = $2, otp_verified_at = $3, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, verified, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) SetEmailChangeState(ctx context.Context, id string, phase models.EmailChangePhase, oldVerifiedAt *time.Time, pendingEmail *string) error {
	query :=
		`UPDATE users
		 SET email_change_phase = $2, email_change_old_verified_at = $3, pending_email = $4, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, phase, oldVerifiedAt, pendingEmail)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}

	return nil
}

// ApplyEmailChange swaps in the new address and resets the change state in
// one statement so a crash cannot leave the two halves apart.
func (r *PostgresRepository) ApplyEmailChange(ctx context.Context, id, newEmail string) error {
	query :=
		`UPDATE users
		 SET email = $2, email_change_phase = 'none', email_change_old_verified_at = NULL,
		     pending_email = NULL, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, newEmail)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) Counts(ctx context.Context) (*Stats, error) {
	query :=
		`SELECT
		   COUNT(*) FILTER (WHERE role = 'client'),
		   COUNT(*) FILTER (WHERE role = 'influencer'),
		   COUNT(*) FILTER (WHERE verified)
		 FROM users
		 `

	stats := &Stats{}
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.Clients, &stats.Influencers, &stats.Verified)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return stats, nil
}
