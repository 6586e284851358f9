package challenges

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/dbx"
	"github.com/kingfluencer/backend/internal/server/otp"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID string, purpose otp.Purpose, ch *otp.Challenge) error {
	query :=
		`INSERT INTO otp_challenges (user_id, purpose, code_hash, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, purpose)
		 DO UPDATE SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, created_at = now()
		 `

	_, err := r.db.ExecContext(ctx, query, userID, string(purpose), ch.CodeHash, ch.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string, purpose otp.Purpose) (*otp.Challenge, error) {
	query :=
		`SELECT code_hash, expires_at FROM otp_challenges
		 WHERE user_id = $1 AND purpose = $2
		 `

	ch := &otp.Challenge{}
	err := r.db.QueryRowContext(ctx, query, userID, string(purpose)).Scan(&ch.CodeHash, &ch.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ch, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string, purpose otp.Purpose) error {
	query := `DELETE FROM otp_challenges WHERE user_id = $1 AND purpose = $2`

	_, err := r.db.ExecContext(ctx, query, userID, string(purpose))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, userID string, purpose otp.Purpose, codeHash string) (bool, error) {
	query := `DELETE FROM otp_challenges WHERE user_id = $1 AND purpose = $2 AND code_hash = $3`

	res, err := r.db.ExecContext(ctx, query, userID, string(purpose), codeHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return n > 0, nil
}
