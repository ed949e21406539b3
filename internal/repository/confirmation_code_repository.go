package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/membership-service/internal/domain"
)

// ConfirmationCodeRepository manages the per-member active confirmation code.
type ConfirmationCodeRepository interface {
	// Replace deletes any prior code for the member and stores the new one
	// as a single transaction, preserving the one-active-code invariant.
	Replace(ctx context.Context, code *domain.ConfirmationCode) error
	// GetActive looks up the code matching both member identity and value
	// exactly. Returns pgx.ErrNoRows when nothing matches.
	GetActive(ctx context.Context, memberID, code string) (*domain.ConfirmationCode, error)
	DeleteForMember(ctx context.Context, memberID string) error
	// DeleteExpired removes codes whose expiry precedes the given instant.
	// Maintenance operation, never triggered by member-facing flows.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type confirmationCodeRepository struct {
	pool *pgxpool.Pool
}

// NewConfirmationCodeRepository constructs a Postgres-backed repository.
func NewConfirmationCodeRepository(pool *pgxpool.Pool) ConfirmationCodeRepository {
	return &confirmationCodeRepository{pool: pool}
}

func (r *confirmationCodeRepository) Replace(ctx context.Context, code *domain.ConfirmationCode) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM confirmation_codes WHERE member_id=$1`, code.MemberID); err != nil {
		return err
	}

	const insert = `
        INSERT INTO confirmation_codes (member_id, code, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		code.MemberID,
		code.Code,
		code.ExpiresAt,
	).Scan(&code.ID, &code.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *confirmationCodeRepository) GetActive(ctx context.Context, memberID, codeStr string) (*domain.ConfirmationCode, error) {
	const query = `
        SELECT id, member_id, code, expires_at, created_at
        FROM confirmation_codes WHERE member_id=$1 AND code=$2`
	var code domain.ConfirmationCode
	if err := r.pool.QueryRow(ctx, query, memberID, codeStr).Scan(
		&code.ID,
		&code.MemberID,
		&code.Code,
		&code.ExpiresAt,
		&code.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *confirmationCodeRepository) DeleteForMember(ctx context.Context, memberID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM confirmation_codes WHERE member_id=$1`, memberID)
	return err
}

func (r *confirmationCodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM confirmation_codes WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
