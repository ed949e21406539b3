package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/membership-service/internal/domain"
)

// Sentinel errors for the atomic confirm unit of work.
var (
	// ErrAlreadyConfirmed means the member row was not in the unconfirmed
	// state when the confirm transaction ran.
	ErrAlreadyConfirmed = errors.New("member already confirmed")
	// ErrCodeConsumed means the confirmation code row was gone by the time
	// the confirm transaction tried to consume it.
	ErrCodeConsumed = errors.New("confirmation code already consumed")
	// ErrDuplicateEmail reports an email uniqueness violation on create.
	ErrDuplicateEmail = errors.New("email already registered")
)

// MemberRepository defines persistence access for members.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	Update(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]domain.Member, error)
	Delete(ctx context.Context, id string) error

	// ConfirmMember flips the member to confirmed and consumes the code in a
	// single transaction. Exactly one of two concurrent calls for the same
	// (member, code) can succeed; the loser gets ErrAlreadyConfirmed or
	// ErrCodeConsumed.
	ConfirmMember(ctx context.Context, memberID, codeID string, at time.Time) error
}

type memberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository returns a Postgres-backed implementation.
func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &memberRepository{pool: pool}
}

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	const query = `
        INSERT INTO members (email, first_name, last_name, address, role, confirmed, password_set)
        VALUES ($1, $2, $3, $4, $5, false, false)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		member.Email,
		member.FirstName,
		member.LastName,
		member.Address,
		member.Role,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

func (r *memberRepository) Update(ctx context.Context, member *domain.Member) error {
	const query = `
        UPDATE members
        SET email=$1, first_name=$2, last_name=$3, address=$4, role=$5,
            confirmed=$6, confirmed_at=$7, password_set=$8, password_hash=$9, updated_at=NOW()
        WHERE id=$10`

	cmd, err := r.pool.Exec(ctx, query,
		member.Email,
		member.FirstName,
		member.LastName,
		member.Address,
		member.Role,
		member.Confirmed,
		member.ConfirmedAt,
		member.PasswordSet,
		member.PasswordHash,
		member.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	const query = memberSelect + ` WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	const query = memberSelect + ` WHERE email=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *memberRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM members WHERE email=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *memberRepository) List(ctx context.Context, limit, offset int) ([]domain.Member, error) {
	const query = memberSelect + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]domain.Member, 0, limit)
	for rows.Next() {
		var m domain.Member
		if err := scanMember(rows, &m); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *memberRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *memberRepository) ConfirmMember(ctx context.Context, memberID, codeID string, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, `
        UPDATE members SET confirmed=true, confirmed_at=$2, updated_at=NOW()
        WHERE id=$1 AND confirmed=false`, memberID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyConfirmed
	}

	cmd, err = tx.Exec(ctx, `DELETE FROM confirmation_codes WHERE id=$1`, codeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCodeConsumed
	}

	return tx.Commit(ctx)
}

const memberSelect = `
        SELECT id, email, first_name, last_name, address, role,
               confirmed, confirmed_at, password_set, COALESCE(password_hash, ''), created_at, updated_at
        FROM members`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner, m *domain.Member) error {
	return row.Scan(
		&m.ID,
		&m.Email,
		&m.FirstName,
		&m.LastName,
		&m.Address,
		&m.Role,
		&m.Confirmed,
		&m.ConfirmedAt,
		&m.PasswordSet,
		&m.PasswordHash,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}

func (r *memberRepository) scanOne(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	if err := scanMember(row, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
