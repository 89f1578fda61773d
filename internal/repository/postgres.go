package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
)

// Compile-time interface assertions.
var (
	_ UserRepository  = (*PostgresUserRepo)(nil)
	_ TokenRepository = (*PostgresTokenRepo)(nil)
)

// PostgresUserRepo implements UserRepository.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

const selectUserSQL = `SELECT id, email, password_hash, name, role, created_at, updated_at FROM users`

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserSQL+` WHERE email = $1`, email)
	return scanUser(row)
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserSQL+` WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `INSERT INTO users (id, email, password_hash, name, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, email, password_hash, name, role, created_at, updated_at`
	row := r.db.QueryRow(ctx, q, user.ID, user.Email, user.PasswordHash, user.Name, user.Role)
	created, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// PostgresTokenRepo implements TokenRepository.
type PostgresTokenRepo struct {
	db *pgxpool.Pool
}

func NewPostgresTokenRepo(pool *pgxpool.Pool) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: pool}
}

const insertTokenSQL = `INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_ip, user_agent)
VALUES ($1, $2, $3, $4, $5, $6)`

func (r *PostgresTokenRepo) Save(ctx context.Context, token domain.RefreshToken) error {
	_, err := r.db.Exec(ctx, insertTokenSQL,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedIP, token.UserAgent)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (r *PostgresTokenRepo) GetByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	const q = `SELECT id, user_id, token_hash, expires_at, created_ip, user_agent, created_at, revoked_at, replaced_by
FROM refresh_tokens WHERE token_hash = $1`
	var t domain.RefreshToken
	err := r.db.QueryRow(ctx, q, hash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedIP, &t.UserAgent,
		&t.CreatedAt, &t.RevokedAt, &t.ReplacedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("get refresh token: %w", err)
	}
	return t, nil
}

// Rotate revokes the old record, links it to its successor, and inserts the
// replacement inside one transaction. The WHERE guard is the concurrency
// control: a racing rotation of the same token finds zero rows updated and
// the whole transaction rolls back with ErrTokenConflict.
func (r *PostgresTokenRepo) Rotate(ctx context.Context, oldHash string, next domain.RefreshToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("rotate begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const revokeSQL = `UPDATE refresh_tokens
SET revoked_at = now(), replaced_by = $1
WHERE token_hash = $2 AND revoked_at IS NULL AND expires_at > now()`
	tag, err := tx.Exec(ctx, revokeSQL, next.TokenHash, oldHash)
	if err != nil {
		return fmt.Errorf("rotate revoke: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenConflict
	}

	if _, err := tx.Exec(ctx, insertTokenSQL,
		next.ID, next.UserID, next.TokenHash, next.ExpiresAt, next.CreatedIP, next.UserAgent); err != nil {
		return fmt.Errorf("rotate insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("rotate commit: %w", err)
	}
	return nil
}

func (r *PostgresTokenRepo) Revoke(ctx context.Context, hash string) (bool, error) {
	const q = `UPDATE refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL`
	tag, err := r.db.Exec(ctx, q, hash)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
