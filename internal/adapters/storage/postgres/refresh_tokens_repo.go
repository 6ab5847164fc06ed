package postgres

import (
	"context"
	"database/sql"
	"time"

	"pet-adoption-api/internal/domain/users"
)

type RefreshTokensRepo struct {
	db *sql.DB
}

func NewRefreshTokensRepo(db *sql.DB) *RefreshTokensRepo {
	return &RefreshTokensRepo{db: db}
}

func (r *RefreshTokensRepo) Create(ctx context.Context, t users.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (
			token_hash, user_id, expires_at, created_at, revoked_at
		) VALUES ($1,$2,$3,$4,$5)
	`,
		t.TokenHash,
		t.UserID,
		t.ExpiresAt,
		t.CreatedAt,
		t.RevokedAt,
	)
	return err
}

func (r *RefreshTokensRepo) GetByHash(ctx context.Context, hash string) (users.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT token_hash, user_id, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, hash)

	var t users.RefreshToken
	var revoked sql.NullTime
	if err := row.Scan(
		&t.TokenHash,
		&t.UserID,
		&t.ExpiresAt,
		&t.CreatedAt,
		&revoked,
	); err != nil {
		if err == sql.ErrNoRows {
			return users.RefreshToken{}, ErrNotFound
		}
		return users.RefreshToken{}, err
	}

	if revoked.Valid {
		at := revoked.Time
		t.RevokedAt = &at
	}
	return t, nil
}

// Revoke marca el token; no tocar revoked_at si ya estaba revocado.
// Hash desconocido no es error (logout idempotente).
func (r *RefreshTokensRepo) Revoke(ctx context.Context, hash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE token_hash = $1 AND revoked_at IS NULL
	`, hash, at)
	return err
}
