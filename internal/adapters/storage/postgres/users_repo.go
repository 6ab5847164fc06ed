package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"pet-adoption-api/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, email, password_hash, display_name,
			created_at, updated_at, disabled_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.DisplayName,
		u.CreatedAt,
		u.UpdatedAt,
		u.DisabledAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation (índice único sobre email)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", users.ErrEmailTaken, u.Email)
		}
		return err
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, ErrNotFound
	}
	return r.getBy(ctx, "id", id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return users.User{}, ErrNotFound
	}
	return r.getBy(ctx, "email", email)
}

func (r *UsersRepo) getBy(ctx context.Context, col, val string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, display_name,
		       created_at, updated_at, disabled_at
		FROM users
		WHERE `+col+` = $1
	`, val)

	var u users.User
	var disabled sql.NullTime
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.DisplayName,
		&u.CreatedAt,
		&u.UpdatedAt,
		&disabled,
	); err != nil {
		if err == sql.ErrNoRows {
			return users.User{}, ErrNotFound
		}
		return users.User{}, err
	}

	if disabled.Valid {
		t := disabled.Time
		u.DisabledAt = &t
	}
	return u, nil
}
