package users

import (
	"context"
	"time"
)

type Repository interface {
	// Create falla con un error que wrapea ErrEmailTaken si el email ya existe.
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, t RefreshToken) error
	GetByHash(ctx context.Context, hash string) (RefreshToken, error)
	// Revoke es idempotente; revocar un hash desconocido no es error.
	Revoke(ctx context.Context, hash string, at time.Time) error
}
