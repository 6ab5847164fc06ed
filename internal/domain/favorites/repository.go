package favorites

import "context"

type Repository interface {
	// Add es idempotente: si el par ya existe, conserva el CreatedAt original.
	Add(ctx context.Context, f Favorite) error
	// Remove devuelve removed=false si el par no existía.
	Remove(ctx context.Context, userID, petID string) (removed bool, err error)
	Get(ctx context.Context, userID, petID string) (Favorite, error)
	// ListByUser devuelve más recientes primero.
	ListByUser(ctx context.Context, userID string) ([]Favorite, error)
}
