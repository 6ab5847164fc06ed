package adoptions

import "context"

type Repository interface {
	Create(ctx context.Context, r Request) error
	Update(ctx context.Context, r Request) error
	GetByID(ctx context.Context, id string) (Request, error)
	ListByPet(ctx context.Context, petID string) ([]Request, error)
	// ListByRequester devuelve más recientes primero.
	ListByRequester(ctx context.Context, requesterUserID string) ([]Request, error)
}
