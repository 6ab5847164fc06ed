package pets

import "context"

// Filter acota el listado público. Campos vacíos no filtran.
type Filter struct {
	Species Species
	Sex     Sex
	Size    Size
	City    string

	// Status ya normalizado por el service ("" = sin filtro).
	Status Status

	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	// List devuelve más nuevas primero.
	List(ctx context.Context, f Filter) ([]Pet, error)
	ListByLister(ctx context.Context, listerUserID string) ([]Pet, error)
}
