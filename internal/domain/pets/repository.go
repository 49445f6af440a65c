package pets

import "context"

type Repository interface {
	// Create asigna el ID numérico en p.
	Create(ctx context.Context, p *Pet) error
	GetByID(ctx context.Context, id int64) (Pet, error)
	Update(ctx context.Context, p Pet) error
	Delete(ctx context.Context, id int64) error

	ListByOwner(ctx context.Context, ownerID string) ([]Pet, error)
	ListAll(ctx context.Context) ([]Pet, error)

	// DeleteByOwner devuelve los IDs borrados para que el caller
	// limpie las asociaciones de vacunas.
	DeleteByOwner(ctx context.Context, ownerID string) ([]int64, error)
}
