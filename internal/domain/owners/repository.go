package owners

import "context"

type Repository interface {
	Create(ctx context.Context, o Owner) error
	GetByID(ctx context.Context, id string) (Owner, error)
	Update(ctx context.Context, o Owner) error
	Delete(ctx context.Context, id string) error

	// List ordena por apellido y nombre (case-insensitive).
	List(ctx context.Context) ([]Owner, error)
}
