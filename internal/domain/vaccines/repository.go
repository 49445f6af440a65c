package vaccines

import "context"

type Repository interface {
	// Catálogo
	CreateVaccine(ctx context.Context, v *Vaccine) error
	GetVaccine(ctx context.Context, id int64) (Vaccine, error)
	// FindVaccineByName matchea case-insensitive sobre el nombre ya trimmeado.
	FindVaccineByName(ctx context.Context, name string) (Vaccine, error)
	// ListVaccines ordena por nombre.
	ListVaccines(ctx context.Context) ([]Vaccine, error)
	DeleteVaccine(ctx context.Context, id int64) error

	// Asociaciones
	CreateAssociation(ctx context.Context, pv PetVaccine) error
	HasAssociation(ctx context.Context, petID, vaccineID int64) (bool, error)
	DeleteAssociation(ctx context.Context, petID, vaccineID int64) error
	DeleteByPet(ctx context.Context, petID int64) error
	// ListByPet ordena por fecha de administración.
	ListByPet(ctx context.Context, petID int64) ([]Administered, error)
	CountByVaccine(ctx context.Context, vaccineID int64) (int, error)
}
