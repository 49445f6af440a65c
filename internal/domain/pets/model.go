package pets

import "time"

// AnimalTypes es la lista sugerida para el dropdown.
// El campo es texto libre (máx 50), no un enum duro.
var AnimalTypes = []string{
	"Dog", "Cat", "Bird", "Rabbit",
	"Hamster", "Fish", "Reptile", "Other",
}

// Pet pertenece a exactamente un owner.
type Pet struct {
	ID      int64
	OwnerID string

	Name       string
	Age        int
	AnimalType string

	CreatedAt time.Time
	UpdatedAt time.Time
}
