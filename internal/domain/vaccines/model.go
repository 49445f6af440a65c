package vaccines

import "time"

// Vaccine es un tipo de inmunización del catálogo compartido.
// El nombre es único case-insensitive por construcción (se chequea
// en el service; el índice único en Postgres es el backstop).
type Vaccine struct {
	ID   int64
	Name string

	CreatedAt time.Time
}

// PetVaccine registra que una mascota recibió una vacuna en una
// fecha. Clave compuesta (PetID, VaccineID): a lo sumo una fila
// por par.
type PetVaccine struct {
	PetID     int64
	VaccineID int64

	DateAdministered time.Time
}

// Administered es la fila joineada (asociación + nombre) que
// consumen perfil y edición de mascota.
type Administered struct {
	VaccineID        int64
	Name             string
	DateAdministered time.Time
}
