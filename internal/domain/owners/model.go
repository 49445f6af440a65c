package owners

import "time"

// Owner es el perfil de una persona dueña de mascotas.
// El login (email/hash/roles) vive en el módulo auth; acá el email
// se duplica como dato de contacto y se mantiene en sync al editarlo.
type Owner struct {
	ID string

	Email     string
	FirstName string
	LastName  string
	Phone     string

	DateOfBirth *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName con formato de listado admin: "Apellido, Nombre".
func (o Owner) FullName() string {
	return o.LastName + ", " + o.FirstName
}
