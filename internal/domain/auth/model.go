package auth

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Credential guarda el login de un owner: email (en minúsculas),
// hash bcrypt y roles. El owner vive en su propio módulo.
type Credential struct {
	OwnerID      string
	Email        string
	PasswordHash string
	Roles        []Role

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Credential) HasRole(role Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Session es un token opaco revocable, con el token anti-forgery
// de la sesión y un slot de flash de una sola lectura.
type Session struct {
	Token   string
	OwnerID string
	Email   string
	Roles   []Role

	CSRFToken string
	Remember  bool

	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) HasRole(role Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Flash es un mensaje de estado que sobrevive exactamente un redirect.
type Flash struct {
	Kind    string `json:"kind"` // success | error
	Message string `json:"message"`
}

// ResetToken es de un solo uso y queda atado al email que lo pidió.
type ResetToken struct {
	Token     string
	Email     string
	Used      bool
	CreatedAt time.Time
	ExpiresAt time.Time
}
