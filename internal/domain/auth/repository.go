package auth

import "context"

type CredentialRepository interface {
	Create(ctx context.Context, c Credential) error
	GetByEmail(ctx context.Context, email string) (Credential, error)
	GetByOwnerID(ctx context.Context, ownerID string) (Credential, error)
	Update(ctx context.Context, c Credential) error
	Delete(ctx context.Context, ownerID string) error
}

type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByOwner(ctx context.Context, ownerID string) error

	// Flash: slot de una sola lectura por sesión.
	SetFlash(ctx context.Context, token string, f Flash) error
	TakeFlash(ctx context.Context, token string) (Flash, bool, error)
}

type ResetTokenRepository interface {
	Create(ctx context.Context, t ResetToken) error
	Get(ctx context.Context, token string) (ResetToken, error)
	MarkUsed(ctx context.Context, token string) error
}
