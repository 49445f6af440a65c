package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"vet-clinic/internal/domain/auth"
)

type credentialsRepo struct {
	mu      sync.RWMutex
	byOwner map[string]auth.Credential
}

func NewCredentialsRepo() auth.CredentialRepository {
	return &credentialsRepo{
		byOwner: make(map[string]auth.Credential),
	}
}

func (r *credentialsRepo) Create(ctx context.Context, c auth.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOwner[c.OwnerID]; exists {
		return errors.New("credential already exists")
	}
	for _, other := range r.byOwner {
		if strings.EqualFold(other.Email, c.Email) {
			return errors.New("email already taken")
		}
	}
	r.byOwner[c.OwnerID] = c
	return nil
}

func (r *credentialsRepo) GetByEmail(ctx context.Context, email string) (auth.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.byOwner {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return auth.Credential{}, ErrNotFound
}

func (r *credentialsRepo) GetByOwnerID(ctx context.Context, ownerID string) (auth.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byOwner[ownerID]
	if !ok {
		return auth.Credential{}, ErrNotFound
	}
	return c, nil
}

func (r *credentialsRepo) Update(ctx context.Context, c auth.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOwner[c.OwnerID]; !exists {
		return ErrNotFound
	}
	r.byOwner[c.OwnerID] = c
	return nil
}

func (r *credentialsRepo) Delete(ctx context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOwner[ownerID]; !exists {
		return ErrNotFound
	}
	delete(r.byOwner, ownerID)
	return nil
}

type sessionEntry struct {
	session auth.Session
	flash   *auth.Flash
}

type sessionsRepo struct {
	mu      sync.RWMutex
	byToken map[string]*sessionEntry
}

func NewSessionsRepo() auth.SessionRepository {
	return &sessionsRepo{
		byToken: make(map[string]*sessionEntry),
	}
}

func (r *sessionsRepo) Create(ctx context.Context, s auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byToken[s.Token] = &sessionEntry{session: s}
	return nil
}

func (r *sessionsRepo) Get(ctx context.Context, token string) (auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byToken[token]
	if !ok {
		return auth.Session{}, ErrNotFound
	}
	return e.session, nil
}

func (r *sessionsRepo) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byToken, token)
	return nil
}

func (r *sessionsRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, e := range r.byToken {
		if e.session.OwnerID == ownerID {
			delete(r.byToken, token)
		}
	}
	return nil
}

func (r *sessionsRepo) SetFlash(ctx context.Context, token string, f auth.Flash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byToken[token]
	if !ok {
		return ErrNotFound
	}
	e.flash = &f
	return nil
}

// TakeFlash lee y limpia en una sola operación.
func (r *sessionsRepo) TakeFlash(ctx context.Context, token string) (auth.Flash, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byToken[token]
	if !ok || e.flash == nil {
		return auth.Flash{}, false, nil
	}
	f := *e.flash
	e.flash = nil
	return f, true, nil
}

type resetTokensRepo struct {
	mu      sync.RWMutex
	byToken map[string]auth.ResetToken
}

func NewResetTokensRepo() auth.ResetTokenRepository {
	return &resetTokensRepo{
		byToken: make(map[string]auth.ResetToken),
	}
}

func (r *resetTokensRepo) Create(ctx context.Context, t auth.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byToken[t.Token] = t
	return nil
}

func (r *resetTokensRepo) Get(ctx context.Context, token string) (auth.ResetToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byToken[token]
	if !ok {
		return auth.ResetToken{}, ErrNotFound
	}
	return t, nil
}

func (r *resetTokensRepo) MarkUsed(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byToken[token]
	if !ok {
		return ErrNotFound
	}
	t.Used = true
	r.byToken[token] = t
	return nil
}
