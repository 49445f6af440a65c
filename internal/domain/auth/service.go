package auth

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials es genérico a propósito: no distingue
	// email desconocido de password incorrecto (anti-enumeración).
	ErrInvalidCredentials = errors.New("invalid login attempt")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotFound           = errors.New("not found")
	ErrNoSession          = errors.New("no session")
)

type Service struct {
	creds    CredentialRepository
	sessions SessionRepository
	resets   ResetTokenRepository
	now      func() time.Time

	SessionTTL  time.Duration
	RememberTTL time.Duration
	ResetTTL    time.Duration
}

func NewService(creds CredentialRepository, sessions SessionRepository, resets ResetTokenRepository) *Service {
	return &Service{
		creds:       creds,
		sessions:    sessions,
		resets:      resets,
		now:         time.Now,
		SessionTTL:  24 * time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
		ResetTTL:    2 * time.Hour,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PasswordPolicyMessage devuelve "" si el password cumple la política:
// 8 a 72 caracteres, al menos una letra y un dígito. El tope de 72
// bytes es el límite de entrada de bcrypt.
func PasswordPolicyMessage(password string) string {
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	if len(password) > 72 {
		return "password must be at most 72 characters"
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return "password must contain at least one letter and one digit"
	}
	return ""
}

func (s *Service) CreateCredential(ctx context.Context, ownerID, email, password string, roles []Role) error {
	email = NormalizeEmail(email)
	if ownerID == "" || email == "" {
		return errors.New("owner id and email required")
	}

	if _, err := s.creds.GetByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := s.now()
	return s.creds.Create(ctx, Credential{
		OwnerID:      ownerID,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// UpdateEmail mantiene email == login-name: un cambio de email
// cambia el nombre de login en el mismo paso.
func (s *Service) UpdateEmail(ctx context.Context, ownerID, newEmail string) error {
	newEmail = NormalizeEmail(newEmail)

	c, err := s.creds.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return ErrNotFound
	}
	if c.Email == newEmail {
		return nil
	}

	if other, err := s.creds.GetByEmail(ctx, newEmail); err == nil && other.OwnerID != ownerID {
		return ErrEmailTaken
	}

	c.Email = newEmail
	c.UpdatedAt = s.now()
	return s.creds.Update(ctx, c)
}

// DeleteCredential borra el login y revoca todas sus sesiones.
func (s *Service) DeleteCredential(ctx context.Context, ownerID string) error {
	if err := s.sessions.DeleteByOwner(ctx, ownerID); err != nil {
		return err
	}
	return s.creds.Delete(ctx, ownerID)
}

func (s *Service) GetCredentialByEmail(ctx context.Context, email string) (Credential, error) {
	c, err := s.creds.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return Credential{}, ErrNotFound
	}
	return c, nil
}

// Login valida credenciales y emite sesión. Falla siempre con el
// mismo error genérico.
func (s *Service) Login(ctx context.Context, email, password string, remember bool) (Session, error) {
	c, err := s.creds.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issueSession(ctx, c, remember)
}

// StartSession emite sesión sin password (sign-in tras el registro).
func (s *Service) StartSession(ctx context.Context, ownerID string) (Session, error) {
	c, err := s.creds.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return Session{}, ErrNotFound
	}
	return s.issueSession(ctx, c, false)
}

func (s *Service) issueSession(ctx context.Context, c Credential, remember bool) (Session, error) {
	now := s.now()
	ttl := s.SessionTTL
	if remember {
		ttl = s.RememberTTL
	}

	sess := Session{
		Token:     uuid.NewString(),
		OwnerID:   c.OwnerID,
		Email:     c.Email,
		Roles:     c.Roles,
		CSRFToken: uuid.NewString(),
		Remember:  remember,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Validate resuelve un token de sesión; las expiradas se eliminan.
func (s *Service) Validate(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrNoSession
	}

	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return Session{}, ErrNoSession
	}
	if s.now().After(sess.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return Session{}, ErrNoSession
	}
	return sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *Service) SetFlash(ctx context.Context, token string, f Flash) error {
	return s.sessions.SetFlash(ctx, token, f)
}

func (s *Service) TakeFlash(ctx context.Context, token string) (Flash, bool) {
	f, ok, err := s.sessions.TakeFlash(ctx, token)
	if err != nil {
		return Flash{}, false
	}
	return f, ok
}

// CreateResetToken emite un token de un solo uso. Si el email no
// existe devuelve ErrNotFound; el handler NO revela esa diferencia.
func (s *Service) CreateResetToken(ctx context.Context, email string) (ResetToken, error) {
	email = NormalizeEmail(email)
	if _, err := s.creds.GetByEmail(ctx, email); err != nil {
		return ResetToken{}, ErrNotFound
	}

	now := s.now()
	t := ResetToken{
		Token:     uuid.NewString(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ResetTTL),
	}
	if err := s.resets.Create(ctx, t); err != nil {
		return ResetToken{}, err
	}
	return t, nil
}

// ResetPassword consume el token: usado, vencido o con email
// distinto => ErrInvalidToken.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	email = NormalizeEmail(email)

	t, err := s.resets.Get(ctx, token)
	if err != nil {
		return ErrInvalidToken
	}
	if t.Used || t.Email != email || s.now().After(t.ExpiresAt) {
		return ErrInvalidToken
	}

	c, err := s.creds.GetByEmail(ctx, email)
	if err != nil {
		return ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.resets.MarkUsed(ctx, token); err != nil {
		return err
	}

	c.PasswordHash = string(hash)
	c.UpdatedAt = s.now()
	if err := s.creds.Update(ctx, c); err != nil {
		return err
	}

	// Password nuevo invalida sesiones viejas.
	return s.sessions.DeleteByOwner(ctx, c.OwnerID)
}
