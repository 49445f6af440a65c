package owners

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-clinic/internal/domain/auth"
	"vet-clinic/internal/domain/validation"
)

var (
	ErrNotFound = errors.New("owner not found")
)

// Rango de edad exigido al registrarse (regla reutilizable).
const (
	MinAge = 18
	MaxAge = 100
)

type Service struct {
	repo Repository
	auth *auth.Service
	now  func() time.Time
}

func NewService(repo Repository, authSvc *auth.Service) *Service {
	return &Service{
		repo: repo,
		auth: authSvc,
		now:  time.Now,
	}
}

type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	DateOfBirth     *time.Time
}

// Register crea owner + credencial con rol user. La misma operación
// sirve para el alta self-service y para el CreateOwner del admin.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Owner, error) {
	ve := validation.NewError()

	email := auth.NormalizeEmail(in.Email)
	if email == "" {
		ve.Add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		ve.Add("email", "invalid email address")
	}

	if strings.TrimSpace(in.FirstName) == "" {
		ve.Add("first_name", "first name is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		ve.Add("last_name", "last name is required")
	}

	if in.Password == "" {
		ve.Add("password", "password is required")
	} else if msg := auth.PasswordPolicyMessage(in.Password); msg != "" {
		ve.Add("password", msg)
	}
	if in.Password != in.ConfirmPassword {
		ve.Add("confirm_password", "passwords need to match")
	}

	if in.DateOfBirth == nil {
		ve.Add("date_of_birth", "date of birth is required")
	} else if msg := validation.AgeRangeMessage(*in.DateOfBirth, s.now(), MinAge, MaxAge); msg != "" {
		ve.Add("date_of_birth", msg)
	}

	if ve.HasErrors() {
		return Owner{}, ve
	}

	now := s.now()
	o := Owner{
		ID:          uuid.NewString(),
		Email:       email,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		DateOfBirth: in.DateOfBirth,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return Owner{}, err
	}

	if err := s.auth.CreateCredential(ctx, o.ID, email, in.Password, []auth.Role{auth.RoleUser}); err != nil {
		// no dejar un perfil sin login
		_ = s.repo.Delete(ctx, o.ID)
		if errors.Is(err, auth.ErrEmailTaken) {
			ve.Add("email", "email already registered")
			return Owner{}, ve
		}
		return Owner{}, err
	}

	return o, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Owner, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Owner{}, ErrNotFound
	}
	return o, nil
}

func (s *Service) List(ctx context.Context) ([]Owner, error) {
	return s.repo.List(ctx)
}

type UpdateProfileInput struct {
	FirstName   string
	LastName    string
	Phone       string
	DateOfBirth *time.Time
}

// UpdateProfile es la edición self-service: no toca email ni roles.
func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (Owner, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Owner{}, ErrNotFound
	}

	ve := validation.NewError()
	if strings.TrimSpace(in.FirstName) == "" {
		ve.Add("first_name", "first name is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		ve.Add("last_name", "last name is required")
	}
	if in.DateOfBirth != nil {
		if msg := validation.AgeRangeMessage(*in.DateOfBirth, s.now(), MinAge, MaxAge); msg != "" {
			ve.Add("date_of_birth", msg)
		}
	}
	if ve.HasErrors() {
		return Owner{}, ve
	}

	o.FirstName = strings.TrimSpace(in.FirstName)
	o.LastName = strings.TrimSpace(in.LastName)
	o.Phone = strings.TrimSpace(in.Phone)
	o.DateOfBirth = in.DateOfBirth
	o.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

type AdminUpdateInput struct {
	Email       string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
}

// AdminUpdate permite cambiar el email; email == login-name, así que
// se actualiza la credencial en el mismo paso.
func (s *Service) AdminUpdate(ctx context.Context, id string, in AdminUpdateInput) (Owner, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Owner{}, ErrNotFound
	}

	ve := validation.NewError()
	email := auth.NormalizeEmail(in.Email)
	if email == "" {
		ve.Add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		ve.Add("email", "invalid email address")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		ve.Add("first_name", "first name is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		ve.Add("last_name", "last name is required")
	}
	if in.DateOfBirth != nil {
		if msg := validation.AgeRangeMessage(*in.DateOfBirth, s.now(), MinAge, MaxAge); msg != "" {
			ve.Add("date_of_birth", msg)
		}
	}
	if ve.HasErrors() {
		return Owner{}, ve
	}

	if email != o.Email {
		if err := s.auth.UpdateEmail(ctx, id, email); err != nil {
			if errors.Is(err, auth.ErrEmailTaken) {
				ve.Add("email", "email already registered")
				return Owner{}, ve
			}
			return Owner{}, err
		}
	}

	o.Email = email
	o.FirstName = strings.TrimSpace(in.FirstName)
	o.LastName = strings.TrimSpace(in.LastName)
	o.DateOfBirth = in.DateOfBirth
	o.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

// Delete borra perfil + credencial/sesiones. Las mascotas del owner
// las borra el caller antes de llamar acá (ver handler admin).
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return ErrNotFound
	}
	if err := s.auth.DeleteCredential(ctx, id); err != nil && !errors.Is(err, auth.ErrNotFound) {
		return err
	}
	return s.repo.Delete(ctx, id)
}
