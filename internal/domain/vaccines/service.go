package vaccines

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"vet-clinic/internal/domain/validation"
)

var (
	ErrNotFound = errors.New("vaccine not found")
	// ErrInUse: la vacuna tiene asociaciones vivas, no se borra.
	ErrInUse = errors.New("vaccine is in use")
	// ErrDuplicateName: alta explícita con nombre ya tomado.
	ErrDuplicateName = errors.New("vaccine name already exists")
)

const (
	MinNameLen = 2
	MaxNameLen = 100
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func validateName(name string) string {
	// caracteres, no bytes: un nombre multibyte cuenta por runa
	if n := utf8.RuneCountInString(name); n < MinNameLen || n > MaxNameLen {
		return "vaccine name must be between 2 and 100 characters"
	}
	return ""
}

// CreateVaccine es el alta explícita del catálogo: rechaza
// duplicados case-insensitive en vez de reusarlos.
func (s *Service) CreateVaccine(ctx context.Context, name string) (Vaccine, error) {
	name = strings.TrimSpace(name)

	if msg := validateName(name); msg != "" {
		ve := validation.NewError()
		ve.Add("name", msg)
		return Vaccine{}, ve
	}

	if _, err := s.repo.FindVaccineByName(ctx, name); err == nil {
		return Vaccine{}, ErrDuplicateName
	}

	v := Vaccine{Name: name, CreatedAt: s.now()}
	if err := s.repo.CreateVaccine(ctx, &v); err != nil {
		return Vaccine{}, err
	}
	return v, nil
}

// ResolveOrCreate es el alta implícita al tipear un nombre nuevo en
// la asociación: si ya existe (case-insensitive) reusa esa fila.
func (s *Service) ResolveOrCreate(ctx context.Context, name string) (Vaccine, error) {
	name = strings.TrimSpace(name)

	if v, err := s.repo.FindVaccineByName(ctx, name); err == nil {
		return v, nil
	}

	if msg := validateName(name); msg != "" {
		ve := validation.NewError()
		ve.Add("new_vaccine_name", msg)
		return Vaccine{}, ve
	}

	v := Vaccine{Name: name, CreatedAt: s.now()}
	if err := s.repo.CreateVaccine(ctx, &v); err != nil {
		return Vaccine{}, err
	}
	return v, nil
}

func (s *Service) GetVaccine(ctx context.Context, id int64) (Vaccine, error) {
	v, err := s.repo.GetVaccine(ctx, id)
	if err != nil {
		return Vaccine{}, ErrNotFound
	}
	return v, nil
}

func (s *Service) ListVaccines(ctx context.Context) ([]Vaccine, error) {
	return s.repo.ListVaccines(ctx)
}

// DeleteVaccine falla con ErrInUse mientras exista alguna asociación
// que la referencie (guarda referencial).
func (s *Service) DeleteVaccine(ctx context.Context, id int64) error {
	if _, err := s.repo.GetVaccine(ctx, id); err != nil {
		return ErrNotFound
	}

	n, err := s.repo.CountByVaccine(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrInUse
	}
	return s.repo.DeleteVaccine(ctx, id)
}

// AddToPet asocia una vacuna existente. Idempotente: si el par ya
// existe no crea otra fila y devuelve created=false sin error.
// administered nil => fecha actual.
func (s *Service) AddToPet(ctx context.Context, petID, vaccineID int64, administered *time.Time) (bool, error) {
	if _, err := s.repo.GetVaccine(ctx, vaccineID); err != nil {
		return false, ErrNotFound
	}

	has, err := s.repo.HasAssociation(ctx, petID, vaccineID)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}

	when := s.now()
	if administered != nil {
		when = *administered
	}

	if err := s.repo.CreateAssociation(ctx, PetVaccine{
		PetID:            petID,
		VaccineID:        vaccineID,
		DateAdministered: when,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// AddNewToPet resuelve-o-crea por nombre y asocia.
func (s *Service) AddNewToPet(ctx context.Context, petID int64, name string, administered *time.Time) (Vaccine, bool, error) {
	v, err := s.ResolveOrCreate(ctx, name)
	if err != nil {
		return Vaccine{}, false, err
	}
	created, err := s.AddToPet(ctx, petID, v.ID, administered)
	if err != nil {
		return Vaccine{}, false, err
	}
	return v, created, nil
}

// RemoveFromPet desasocia sin borrar vacuna ni mascota. No-op si la
// asociación no existe.
func (s *Service) RemoveFromPet(ctx context.Context, petID, vaccineID int64) error {
	has, err := s.repo.HasAssociation(ctx, petID, vaccineID)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}
	return s.repo.DeleteAssociation(ctx, petID, vaccineID)
}

func (s *Service) ListByPet(ctx context.Context, petID int64) ([]Administered, error) {
	return s.repo.ListByPet(ctx, petID)
}

// RemoveAllForPet limpia las asociaciones al borrar una mascota.
func (s *Service) RemoveAllForPet(ctx context.Context, petID int64) error {
	return s.repo.DeleteByPet(ctx, petID)
}
