package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"vet-clinic/internal/domain/validation"
)

var (
	ErrNotFound = errors.New("pet not found")
)

const (
	MinPetAge        = 0
	MaxPetAge        = 50
	MaxAnimalTypeLen = 50
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

type CreateInput struct {
	OwnerID    string
	Name       string
	Age        int
	AnimalType string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Pet, error) {
	ve := validation.NewError()

	if strings.TrimSpace(in.OwnerID) == "" {
		ve.Add("owner_id", "owner is required")
	}
	validateFields(ve, in.Name, in.Age, in.AnimalType)

	if ve.HasErrors() {
		return Pet{}, ve
	}

	now := s.now()
	p := Pet{
		OwnerID:    strings.TrimSpace(in.OwnerID),
		Name:       strings.TrimSpace(in.Name),
		Age:        in.Age,
		AnimalType: strings.TrimSpace(in.AnimalType),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, &p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

type UpdateInput struct {
	Name       string
	Age        int
	AnimalType string
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Pet, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, ErrNotFound
	}

	ve := validation.NewError()
	validateFields(ve, in.Name, in.Age, in.AnimalType)
	if ve.HasErrors() {
		return Pet{}, ve
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Age = in.Age
	p.AnimalType = strings.TrimSpace(in.AnimalType)
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func validateFields(ve *validation.Error, name string, age int, animalType string) {
	if strings.TrimSpace(name) == "" {
		ve.Add("name", "name is required")
	}
	if age < MinPetAge || age > MaxPetAge {
		ve.Add("age", "age must be between 0 and 50")
	}
	at := strings.TrimSpace(animalType)
	if at == "" {
		ve.Add("animal_type", "animal type is required")
	} else if len(at) > MaxAnimalTypeLen {
		ve.Add("animal_type", "animal type must be 50 characters or less")
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (Pet, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) ListAll(ctx context.Context) ([]Pet, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) DeleteByOwner(ctx context.Context, ownerID string) ([]int64, error) {
	return s.repo.DeleteByOwner(ctx, ownerID)
}
