package memory

import (
	"context"
	"sort"
	"sync"

	"vet-clinic/internal/domain/pets"
)

type petsRepo struct {
	mu     sync.RWMutex
	byID   map[int64]pets.Pet
	nextID int64
}

func NewPetsRepo() pets.Repository {
	return &petsRepo{
		byID:   make(map[int64]pets.Pet),
		nextID: 1,
	}
}

func (r *petsRepo) Create(ctx context.Context, p *pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.nextID
	r.nextID++
	r.byID[p.ID] = *p
	return nil
}

func (r *petsRepo) GetByID(ctx context.Context, id int64) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *petsRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; !exists {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *petsRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *petsRepo) ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}

	sortByCreation(out)
	return out, nil
}

func (r *petsRepo) ListAll(ctx context.Context) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}

	sortByCreation(out)
	return out, nil
}

func (r *petsRepo) DeleteByOwner(ctx context.Context, ownerID string) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := make([]int64, 0)
	for id, p := range r.byID {
		if p.OwnerID == ownerID {
			delete(r.byID, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

// Orden estable por alta (el ID autoincremental sigue la creación).
func sortByCreation(out []pets.Pet) {
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
}
