package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vet-clinic/internal/domain/vaccines"
)

type pairKey struct {
	petID     int64
	vaccineID int64
}

type vaccinesRepo struct {
	mu     sync.RWMutex
	byID   map[int64]vaccines.Vaccine
	assocs map[pairKey]vaccines.PetVaccine
	nextID int64
}

func NewVaccinesRepo() vaccines.Repository {
	return &vaccinesRepo{
		byID:   make(map[int64]vaccines.Vaccine),
		assocs: make(map[pairKey]vaccines.PetVaccine),
		nextID: 1,
	}
}

func (r *vaccinesRepo) CreateVaccine(ctx context.Context, v *vaccines.Vaccine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v.ID = r.nextID
	r.nextID++
	r.byID[v.ID] = *v
	return nil
}

func (r *vaccinesRepo) GetVaccine(ctx context.Context, id int64) (vaccines.Vaccine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byID[id]
	if !ok {
		return vaccines.Vaccine{}, ErrNotFound
	}
	return v, nil
}

func (r *vaccinesRepo) FindVaccineByName(ctx context.Context, name string) (vaccines.Vaccine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.byID {
		if strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}
	return vaccines.Vaccine{}, ErrNotFound
}

func (r *vaccinesRepo) ListVaccines(ctx context.Context) ([]vaccines.Vaccine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]vaccines.Vaccine, 0, len(r.byID))
	for _, v := range r.byID {
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (r *vaccinesRepo) DeleteVaccine(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *vaccinesRepo) CreateAssociation(ctx context.Context, pv vaccines.PetVaccine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{petID: pv.PetID, vaccineID: pv.VaccineID}
	// clave compuesta: una fila por par como máximo
	if _, exists := r.assocs[key]; exists {
		return nil
	}
	r.assocs[key] = pv
	return nil
}

func (r *vaccinesRepo) HasAssociation(ctx context.Context, petID, vaccineID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.assocs[pairKey{petID: petID, vaccineID: vaccineID}]
	return ok, nil
}

func (r *vaccinesRepo) DeleteAssociation(ctx context.Context, petID, vaccineID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.assocs, pairKey{petID: petID, vaccineID: vaccineID})
	return nil
}

func (r *vaccinesRepo) DeleteByPet(ctx context.Context, petID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.assocs {
		if key.petID == petID {
			delete(r.assocs, key)
		}
	}
	return nil
}

func (r *vaccinesRepo) ListByPet(ctx context.Context, petID int64) ([]vaccines.Administered, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]vaccines.Administered, 0)
	for key, pv := range r.assocs {
		if key.petID != petID {
			continue
		}
		v, ok := r.byID[key.vaccineID]
		if !ok {
			continue
		}
		out = append(out, vaccines.Administered{
			VaccineID:        v.ID,
			Name:             v.Name,
			DateAdministered: pv.DateAdministered,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].DateAdministered.Before(out[j].DateAdministered)
	})
	return out, nil
}

func (r *vaccinesRepo) CountByVaccine(ctx context.Context, vaccineID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for key := range r.assocs {
		if key.vaccineID == vaccineID {
			n++
		}
	}
	return n, nil
}
