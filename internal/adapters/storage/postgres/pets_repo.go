package postgres

import (
	"context"
	"database/sql"

	"vet-clinic/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) Create(ctx context.Context, p *pets.Pet) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO pets (owner_id, name, age, animal_type, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`,
		p.OwnerID,
		p.Name,
		p.Age,
		p.AnimalType,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *PetsRepo) GetByID(ctx context.Context, id int64) (pets.Pet, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, age, animal_type, created_at, updated_at
		FROM pets
		WHERE id = $1
	`, id)

	var p pets.Pet
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Age, &p.AnimalType, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return pets.Pet{}, ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			age = $3,
			animal_type = $4,
			updated_at = $5
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Age,
		p.AnimalType,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PetsRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error) {
	return r.list(ctx, `
		SELECT id, owner_id, name, age, animal_type, created_at, updated_at
		FROM pets
		WHERE owner_id = $1
		ORDER BY id ASC
	`, ownerID)
}

func (r *PetsRepo) ListAll(ctx context.Context) ([]pets.Pet, error) {
	return r.list(ctx, `
		SELECT id, owner_id, name, age, animal_type, created_at, updated_at
		FROM pets
		ORDER BY id ASC
	`)
}

func (r *PetsRepo) list(ctx context.Context, query string, args ...any) ([]pets.Pet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		var p pets.Pet
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Age, &p.AnimalType, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) DeleteByOwner(ctx context.Context, ownerID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		DELETE FROM pets
		WHERE owner_id = $1
		RETURNING id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
