package postgres

import (
	"context"
	"database/sql"
	"strings"

	"vet-clinic/internal/domain/vaccines"
)

type VaccinesRepo struct {
	db *sql.DB
}

func NewVaccinesRepo(db *sql.DB) *VaccinesRepo {
	return &VaccinesRepo{db: db}
}

func (r *VaccinesRepo) CreateVaccine(ctx context.Context, v *vaccines.Vaccine) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO vaccines (name, created_at)
		VALUES ($1,$2)
		RETURNING id
	`, v.Name, v.CreatedAt).Scan(&v.ID)
}

func (r *VaccinesRepo) GetVaccine(ctx context.Context, id int64) (vaccines.Vaccine, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM vaccines WHERE id = $1
	`, id)

	var v vaccines.Vaccine
	if err := row.Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return vaccines.Vaccine{}, ErrNotFound
		}
		return vaccines.Vaccine{}, err
	}
	return v, nil
}

func (r *VaccinesRepo) FindVaccineByName(ctx context.Context, name string) (vaccines.Vaccine, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM vaccines
		WHERE LOWER(name) = LOWER($1)
	`, strings.TrimSpace(name))

	var v vaccines.Vaccine
	if err := row.Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return vaccines.Vaccine{}, ErrNotFound
		}
		return vaccines.Vaccine{}, err
	}
	return v, nil
}

func (r *VaccinesRepo) ListVaccines(ctx context.Context) ([]vaccines.Vaccine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM vaccines
		ORDER BY LOWER(name)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vaccines.Vaccine, 0)
	for rows.Next() {
		var v vaccines.Vaccine
		if err := rows.Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VaccinesRepo) DeleteVaccine(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vaccines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *VaccinesRepo) CreateAssociation(ctx context.Context, pv vaccines.PetVaccine) error {
	// ON CONFLICT DO NOTHING: el service ya chequeó, esto cubre carreras
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pet_vaccines (pet_id, vaccine_id, date_administered)
		VALUES ($1,$2,$3)
		ON CONFLICT (pet_id, vaccine_id) DO NOTHING
	`, pv.PetID, pv.VaccineID, pv.DateAdministered)
	return err
}

func (r *VaccinesRepo) HasAssociation(ctx context.Context, petID, vaccineID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pet_vaccines WHERE pet_id = $1 AND vaccine_id = $2
		)
	`, petID, vaccineID).Scan(&exists)
	return exists, err
}

func (r *VaccinesRepo) DeleteAssociation(ctx context.Context, petID, vaccineID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM pet_vaccines WHERE pet_id = $1 AND vaccine_id = $2
	`, petID, vaccineID)
	return err
}

func (r *VaccinesRepo) DeleteByPet(ctx context.Context, petID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pet_vaccines WHERE pet_id = $1`, petID)
	return err
}

func (r *VaccinesRepo) ListByPet(ctx context.Context, petID int64) ([]vaccines.Administered, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pv.vaccine_id, v.name, pv.date_administered
		FROM pet_vaccines pv
		JOIN vaccines v ON v.id = pv.vaccine_id
		WHERE pv.pet_id = $1
		ORDER BY pv.date_administered ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vaccines.Administered, 0)
	for rows.Next() {
		var a vaccines.Administered
		if err := rows.Scan(&a.VaccineID, &a.Name, &a.DateAdministered); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *VaccinesRepo) CountByVaccine(ctx context.Context, vaccineID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pet_vaccines WHERE vaccine_id = $1
	`, vaccineID).Scan(&n)
	return n, err
}
