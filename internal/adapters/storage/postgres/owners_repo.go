package postgres

import (
	"context"
	"database/sql"

	"vet-clinic/internal/domain/owners"
)

type OwnersRepo struct {
	db *sql.DB
}

func NewOwnersRepo(db *sql.DB) *OwnersRepo {
	return &OwnersRepo{db: db}
}

func (r *OwnersRepo) Create(ctx context.Context, o owners.Owner) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO owners (
			id, email, first_name, last_name, phone,
			date_of_birth, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		o.ID,
		o.Email,
		o.FirstName,
		o.LastName,
		o.Phone,
		toNullDate(o.DateOfBirth),
		o.CreatedAt,
		o.UpdatedAt,
	)
	return err
}

func (r *OwnersRepo) GetByID(ctx context.Context, id string) (owners.Owner, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, phone,
		       date_of_birth, created_at, updated_at
		FROM owners
		WHERE id = $1
	`, id)
	return scanOwner(row)
}

func (r *OwnersRepo) Update(ctx context.Context, o owners.Owner) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE owners
		SET
			email = $2,
			first_name = $3,
			last_name = $4,
			phone = $5,
			date_of_birth = $6,
			updated_at = $7
		WHERE id = $1
	`,
		o.ID,
		o.Email,
		o.FirstName,
		o.LastName,
		o.Phone,
		toNullDate(o.DateOfBirth),
		o.UpdatedAt,
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

func (r *OwnersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OwnersRepo) List(ctx context.Context) ([]owners.Owner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, first_name, last_name, phone,
		       date_of_birth, created_at, updated_at
		FROM owners
		ORDER BY LOWER(last_name), LOWER(first_name)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]owners.Owner, 0)
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOwner(row rowScanner) (owners.Owner, error) {
	var o owners.Owner
	var dob sql.NullTime
	if err := row.Scan(
		&o.ID,
		&o.Email,
		&o.FirstName,
		&o.LastName,
		&o.Phone,
		&dob,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return owners.Owner{}, ErrNotFound
		}
		return owners.Owner{}, err
	}
	o.DateOfBirth = fromNullDate(dob)
	return o, nil
}
