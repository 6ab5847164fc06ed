package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pet-adoption-api/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, listed_by_user_id,
	name, species, breed, sex, size,
	age_months, description, photo_url, city,
	status,
	created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (
			id, listed_by_user_id,
			name, species, breed, sex, size,
			age_months, description, photo_url, city,
			status,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		p.ID,
		p.ListedByUserID,
		p.Name,
		p.Species,
		p.Breed,
		p.Sex,
		p.Size,
		p.AgeMonths,
		p.Description,
		p.PhotoURL,
		p.City,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			sex = $5,
			size = $6,
			age_months = $7,
			description = $8,
			photo_url = $9,
			city = $10,
			status = $11,
			updated_at = $12
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Species,
		p.Breed,
		p.Sex,
		p.Size,
		p.AgeMonths,
		p.Description,
		p.PhotoURL,
		p.City,
		p.Status,
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

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT`+petColumns+`
		FROM pets
		WHERE id = $1
	`, id)

	p, err := scanPet(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return pets.Pet{}, ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetsRepo) List(ctx context.Context, f pets.Filter) ([]pets.Pet, error) {
	// WHERE dinámico: cada campo vacío se salta
	where := make([]string, 0, 5)
	args := make([]any, 0, 7)

	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if f.Species != "" {
		add("species", f.Species)
	}
	if f.Sex != "" {
		add("sex", f.Sex)
	}
	if f.Size != "" {
		add("size", f.Size)
	}
	if f.City != "" {
		add("city", f.City)
	}
	if f.Status != "" {
		add("status", f.Status)
	}

	q := `SELECT` + petColumns + ` FROM pets`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"

	args = append(args, f.Limit)
	q += fmt.Sprintf(" LIMIT $%d", len(args))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPets(rows)
}

func (r *PetsRepo) ListByLister(ctx context.Context, listerUserID string) ([]pets.Pet, error) {
	listerUserID = strings.TrimSpace(listerUserID)
	if listerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT`+petColumns+`
		FROM pets
		WHERE listed_by_user_id = $1
		ORDER BY created_at DESC
	`, listerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPets(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var p pets.Pet
	err := row.Scan(
		&p.ID,
		&p.ListedByUserID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&p.Sex,
		&p.Size,
		&p.AgeMonths,
		&p.Description,
		&p.PhotoURL,
		&p.City,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func collectPets(rows *sql.Rows) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
