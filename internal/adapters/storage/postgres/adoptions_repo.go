package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-adoption-api/internal/domain/adoptions"
)

type AdoptionsRepo struct {
	db *sql.DB
}

func NewAdoptionsRepo(db *sql.DB) *AdoptionsRepo {
	return &AdoptionsRepo{db: db}
}

const adoptionColumns = `
	id, pet_id, owner_user_id, requester_user_id,
	message, status,
	created_at, updated_at, decided_at`

func (r *AdoptionsRepo) Create(ctx context.Context, req adoptions.Request) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO adoption_requests (
			id, pet_id, owner_user_id, requester_user_id,
			message, status,
			created_at, updated_at, decided_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		req.ID,
		req.PetID,
		req.OwnerUserID,
		req.RequesterUserID,
		req.Message,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
		req.DecidedAt,
	)
	return err
}

func (r *AdoptionsRepo) Update(ctx context.Context, req adoptions.Request) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE adoption_requests
		SET
			status = $2,
			updated_at = $3,
			decided_at = $4
		WHERE id = $1
	`,
		req.ID,
		req.Status,
		req.UpdatedAt,
		req.DecidedAt,
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

func (r *AdoptionsRepo) GetByID(ctx context.Context, id string) (adoptions.Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return adoptions.Request{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT`+adoptionColumns+`
		FROM adoption_requests
		WHERE id = $1
	`, id)

	req, err := scanAdoption(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return adoptions.Request{}, ErrNotFound
		}
		return adoptions.Request{}, err
	}
	return req, nil
}

func (r *AdoptionsRepo) ListByPet(ctx context.Context, petID string) ([]adoptions.Request, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT`+adoptionColumns+`
		FROM adoption_requests
		WHERE pet_id = $1
		ORDER BY created_at DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAdoptions(rows)
}

func (r *AdoptionsRepo) ListByRequester(ctx context.Context, requesterUserID string) ([]adoptions.Request, error) {
	requesterUserID = strings.TrimSpace(requesterUserID)
	if requesterUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT`+adoptionColumns+`
		FROM adoption_requests
		WHERE requester_user_id = $1
		ORDER BY created_at DESC
	`, requesterUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAdoptions(rows)
}

func scanAdoption(row rowScanner) (adoptions.Request, error) {
	var req adoptions.Request
	var decided sql.NullTime
	err := row.Scan(
		&req.ID,
		&req.PetID,
		&req.OwnerUserID,
		&req.RequesterUserID,
		&req.Message,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
		&decided,
	)
	if err != nil {
		return adoptions.Request{}, err
	}
	if decided.Valid {
		t := decided.Time
		req.DecidedAt = &t
	}
	return req, nil
}

func collectAdoptions(rows *sql.Rows) ([]adoptions.Request, error) {
	out := make([]adoptions.Request, 0)
	for rows.Next() {
		req, err := scanAdoption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
