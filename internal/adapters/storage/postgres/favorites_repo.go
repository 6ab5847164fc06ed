package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-adoption-api/internal/domain/favorites"
)

type FavoritesRepo struct {
	db *sql.DB
}

func NewFavoritesRepo(db *sql.DB) *FavoritesRepo {
	return &FavoritesRepo{db: db}
}

// Add es idempotente vía ON CONFLICT: repetir conserva el created_at original.
func (r *FavoritesRepo) Add(ctx context.Context, f favorites.Favorite) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, pet_id, created_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, pet_id) DO NOTHING
	`,
		f.UserID,
		f.PetID,
		f.CreatedAt,
	)
	return err
}

func (r *FavoritesRepo) Remove(ctx context.Context, userID, petID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM favorites
		WHERE user_id = $1 AND pet_id = $2
	`, userID, petID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *FavoritesRepo) Get(ctx context.Context, userID, petID string) (favorites.Favorite, error) {
	userID = strings.TrimSpace(userID)
	petID = strings.TrimSpace(petID)
	if userID == "" || petID == "" {
		return favorites.Favorite{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, pet_id, created_at
		FROM favorites
		WHERE user_id = $1 AND pet_id = $2
	`, userID, petID)

	var f favorites.Favorite
	if err := row.Scan(&f.UserID, &f.PetID, &f.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return favorites.Favorite{}, ErrNotFound
		}
		return favorites.Favorite{}, err
	}
	return f, nil
}

func (r *FavoritesRepo) ListByUser(ctx context.Context, userID string) ([]favorites.Favorite, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, pet_id, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]favorites.Favorite, 0)
	for rows.Next() {
		var f favorites.Favorite
		if err := rows.Scan(&f.UserID, &f.PetID, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
