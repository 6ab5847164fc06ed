package memory

import (
	"context"
	"sort"
	"sync"

	"pet-adoption-api/internal/domain/favorites"
)

type favoriteRepo struct {
	mu     sync.RWMutex
	byPair map[string]favorites.Favorite // userID + "|" + petID
}

func NewFavoriteRepo() favorites.Repository {
	return &favoriteRepo{
		byPair: make(map[string]favorites.Favorite),
	}
}

func pairKey(userID, petID string) string {
	return userID + "|" + petID
}

func (r *favoriteRepo) Add(ctx context.Context, f favorites.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey(f.UserID, f.PetID)
	if _, exists := r.byPair[key]; exists {
		// idempotente: el created_at original se conserva
		return nil
	}
	r.byPair[key] = f
	return nil
}

func (r *favoriteRepo) Remove(ctx context.Context, userID, petID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey(userID, petID)
	if _, exists := r.byPair[key]; !exists {
		return false, nil
	}
	delete(r.byPair, key)
	return true, nil
}

func (r *favoriteRepo) Get(ctx context.Context, userID, petID string) (favorites.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byPair[pairKey(userID, petID)]
	if !ok {
		return favorites.Favorite{}, ErrNotFound
	}
	return f, nil
}

func (r *favoriteRepo) ListByUser(ctx context.Context, userID string) ([]favorites.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]favorites.Favorite, 0)
	for _, f := range r.byPair {
		if f.UserID == userID {
			out = append(out, f)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PetID > out[j].PetID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}
