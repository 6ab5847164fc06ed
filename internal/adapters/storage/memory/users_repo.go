package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pet-adoption-api/internal/domain/users"
)

type userRepo struct {
	mu      sync.RWMutex
	byID    map[string]users.User
	byEmail map[string]string // email -> id
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID:    make(map[string]users.User),
		byEmail: make(map[string]string),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byEmail[u.Email]; exists {
		return fmt.Errorf("%w: %s", users.ErrEmailTaken, u.Email)
	}

	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return users.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

type refreshTokenRepo struct {
	mu     sync.RWMutex
	byHash map[string]users.RefreshToken
}

func NewRefreshTokenRepo() users.RefreshTokenRepository {
	return &refreshTokenRepo{
		byHash: make(map[string]users.RefreshToken),
	}
}

func (r *refreshTokenRepo) Create(ctx context.Context, t users.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(t.TokenHash) == "" {
		return errors.New("token hash required")
	}
	r.byHash[t.TokenHash] = t
	return nil
}

func (r *refreshTokenRepo) GetByHash(ctx context.Context, hash string) (users.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byHash[hash]
	if !ok {
		return users.RefreshToken{}, ErrNotFound
	}
	return t, nil
}

func (r *refreshTokenRepo) Revoke(ctx context.Context, hash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[hash]
	if !ok || t.RevokedAt != nil {
		return nil
	}
	t.RevokedAt = &at
	r.byHash[hash] = t
	return nil
}
