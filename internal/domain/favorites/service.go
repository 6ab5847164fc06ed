package favorites

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-adoption-api/internal/realtime"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo     Repository
	notifier realtime.Notifier
	now      func() time.Time
}

func NewService(repo Repository, notifier realtime.Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// Add guarda el favorito. Idempotente: repetir devuelve el existente.
func (s *Service) Add(ctx context.Context, userID, petID string) (Favorite, error) {
	userID = strings.TrimSpace(userID)
	petID = strings.TrimSpace(petID)
	if userID == "" || petID == "" {
		return Favorite{}, ErrInvalidInput
	}

	if existing, err := s.repo.Get(ctx, userID, petID); err == nil {
		return existing, nil
	}

	f := Favorite{
		UserID:    userID,
		PetID:     petID,
		CreatedAt: s.now(),
	}
	if err := s.repo.Add(ctx, f); err != nil {
		return Favorite{}, err
	}

	s.publish(ctx, realtime.OpInsert, f)
	return f, nil
}

// Remove borra el favorito. Idempotente: quitar algo no guardado no falla.
func (s *Service) Remove(ctx context.Context, userID, petID string) error {
	userID = strings.TrimSpace(userID)
	petID = strings.TrimSpace(petID)
	if userID == "" || petID == "" {
		return ErrInvalidInput
	}

	removed, err := s.repo.Remove(ctx, userID, petID)
	if err != nil {
		return err
	}
	if removed {
		s.publish(ctx, realtime.OpDelete, Favorite{UserID: userID, PetID: petID})
	}
	return nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Favorite, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) publish(ctx context.Context, op realtime.Op, f Favorite) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Publish(ctx, realtime.Event{
		ID:    uuid.NewString(),
		Table: realtime.TableFavorites,
		Op:    op,
		Record: map[string]any{
			"user_id":    f.UserID,
			"pet_id":     f.PetID,
			"created_at": f.CreatedAt,
		},
		// los favoritos son privados del usuario
		Audience: []string{f.UserID},
		At:       s.now().UTC(),
	})
}
