package adoptions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/realtime"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")
)

// PetService es lo que este módulo necesita del módulo pets.
type PetService interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	MarkAdopted(ctx context.Context, petID string) (pets.Pet, error)
	MarkPending(ctx context.Context, petID string) (pets.Pet, error)
	MarkAvailable(ctx context.Context, petID string) (pets.Pet, error)
}

type Service struct {
	repo     Repository
	pets     PetService
	notifier realtime.Notifier
	now      func() time.Time
}

func NewService(repo Repository, petSvc PetService, notifier realtime.Notifier) *Service {
	return &Service{
		repo:     repo,
		pets:     petSvc,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create registra la solicitud. Reglas:
// - la mascota tiene que existir y no estar adoptada
// - quien publicó no puede solicitarse a sí mismo
// - si el requester ya tiene una pending sobre esa mascota, se devuelve esa
//   (idempotente, sin duplicar)
// La primera solicitud pasa la mascota de available a pending.
func (s *Service) Create(ctx context.Context, petID, requesterUserID, message string) (Request, error) {
	petID = strings.TrimSpace(petID)
	requesterUserID = strings.TrimSpace(requesterUserID)
	if petID == "" || requesterUserID == "" {
		return Request{}, ErrInvalidInput
	}

	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return Request{}, ErrNotFound
	}
	if p.ListedByUserID == requesterUserID {
		return Request{}, ErrInvalidInput
	}
	if p.Status == pets.StatusAdopted {
		return Request{}, ErrBadState
	}

	// Dedupe: una pending por (pet, requester)
	existing, err := s.repo.ListByPet(ctx, petID)
	if err == nil {
		for _, r := range existing {
			if r.RequesterUserID == requesterUserID && r.Status == StatusPending {
				return r, nil
			}
		}
	}

	now := s.now()
	req := Request{
		ID:              uuid.NewString(),
		PetID:           petID,
		OwnerUserID:     p.ListedByUserID,
		RequesterUserID: requesterUserID,
		Message:         strings.TrimSpace(message),
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return Request{}, err
	}

	if p.Status == pets.StatusAvailable {
		// best-effort: si falla, la solicitud ya quedó creada igual
		_, _ = s.pets.MarkPending(ctx, petID)
	}

	s.publish(ctx, realtime.OpInsert, req, nil)
	return req, nil
}

// Approve: solo el dueño de la publicación, solo desde pending.
// Marca la mascota como adoptada y auto-rechaza las demás pending.
func (s *Service) Approve(ctx context.Context, requestID, ownerUserID string) (Request, error) {
	req, err := s.authorizeOwner(ctx, requestID, ownerUserID)
	if err != nil {
		return Request{}, err
	}

	// Idempotente
	if req.Status == StatusApproved {
		return req, nil
	}
	if req.Status != StatusPending {
		return Request{}, ErrBadState
	}

	now := s.now()
	before := req
	req.Status = StatusApproved
	req.UpdatedAt = now
	req.DecidedAt = &now

	if err := s.repo.Update(ctx, req); err != nil {
		return Request{}, err
	}

	_, _ = s.pets.MarkAdopted(ctx, req.PetID)
	s.rejectOtherPending(ctx, req, now)

	s.publish(ctx, realtime.OpUpdate, req, &before)
	return req, nil
}

// Reject: solo el dueño, solo desde pending. Si no quedan pending,
// la mascota vuelve a available.
func (s *Service) Reject(ctx context.Context, requestID, ownerUserID string) (Request, error) {
	req, err := s.authorizeOwner(ctx, requestID, ownerUserID)
	if err != nil {
		return Request{}, err
	}

	// Idempotente
	if req.Status == StatusRejected {
		return req, nil
	}
	if req.Status != StatusPending {
		return Request{}, ErrBadState
	}

	return s.decide(ctx, req, StatusRejected)
}

// Withdraw: solo quien solicitó, solo desde pending.
func (s *Service) Withdraw(ctx context.Context, requestID, requesterUserID string) (Request, error) {
	requestID = strings.TrimSpace(requestID)
	requesterUserID = strings.TrimSpace(requesterUserID)
	if requestID == "" || requesterUserID == "" {
		return Request{}, ErrInvalidInput
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return Request{}, ErrNotFound
	}
	if req.RequesterUserID != requesterUserID {
		return Request{}, ErrForbidden
	}

	// Idempotente
	if req.Status == StatusWithdrawn {
		return req, nil
	}
	if req.Status != StatusPending {
		return Request{}, ErrBadState
	}

	return s.decide(ctx, req, StatusWithdrawn)
}

func (s *Service) ListByRequester(ctx context.Context, requesterUserID string) ([]Request, error) {
	requesterUserID = strings.TrimSpace(requesterUserID)
	if requesterUserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByRequester(ctx, requesterUserID)
}

// ListByPet no autoriza: el handler valida que el caller sea quien publicó.
func (s *Service) ListByPet(ctx context.Context, petID string) ([]Request, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPet(ctx, petID)
}

func (s *Service) authorizeOwner(ctx context.Context, requestID, ownerUserID string) (Request, error) {
	requestID = strings.TrimSpace(requestID)
	ownerUserID = strings.TrimSpace(ownerUserID)
	if requestID == "" || ownerUserID == "" {
		return Request{}, ErrInvalidInput
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return Request{}, ErrNotFound
	}
	if req.OwnerUserID != ownerUserID {
		return Request{}, ErrForbidden
	}
	return req, nil
}

// decide cierra una pending con rejected/withdrawn y libera la mascota
// si era la última pendiente.
func (s *Service) decide(ctx context.Context, req Request, status Status) (Request, error) {
	now := s.now()
	before := req
	req.Status = status
	req.UpdatedAt = now
	req.DecidedAt = &now

	if err := s.repo.Update(ctx, req); err != nil {
		return Request{}, err
	}

	if !s.hasPending(ctx, req.PetID) {
		if p, err := s.pets.GetByID(ctx, req.PetID); err == nil && p.Status == pets.StatusPending {
			_, _ = s.pets.MarkAvailable(ctx, req.PetID)
		}
	}

	s.publish(ctx, realtime.OpUpdate, req, &before)
	return req, nil
}

func (s *Service) rejectOtherPending(ctx context.Context, winner Request, now time.Time) {
	others, err := s.repo.ListByPet(ctx, winner.PetID)
	if err != nil {
		return
	}
	for _, r := range others {
		if r.ID == winner.ID || r.Status != StatusPending {
			continue
		}
		before := r
		r.Status = StatusRejected
		r.UpdatedAt = now
		r.DecidedAt = &now
		// best-effort
		if err := s.repo.Update(ctx, r); err == nil {
			s.publish(ctx, realtime.OpUpdate, r, &before)
		}
	}
}

func (s *Service) hasPending(ctx context.Context, petID string) bool {
	items, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return false
	}
	for _, r := range items {
		if r.Status == StatusPending {
			return true
		}
	}
	return false
}

func (s *Service) publish(ctx context.Context, op realtime.Op, r Request, before *Request) {
	if s.notifier == nil {
		return
	}
	e := realtime.Event{
		ID:     uuid.NewString(),
		Table:  realtime.TableAdoptionRequests,
		Op:     op,
		Record: record(r),
		// solo las dos partes involucradas ven la solicitud
		Audience: []string{r.OwnerUserID, r.RequesterUserID},
		At:       s.now().UTC(),
	}
	if before != nil {
		e.OldRecord = record(*before)
	}
	_ = s.notifier.Publish(ctx, e)
}

func record(r Request) map[string]any {
	m := map[string]any{
		"id":                r.ID,
		"pet_id":            r.PetID,
		"owner_user_id":     r.OwnerUserID,
		"requester_user_id": r.RequesterUserID,
		"message":           r.Message,
		"status":            string(r.Status),
		"created_at":        r.CreatedAt,
		"updated_at":        r.UpdatedAt,
	}
	if r.DecidedAt != nil {
		m["decided_at"] = *r.DecidedAt
	}
	return m
}
