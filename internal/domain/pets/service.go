package pets

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
	ErrForbidden    = errors.New("forbidden")
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

type Service struct {
	repo     Repository
	notifier realtime.Notifier
	now      func() time.Time
}

// NewService arma el service. notifier puede ser nil (sin realtime).
func NewService(repo Repository, notifier realtime.Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

type CreateInput struct {
	Name        string
	Species     string
	Breed       string
	Sex         string
	Size        string
	AgeMonths   int
	Description string
	PhotoURL    string
	City        string
}

func (s *Service) Create(ctx context.Context, listerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(listerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, ErrInvalidInput
	}

	species := Species(strings.TrimSpace(in.Species))
	if !ValidSpecies(species) {
		return Pet{}, ErrInvalidInput
	}

	sex := Sex(strings.TrimSpace(in.Sex))
	if sex == "" {
		sex = SexUnknown
	}
	if !ValidSex(sex) {
		return Pet{}, ErrInvalidInput
	}

	size := Size(strings.TrimSpace(in.Size))
	if !ValidSize(size) {
		return Pet{}, ErrInvalidInput
	}

	if in.AgeMonths < 0 {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	p := Pet{
		ID:             uuid.NewString(),
		ListedByUserID: listerUserID,
		Name:           strings.TrimSpace(in.Name),
		Species:        species,
		Breed:          strings.TrimSpace(in.Breed),
		Sex:            sex,
		Size:           size,
		AgeMonths:      in.AgeMonths,
		Description:    strings.TrimSpace(in.Description),
		PhotoURL:       strings.TrimSpace(in.PhotoURL),
		City:           strings.TrimSpace(in.City),
		Status:         StatusAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}

	s.publish(ctx, realtime.OpInsert, p, nil)
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// ListInput es el filtro crudo que llega del handler.
type ListInput struct {
	Species string
	Sex     string
	Size    string
	City    string
	// "" => available (default del feed público); "all" => sin filtro.
	Status string
	Limit  int
	Offset int
}

func (s *Service) List(ctx context.Context, in ListInput) ([]Pet, error) {
	f := Filter{
		City:   strings.TrimSpace(in.City),
		Limit:  in.Limit,
		Offset: in.Offset,
	}

	if v := Species(strings.TrimSpace(in.Species)); v != "" {
		if !ValidSpecies(v) {
			return nil, ErrInvalidInput
		}
		f.Species = v
	}
	if v := Sex(strings.TrimSpace(in.Sex)); v != "" {
		if !ValidSex(v) {
			return nil, ErrInvalidInput
		}
		f.Sex = v
	}
	if v := Size(strings.TrimSpace(in.Size)); v != "" {
		if !ValidSize(v) {
			return nil, ErrInvalidInput
		}
		f.Size = v
	}

	switch status := strings.TrimSpace(in.Status); status {
	case "":
		f.Status = StatusAvailable
	case "all":
		f.Status = ""
	default:
		v := Status(status)
		if !ValidStatus(v) {
			return nil, ErrInvalidInput
		}
		f.Status = v
	}

	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	return s.repo.List(ctx, f)
}

func (s *Service) ListByLister(ctx context.Context, listerUserID string) ([]Pet, error) {
	listerUserID = strings.TrimSpace(listerUserID)
	if listerUserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByLister(ctx, listerUserID)
}

// patchField permite distinguir "no enviado" de "enviado null"
// (hoy solo photo_url lo necesita; ver handler).
type patchField struct {
	Present bool
	Value   *string
}

type UpdateProfileInput struct {
	Name        *string
	Breed       *string
	Sex         *string
	Size        *string
	AgeMonths   *int
	Description *string
	City        *string
	PhotoURL    patchField
	// Solo available|adopted; pending lo maneja el flujo de adopción.
	Status *string
}

// UpdateProfile aplica un PATCH. Solo quien publicó puede editar.
func (s *Service) UpdateProfile(ctx context.Context, petID, actorUserID string, in UpdateProfileInput) (Pet, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, ErrNotFound
	}
	if p.ListedByUserID != actorUserID {
		return Pet{}, ErrForbidden
	}

	before := p

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = name
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		sex := Sex(strings.TrimSpace(*in.Sex))
		if !ValidSex(sex) {
			return Pet{}, ErrInvalidInput
		}
		p.Sex = sex
	}
	if in.Size != nil {
		size := Size(strings.TrimSpace(*in.Size))
		if !ValidSize(size) {
			return Pet{}, ErrInvalidInput
		}
		p.Size = size
	}
	if in.AgeMonths != nil {
		if *in.AgeMonths < 0 {
			return Pet{}, ErrInvalidInput
		}
		p.AgeMonths = *in.AgeMonths
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.City != nil {
		p.City = strings.TrimSpace(*in.City)
	}
	if in.PhotoURL.Present {
		if in.PhotoURL.Value == nil {
			p.PhotoURL = ""
		} else {
			p.PhotoURL = strings.TrimSpace(*in.PhotoURL.Value)
		}
	}
	if in.Status != nil {
		status := Status(strings.TrimSpace(*in.Status))
		if status != StatusAvailable && status != StatusAdopted {
			return Pet{}, ErrInvalidInput
		}
		p.Status = status
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}

	s.publish(ctx, realtime.OpUpdate, p, &before)
	return p, nil
}

// MarkAdopted lo usa el flujo de adopción al aprobar una solicitud.
func (s *Service) MarkAdopted(ctx context.Context, petID string) (Pet, error) {
	return s.setStatus(ctx, petID, StatusAdopted)
}

// MarkPending lo usa el flujo de adopción al crear la primera solicitud.
func (s *Service) MarkPending(ctx context.Context, petID string) (Pet, error) {
	return s.setStatus(ctx, petID, StatusPending)
}

// MarkAvailable vuelve a publicar (solicitudes rechazadas/retiradas).
func (s *Service) MarkAvailable(ctx context.Context, petID string) (Pet, error) {
	return s.setStatus(ctx, petID, StatusAvailable)
}

func (s *Service) setStatus(ctx context.Context, petID string, status Status) (Pet, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, ErrNotFound
	}
	if p.Status == status {
		return p, nil
	}

	before := p
	p.Status = status
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}

	s.publish(ctx, realtime.OpUpdate, p, &before)
	return p, nil
}

func (s *Service) publish(ctx context.Context, op realtime.Op, p Pet, before *Pet) {
	if s.notifier == nil {
		return
	}

	// el ID se asigna acá para que todos los notifiers (hub, redis,
	// webhooks) manden el mismo evento identificable
	e := realtime.Event{
		ID:     uuid.NewString(),
		Table:  realtime.TablePets,
		Op:     op,
		Record: Record(p),
		At:     s.now().UTC(),
	}
	if before != nil {
		e.OldRecord = Record(*before)
	}
	// best-effort: un fallo de notificación no rompe la escritura
	_ = s.notifier.Publish(ctx, e)
}

// Record es la proyección JSON de una mascota para eventos realtime
// (mismo shape snake_case que la API).
func Record(p Pet) map[string]any {
	return map[string]any{
		"id":                p.ID,
		"listed_by_user_id": p.ListedByUserID,
		"name":              p.Name,
		"species":           string(p.Species),
		"breed":             p.Breed,
		"sex":               string(p.Sex),
		"size":              string(p.Size),
		"age_months":        p.AgeMonths,
		"description":       p.Description,
		"photo_url":         p.PhotoURL,
		"city":              p.City,
		"status":            string(p.Status),
		"created_at":        p.CreatedAt,
		"updated_at":        p.UpdatedAt,
	}
}
