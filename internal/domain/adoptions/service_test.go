package adoptions

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-adoption-api/internal/domain/pets"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Request
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Request{}}
}

func (r *testRepo) Create(ctx context.Context, req Request) error {
	if req.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[req.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[req.ID] = req
	return nil
}

func (r *testRepo) Update(ctx context.Context, req Request) error {
	if _, ok := r.byID[req.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[req.ID] = req
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Request, error) {
	req, ok := r.byID[id]
	if !ok {
		return Request{}, errRepoNotFound
	}
	return req, nil
}

func (r *testRepo) ListByPet(ctx context.Context, petID string) ([]Request, error) {
	out := make([]Request, 0)
	for _, req := range r.byID {
		if req.PetID == petID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *testRepo) ListByRequester(ctx context.Context, requesterUserID string) ([]Request, error) {
	out := make([]Request, 0)
	for _, req := range r.byID {
		if req.RequesterUserID == requesterUserID {
			out = append(out, req)
		}
	}
	return out, nil
}

// -------------------------
// Fake módulo pets
// -------------------------

type testPets struct {
	byID map[string]pets.Pet
}

func newTestPets(ps ...pets.Pet) *testPets {
	tp := &testPets{byID: map[string]pets.Pet{}}
	for _, p := range ps {
		tp.byID[p.ID] = p
	}
	return tp
}

func (tp *testPets) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	p, ok := tp.byID[id]
	if !ok {
		return pets.Pet{}, errRepoNotFound
	}
	return p, nil
}

func (tp *testPets) setStatus(id string, status pets.Status) (pets.Pet, error) {
	p, ok := tp.byID[id]
	if !ok {
		return pets.Pet{}, errRepoNotFound
	}
	p.Status = status
	tp.byID[id] = p
	return p, nil
}

func (tp *testPets) MarkAdopted(ctx context.Context, petID string) (pets.Pet, error) {
	return tp.setStatus(petID, pets.StatusAdopted)
}

func (tp *testPets) MarkPending(ctx context.Context, petID string) (pets.Pet, error) {
	return tp.setStatus(petID, pets.StatusPending)
}

func (tp *testPets) MarkAvailable(ctx context.Context, petID string) (pets.Pet, error) {
	return tp.setStatus(petID, pets.StatusAvailable)
}

func availablePet(id, owner string) pets.Pet {
	return pets.Pet{
		ID:             id,
		ListedByUserID: owner,
		Name:           "Milo",
		Species:        pets.SpeciesDog,
		Size:           pets.SizeMedium,
		Status:         pets.StatusAvailable,
	}
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_FirstRequestMarksPetPending(t *testing.T) {
	tp := newTestPets(availablePet("pet-1", "owner-1"))
	svc := NewService(newTestRepo(), tp, nil)

	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	req, err := svc.Create(context.Background(), "pet-1", "adopter-1", "hola")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if req.Status != StatusPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}
	if req.OwnerUserID != "owner-1" || req.RequesterUserID != "adopter-1" {
		t.Fatalf("unexpected parties: %#v", req)
	}
	if req.CreatedAt != now || req.UpdatedAt != now {
		t.Fatalf("expected CreatedAt/UpdatedAt to be now")
	}
	if tp.byID["pet-1"].Status != pets.StatusPending {
		t.Fatalf("expected pet marked pending, got %s", tp.byID["pet-1"].Status)
	}
}

func TestService_Create_DedupesPendingPerRequester(t *testing.T) {
	tp := newTestPets(availablePet("pet-1", "owner-1"))
	svc := NewService(newTestRepo(), tp, nil)

	r1, err := svc.Create(context.Background(), "pet-1", "adopter-1", "primera")
	if err != nil {
		t.Fatalf("Create #1 error: %v", err)
	}
	r2, err := svc.Create(context.Background(), "pet-1", "adopter-1", "segunda")
	if err != nil {
		t.Fatalf("Create #2 error: %v", err)
	}
	if r2.ID != r1.ID {
		t.Fatalf("expected same request (dedup), got %s vs %s", r1.ID, r2.ID)
	}

	// otro requester sí crea una nueva
	r3, err := svc.Create(context.Background(), "pet-1", "adopter-2", "")
	if err != nil {
		t.Fatalf("Create #3 error: %v", err)
	}
	if r3.ID == r1.ID {
		t.Fatalf("expected a distinct request for another requester")
	}
}

func TestService_Create_Rules(t *testing.T) {
	p := availablePet("pet-1", "owner-1")
	adopted := availablePet("pet-2", "owner-1")
	adopted.Status = pets.StatusAdopted

	svc := NewService(newTestRepo(), newTestPets(p, adopted), nil)

	// auto-solicitud
	if _, err := svc.Create(context.Background(), "pet-1", "owner-1", ""); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for self-request, got %v", err)
	}
	// mascota inexistente
	if _, err := svc.Create(context.Background(), "nope", "adopter-1", ""); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// mascota adoptada
	if _, err := svc.Create(context.Background(), "pet-2", "adopter-1", ""); err != ErrBadState {
		t.Fatalf("expected ErrBadState for adopted pet, got %v", err)
	}
}

func TestService_Approve_MarksAdopted_AndAutoRejectsOthers(t *testing.T) {
	tp := newTestPets(availablePet("pet-1", "owner-1"))
	repo := newTestRepo()
	svc := NewService(repo, tp, nil)

	win, err := svc.Create(context.Background(), "pet-1", "adopter-1", "")
	if err != nil {
		t.Fatalf("Create winner error: %v", err)
	}
	lose, err := svc.Create(context.Background(), "pet-1", "adopter-2", "")
	if err != nil {
		t.Fatalf("Create loser error: %v", err)
	}

	// otro usuario no puede aprobar
	if _, err := svc.Approve(context.Background(), win.ID, "adopter-1"); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for non-owner approve, got %v", err)
	}

	approved, err := svc.Approve(context.Background(), win.ID, "owner-1")
	if err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if approved.Status != StatusApproved || approved.DecidedAt == nil {
		t.Fatalf("unexpected approved request: %#v", approved)
	}
	if tp.byID["pet-1"].Status != pets.StatusAdopted {
		t.Fatalf("expected pet adopted, got %s", tp.byID["pet-1"].Status)
	}

	other, _ := repo.GetByID(context.Background(), lose.ID)
	if other.Status != StatusRejected {
		t.Fatalf("expected other pending auto-rejected, got %s", other.Status)
	}

	// idempotente
	again, err := svc.Approve(context.Background(), win.ID, "owner-1")
	if err != nil {
		t.Fatalf("Approve again error: %v", err)
	}
	if again.Status != StatusApproved {
		t.Fatalf("expected approved on repeat, got %s", again.Status)
	}

	// una rechazada no se puede aprobar
	if _, err := svc.Approve(context.Background(), lose.ID, "owner-1"); err != ErrBadState {
		t.Fatalf("expected ErrBadState approving rejected, got %v", err)
	}
}

func TestService_Withdraw_LastPendingRestoresAvailability(t *testing.T) {
	tp := newTestPets(availablePet("pet-1", "owner-1"))
	svc := NewService(newTestRepo(), tp, nil)

	r1, _ := svc.Create(context.Background(), "pet-1", "adopter-1", "")
	r2, _ := svc.Create(context.Background(), "pet-1", "adopter-2", "")

	// solo quien solicitó puede retirar
	if _, err := svc.Withdraw(context.Background(), r1.ID, "owner-1"); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if _, err := svc.Withdraw(context.Background(), r1.ID, "adopter-1"); err != nil {
		t.Fatalf("Withdraw #1 error: %v", err)
	}
	// queda otra pending: la mascota sigue pending
	if tp.byID["pet-1"].Status != pets.StatusPending {
		t.Fatalf("expected pet still pending, got %s", tp.byID["pet-1"].Status)
	}

	if _, err := svc.Withdraw(context.Background(), r2.ID, "adopter-2"); err != nil {
		t.Fatalf("Withdraw #2 error: %v", err)
	}
	// era la última: vuelve a available
	if tp.byID["pet-1"].Status != pets.StatusAvailable {
		t.Fatalf("expected pet available again, got %s", tp.byID["pet-1"].Status)
	}
}

func TestService_Reject_IsIdempotent(t *testing.T) {
	tp := newTestPets(availablePet("pet-1", "owner-1"))
	svc := NewService(newTestRepo(), tp, nil)

	r1, _ := svc.Create(context.Background(), "pet-1", "adopter-1", "")

	first, err := svc.Reject(context.Background(), r1.ID, "owner-1")
	if err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	if first.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", first.Status)
	}

	repeat, err := svc.Reject(context.Background(), r1.ID, "owner-1")
	if err != nil {
		t.Fatalf("Reject repeat error: %v", err)
	}
	if repeat.Status != StatusRejected {
		t.Fatalf("expected rejected on repeat, got %s", repeat.Status)
	}
}
