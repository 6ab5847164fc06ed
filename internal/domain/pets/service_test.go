package pets

import (
	"context"
	"testing"
	"time"

	"pet-adoption-api/internal/realtime"
)

// -------------------------
// Test repo y notifier
// -------------------------

type testRepo struct {
	byID map[string]Pet

	lastFilter Filter
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Pet{}}
}

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) List(ctx context.Context, f Filter) ([]Pet, error) {
	r.lastFilter = f
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *testRepo) ListByLister(ctx context.Context, listerUserID string) ([]Pet, error) {
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if p.ListedByUserID == listerUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

type testNotifier struct {
	events []realtime.Event
}

func (n *testNotifier) Publish(ctx context.Context, e realtime.Event) error {
	n.events = append(n.events, e)
	return nil
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_DefaultsAndPublish(t *testing.T) {
	repo := newTestRepo()
	notifier := &testNotifier{}
	svc := NewService(repo, notifier)

	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Name:    "  Milo ",
		Species: "dog",
		Size:    "medium",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if p.Name != "Milo" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}
	if p.Sex != SexUnknown {
		t.Fatalf("expected default sex unknown, got %s", p.Sex)
	}
	if p.Status != StatusAvailable {
		t.Fatalf("expected new pet available, got %s", p.Status)
	}
	if p.CreatedAt != now || p.UpdatedAt != now {
		t.Fatalf("expected timestamps from now")
	}

	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 realtime event, got %d", len(notifier.events))
	}
	e := notifier.events[0]
	if e.Table != realtime.TablePets || e.Op != realtime.OpInsert {
		t.Fatalf("unexpected event: %#v", e)
	}
	// el ID se asigna al publicar, no recién en el hub: los webhooks
	// y el broker redis lo necesitan también
	if e.ID == "" {
		t.Fatalf("expected event ID assigned at publish time")
	}
	rec, ok := e.Record.(map[string]any)
	if !ok || rec["name"] != "Milo" {
		t.Fatalf("unexpected event record: %#v", e.Record)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newTestRepo(), nil)

	cases := []CreateInput{
		{Name: "", Species: "dog", Size: "small"},
		{Name: "Milo", Species: "bird", Size: "small"},
		{Name: "Milo", Species: "dog", Size: "enorme"},
		{Name: "Milo", Species: "dog", Size: "small", Sex: "robot"},
		{Name: "Milo", Species: "dog", Size: "small", AgeMonths: -1},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), "owner-1", in); err != ErrInvalidInput {
			t.Fatalf("expected ErrInvalidInput for %#v, got %v", in, err)
		}
	}
}

func TestService_List_StatusDefaults(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	// default: filtra available
	if _, err := svc.List(context.Background(), ListInput{}); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if repo.lastFilter.Status != StatusAvailable {
		t.Fatalf("expected default status available, got %q", repo.lastFilter.Status)
	}

	// all: sin filtro de status
	if _, err := svc.List(context.Background(), ListInput{Status: "all"}); err != nil {
		t.Fatalf("List all error: %v", err)
	}
	if repo.lastFilter.Status != "" {
		t.Fatalf("expected no status filter for all, got %q", repo.lastFilter.Status)
	}

	// explícito
	if _, err := svc.List(context.Background(), ListInput{Status: "adopted"}); err != nil {
		t.Fatalf("List adopted error: %v", err)
	}
	if repo.lastFilter.Status != StatusAdopted {
		t.Fatalf("expected adopted filter, got %q", repo.lastFilter.Status)
	}

	// inválido
	if _, err := svc.List(context.Background(), ListInput{Status: "lost"}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
	if _, err := svc.List(context.Background(), ListInput{Species: "bird"}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for unknown species, got %v", err)
	}
}

func TestService_List_LimitBounds(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	if _, err := svc.List(context.Background(), ListInput{}); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if repo.lastFilter.Limit != defaultListLimit {
		t.Fatalf("expected default limit %d, got %d", defaultListLimit, repo.lastFilter.Limit)
	}

	if _, err := svc.List(context.Background(), ListInput{Limit: 1000, Offset: -3}); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if repo.lastFilter.Limit != maxListLimit {
		t.Fatalf("expected limit capped at %d, got %d", maxListLimit, repo.lastFilter.Limit)
	}
	if repo.lastFilter.Offset != 0 {
		t.Fatalf("expected negative offset normalized, got %d", repo.lastFilter.Offset)
	}
}

func TestService_UpdateProfile_OwnerOnlyAndPhotoNull(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Name: "Milo", Species: "dog", Size: "medium", PhotoURL: "https://example.com/milo.jpg",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// otro usuario no edita
	name := "Otro"
	if _, err := svc.UpdateProfile(context.Background(), p.ID, "intruso", UpdateProfileInput{Name: &name}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// photo_url: null explícito limpia
	updated, err := svc.UpdateProfile(context.Background(), p.ID, "owner-1", UpdateProfileInput{
		PhotoURL: patchField{Present: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if updated.PhotoURL != "" {
		t.Fatalf("expected photo cleared, got %q", updated.PhotoURL)
	}

	// status pending no se acepta por PATCH
	pending := "pending"
	if _, err := svc.UpdateProfile(context.Background(), p.ID, "owner-1", UpdateProfileInput{Status: &pending}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for status pending, got %v", err)
	}
}

func TestService_SetStatus_NoOpDoesNotPublish(t *testing.T) {
	repo := newTestRepo()
	notifier := &testNotifier{}
	svc := NewService(repo, notifier)

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Name: "Milo", Species: "dog", Size: "medium",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	base := len(notifier.events)

	// ya está available: no hay cambio ni evento
	if _, err := svc.MarkAvailable(context.Background(), p.ID); err != nil {
		t.Fatalf("MarkAvailable error: %v", err)
	}
	if len(notifier.events) != base {
		t.Fatalf("expected no event on no-op status change")
	}

	adopted, err := svc.MarkAdopted(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("MarkAdopted error: %v", err)
	}
	if adopted.Status != StatusAdopted {
		t.Fatalf("expected adopted, got %s", adopted.Status)
	}
	if len(notifier.events) != base+1 {
		t.Fatalf("expected update event, got %d", len(notifier.events)-base)
	}
	last := notifier.events[len(notifier.events)-1]
	if last.Op != realtime.OpUpdate || last.OldRecord == nil {
		t.Fatalf("unexpected update event: %#v", last)
	}
}
