package realtime

import (
	"context"
	"testing"
	"time"
)

func recvEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case e := <-sub.C:
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for event")
		return Event{}
	}
}

func expectNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case e := <-sub.C:
		t.Fatalf("unexpected event: %#v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_PublishFillsIDAndTimestamp(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := hub.Subscribe(ctx, Filter{})
	defer sub.Close()

	if err := hub.Publish(context.Background(), Event{Table: TablePets, Op: OpInsert}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	e := recvEvent(t, sub)
	if e.ID == "" || e.At.IsZero() {
		t.Fatalf("expected hub to fill id/at, got %#v", e)
	}
}

func TestHub_TableFilter(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	onlyPets := hub.Subscribe(ctx, Filter{Tables: []string{TablePets, "nope"}})
	defer onlyPets.Close()
	all := hub.Subscribe(ctx, Filter{})
	defer all.Close()

	_ = hub.Publish(context.Background(), Event{Table: TableFavorites, Op: OpInsert})
	_ = hub.Publish(context.Background(), Event{Table: TablePets, Op: OpInsert})

	// tabla desconocida en el filtro se ignora; favorites no pasa
	if e := recvEvent(t, onlyPets); e.Table != TablePets {
		t.Fatalf("expected only pets event, got %s", e.Table)
	}
	expectNoEvent(t, onlyPets)

	if e := recvEvent(t, all); e.Table != TableFavorites {
		t.Fatalf("expected favorites first for unfiltered sub, got %s", e.Table)
	}
	if e := recvEvent(t, all); e.Table != TablePets {
		t.Fatalf("expected pets second for unfiltered sub, got %s", e.Table)
	}
}

func TestHub_UnknownTableIsDropped(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := hub.Subscribe(ctx, Filter{})
	defer sub.Close()

	if err := hub.Publish(context.Background(), Event{Table: "users", Op: OpInsert}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	expectNoEvent(t, sub)
}

func TestHub_AudienceScoping(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := hub.Subscribe(ctx, Filter{UserID: "alice"})
	defer alice.Close()
	bob := hub.Subscribe(ctx, Filter{UserID: "bob"})
	defer bob.Close()
	anon := hub.Subscribe(ctx, Filter{})
	defer anon.Close()

	_ = hub.Publish(context.Background(), Event{
		Table:    TableAdoptionRequests,
		Op:       OpInsert,
		Audience: []string{"alice", "carol"},
	})

	if e := recvEvent(t, alice); e.Table != TableAdoptionRequests {
		t.Fatalf("expected alice to receive the event")
	}
	expectNoEvent(t, bob)
	expectNoEvent(t, anon)

	// sin audience = broadcast, lo ven todos
	_ = hub.Publish(context.Background(), Event{Table: TablePets, Op: OpInsert})
	recvEvent(t, alice)
	recvEvent(t, bob)
	recvEvent(t, anon)
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := hub.Subscribe(ctx, Filter{})
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// más eventos que el buffer: publish no debe bloquear nunca
		for i := 0; i < subscriberBuffer*3; i++ {
			_ = hub.Publish(context.Background(), Event{Table: TablePets, Op: OpInsert})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a slow subscriber")
	}

	// el buffer quedó lleno, el resto se perdió
	if got := len(sub.ch); got != subscriberBuffer {
		t.Fatalf("expected full buffer (%d), got %d", subscriberBuffer, got)
	}
}

func TestHub_CloseAndContextCleanup(t *testing.T) {
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	sub := hub.Subscribe(ctx, Filter{})
	if hub.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.SubscriberCount())
	}

	// Close explícito + repetido
	sub.Close()
	sub.Close()
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers after close, got %d", hub.SubscriberCount())
	}

	// cancelar el ctx limpia solo
	ctx2, cancel2 := context.WithCancel(context.Background())
	_ = hub.Subscribe(ctx2, Filter{})
	cancel2()

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected subscriber cleaned up on ctx cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}
