package realtime

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pet-adoption-api/internal/metrics"
)

// subscriberBuffer: si un cliente no drena a este ritmo, se le caen
// eventos (contados en métricas) antes que bloquear el publish.
const subscriberBuffer = 32

// Filter limita qué eventos recibe una suscripción.
type Filter struct {
	// Tables vacío = todas las conocidas.
	Tables []string
	// UserID del suscriptor autenticado; decide eventos con Audience.
	UserID string
}

// Subscription es el extremo de lectura de un suscriptor.
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	filter Filter
	hub    *Hub
	once   sync.Once
}

// Close desuscribe y cierra el canal. Idempotente.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.ch)
	})
}

// Hub hace fan-out en proceso de eventos a suscriptores.
// Implementa Notifier, así los services publican directo cuando
// el broker configurado es "memory".
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe registra un suscriptor. Si ctx termina, la suscripción
// se limpia sola (el teardown del caller puede además llamar Close).
func (h *Hub) Subscribe(ctx context.Context, f Filter) *Subscription {
	tables := make([]string, 0, len(f.Tables))
	for _, t := range f.Tables {
		t = strings.TrimSpace(t)
		if knownTable(t) {
			tables = append(tables, t)
		}
	}
	f.Tables = tables

	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, filter: f, hub: h}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	metrics.SubscriberConnected()

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()

	if ok {
		metrics.SubscriberDisconnected()
	}
}

// Publish entrega el evento a cada suscriptor que matchee.
// Nunca bloquea: buffer lleno => se pierde ese evento para ese
// suscriptor (sin garantía de entrega, igual que un canal pub/sub).
func (h *Hub) Publish(_ context.Context, e Event) error {
	if !knownTable(e.Table) {
		return nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	metrics.EventPublished(e.Table)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if !sub.wants(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			metrics.EventDropped()
		}
	}
	return nil
}

// SubscriberCount es para tests y debug.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (s *Subscription) wants(e Event) bool {
	if !e.VisibleTo(s.filter.UserID) {
		return false
	}
	if len(s.filter.Tables) == 0 {
		return true
	}
	for _, t := range s.filter.Tables {
		if t == e.Table {
			return true
		}
	}
	return false
}
