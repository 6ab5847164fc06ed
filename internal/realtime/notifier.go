package realtime

import "context"

// Notifier recibe eventos de cambio desde los services de dominio.
// Publish es best-effort: los services no fallan una escritura porque
// la notificación no salga.
type Notifier interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout reparte cada evento a varios notifiers (hub local + webhooks, etc).
type Fanout []Notifier

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var firstErr error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
