package redisbroker

import (
	"context"
	"encoding/json"
	"fmt"

	rdb "github.com/redis/go-redis/v9"

	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/realtime"
)

// Broker publica eventos en un canal pub/sub de redis y reinyecta lo
// que llega del canal al hub local. Con varias instancias detrás de un
// LB, cada una ve los cambios de las demás.
type Broker struct {
	client  *rdb.Client
	channel string
	hub     *realtime.Hub
	log     logger.Logger
}

func New(client *rdb.Client, channel string, hub *realtime.Hub, log logger.Logger) *Broker {
	if channel == "" {
		channel = "realtime:changes"
	}
	return &Broker{
		client:  client,
		channel: channel,
		hub:     hub,
		log:     log,
	}
}

// wireEvent agrega Audience al JSON (en el SSE hacia clientes no viaja,
// pero entre instancias sí hace falta).
type wireEvent struct {
	realtime.Event
	Audience []string `json:"audience,omitempty"`
}

// Publish manda el evento al canal redis. El fan-out local ocurre
// cuando el mensaje vuelve por la suscripción (un solo camino de
// entrega, sin duplicados por instancia).
func (b *Broker) Publish(ctx context.Context, e realtime.Event) error {
	payload, err := json.Marshal(wireEvent{Event: e, Audience: e.Audience})
	if err != nil {
		return fmt.Errorf("redisbroker: marshal: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redisbroker: publish: %w", err)
	}
	return nil
}

// Run consume el canal hasta que ctx termine. Pensado para correr en
// un goroutine del serve (errgroup).
func (b *Broker) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, open := <-ch:
			if !open {
				return nil
			}
			var we wireEvent
			if err := json.Unmarshal([]byte(msg.Payload), &we); err != nil {
				b.log.Warn("redisbroker: bad payload", logger.Fields{"err": err.Error()})
				continue
			}
			e := we.Event
			e.Audience = we.Audience
			_ = b.hub.Publish(ctx, e)
		}
	}
}
