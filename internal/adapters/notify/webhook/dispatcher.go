package webhook

import (
	"context"
	"strings"
	"time"

	"pet-adoption-api/internal/metrics"
	"pet-adoption-api/internal/platform/httpclient"
	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/realtime"
)

const deliverTimeout = 5 * time.Second

// Dispatcher hace POST de cada evento a las URLs configuradas.
// Entrega best-effort y asíncrona: no reintenta y no frena al caller.
type Dispatcher struct {
	urls   []string
	client *httpclient.Client
	log    logger.Logger
}

func NewDispatcher(urls []string, client *httpclient.Client, log logger.Logger) *Dispatcher {
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			clean = append(clean, u)
		}
	}
	if client == nil {
		client = httpclient.New(deliverTimeout)
	}
	return &Dispatcher{urls: clean, client: client, log: log}
}

type deliveryPayload struct {
	ID    string      `json:"id"`
	Table string      `json:"table"`
	Op    realtime.Op `json:"op"`
	At    time.Time   `json:"at"`
	// record completo; old_record solo en UPDATE
	Record    any `json:"record,omitempty"`
	OldRecord any `json:"old_record,omitempty"`
}

func (d *Dispatcher) Publish(_ context.Context, e realtime.Event) error {
	if len(d.urls) == 0 {
		return nil
	}

	payload := deliveryPayload{
		ID:        e.ID,
		Table:     e.Table,
		Op:        e.Op,
		At:        e.At,
		Record:    e.Record,
		OldRecord: e.OldRecord,
	}

	// no heredamos el ctx del request: la entrega sigue aunque el
	// request que originó el cambio ya haya respondido
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		defer cancel()

		for _, url := range d.urls {
			err := d.client.PostJSON(ctx, url, map[string]string{
				"X-Adoption-Event": string(e.Op),
			}, payload, nil)
			metrics.WebhookDelivered(err == nil)
			if err != nil {
				d.log.Warn("webhook delivery failed", logger.Fields{
					"url":   url,
					"table": e.Table,
					"err":   err.Error(),
				})
			}
		}
	}()

	return nil
}
