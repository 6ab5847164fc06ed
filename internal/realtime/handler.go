package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/middleware"
	"pet-adoption-api/internal/platform/logger"
)

const heartbeatInterval = 25 * time.Second

func RegisterRoutes(r chi.Router, hub *Hub, log logger.Logger) {
	r.Get("/realtime", subscribeHandler(hub, log))
}

// subscribeHandler godoc
// @Summary Suscripción realtime (SSE)
// @Description Stream de eventos de cambio (INSERT/UPDATE/DELETE) sobre las tablas observadas. Eventos con audiencia solo llegan al usuario autenticado correspondiente. La suscripción se limpia al cortar la conexión.
// @Tags realtime
// @Produce text/event-stream
// @Param tables query string false "Tablas separadas por coma: pets,favorites,adoption_requests (default: todas)"
// @Param Authorization header string false "Bearer token; requerido para recibir eventos con audiencia"
// @Success 200 {string} string "stream SSE"
// @Router /realtime [get]
func subscribeHandler(hub *Hub, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		var userID string
		if claims, ok := middleware.GetClaims(r.Context()); ok {
			userID = claims.UserID
		}

		filter := Filter{UserID: userID}
		if raw := strings.TrimSpace(r.URL.Query().Get("tables")); raw != "" {
			filter.Tables = strings.Split(raw, ",")
		}

		sub := hub.Subscribe(r.Context(), filter)
		defer sub.Close()

		// el stream vive más que el WriteTimeout global del server;
		// sin esto la conexión deja de ser escribible a los pocos segundos
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			log.Debug("realtime clear write deadline", logger.Fields{"err": err.Error()})
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		// confirmación inicial para que el cliente sepa que quedó suscripto
		fmt.Fprintf(w, ": subscribed tables=%s\n\n", strings.Join(filter.Tables, ","))
		flusher.Flush()

		log.Debug("realtime subscriber connected", logger.Fields{
			"user_id": userID,
			"tables":  strings.Join(filter.Tables, ","),
		})

		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				log.Debug("realtime subscriber disconnected", logger.Fields{"user_id": userID})
				return

			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()

			case e, open := <-sub.C:
				if !open {
					return
				}
				payload, err := json.Marshal(e)
				if err != nil {
					log.Error("realtime marshal event", logger.Fields{"err": err.Error()})
					continue
				}
				fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Op, payload)
				flusher.Flush()
			}
		}
	}
}
