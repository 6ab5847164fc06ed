package adoptions

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Post("/pets/{petID}/adoptions", createRequestHandler(svc))
	r.Get("/pets/{petID}/adoptions", listForPetHandler(svc, petsSvc))

	r.Get("/me/adoptions", listMyRequestsHandler(svc))

	r.Route("/adoptions/{requestID}", func(ar chi.Router) {
		ar.Post("/approve", decisionHandler(svc, actionApprove))
		ar.Post("/reject", decisionHandler(svc, actionReject))
		ar.Post("/withdraw", decisionHandler(svc, actionWithdraw))
	})
}

type createRequestRequest struct {
	Message string `json:"message"`
}

type requestResponse struct {
	ID              string     `json:"id"`
	PetID           string     `json:"pet_id"`
	OwnerUserID     string     `json:"owner_user_id"`
	RequesterUserID string     `json:"requester_user_id"`
	Message         string     `json:"message"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
}

type action string

const (
	actionApprove  action = "approve"
	actionReject   action = "reject"
	actionWithdraw action = "withdraw"
)

// createRequestHandler godoc
// @Summary Solicitar adopción
// @Description Crea una solicitud pending sobre la mascota. Si el usuario ya tiene una pending para esa mascota, devuelve la existente. La primera solicitud pasa la publicación a pending.
// @Tags adoptions
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param payload body createRequestRequest true "mensaje para quien publicó (opcional)"
// @Success 201 {object} requestResponse
// @Failure 400 {string} string "invalid input (incluye auto-solicitud)"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Failure 409 {string} string "mascota ya adoptada"
// @Router /pets/{petID}/adoptions [post]
func createRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createRequestRequest
		if r.Body != nil {
			// body opcional: sin mensaje también vale
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		created, err := svc.Create(r.Context(), chi.URLParam(r, "petID"), claims.UserID, req.Message)
		if err != nil {
			writeRequestError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRequestResponse(created))
	}
}

// listForPetHandler godoc
// @Summary Solicitudes de una publicación
// @Description Solo quien publicó la mascota puede ver sus solicitudes.
// @Tags adoptions
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} requestResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/adoptions [get]
func listForPetHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		p, err := petsSvc.GetByID(r.Context(), petID)
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		if p.ListedByUserID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByPet(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]requestResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toRequestResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listMyRequestsHandler godoc
// @Summary Mis solicitudes de adopción
// @Tags adoptions
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {array} requestResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/adoptions [get]
func listMyRequestsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByRequester(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]requestResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toRequestResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// decisionHandler godoc
// @Summary Decidir una solicitud (approve/reject/withdraw)
// @Description approve y reject son del dueño de la publicación; withdraw de quien solicitó. Todas idempotentes sobre su estado final; cualquier otra transición responde 409.
// @Tags adoptions
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param requestID path string true "ID de la solicitud"
// @Success 200 {object} requestResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "request not found"
// @Failure 409 {string} string "invalid state"
// @Router /adoptions/{requestID}/approve [post]
func decisionHandler(svc *Service, act action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		requestID := chi.URLParam(r, "requestID")

		var (
			result Request
			err    error
		)
		switch act {
		case actionApprove:
			result, err = svc.Approve(r.Context(), requestID, claims.UserID)
		case actionReject:
			result, err = svc.Reject(r.Context(), requestID, claims.UserID)
		case actionWithdraw:
			result, err = svc.Withdraw(r.Context(), requestID, claims.UserID)
		}
		if err != nil {
			writeRequestError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(result))
	}
}

func writeRequestError(w http.ResponseWriter, err error) {
	switch err {
	case ErrInvalidInput:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case ErrForbidden:
		http.Error(w, "forbidden", http.StatusForbidden)
	case ErrNotFound:
		http.Error(w, "not found", http.StatusNotFound)
	case ErrBadState:
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRequestResponse(r Request) requestResponse {
	return requestResponse{
		ID:              r.ID,
		PetID:           r.PetID,
		OwnerUserID:     r.OwnerUserID,
		RequesterUserID: r.RequesterUserID,
		Message:         r.Message,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		DecidedAt:       r.DecidedAt,
	}
}

// writeJSON se repite por módulo a propósito (ver nota en pets/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
