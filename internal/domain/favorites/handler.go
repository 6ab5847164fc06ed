package favorites

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
	r.Put("/pets/{petID}/favorite", addFavoriteHandler(svc, petsSvc))
	r.Delete("/pets/{petID}/favorite", removeFavoriteHandler(svc))
	r.Get("/me/favorites", listMyFavoritesHandler(svc, petsSvc))
}

type favoriteResponse struct {
	UserID    string    `json:"user_id"`
	PetID     string    `json:"pet_id"`
	CreatedAt time.Time `json:"created_at"`
}

// petSummary es la proyección de la mascota que necesita la lista de
// favoritos (no el perfil completo).
type petSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Species   string `json:"species"`
	Breed     string `json:"breed"`
	Sex       string `json:"sex"`
	Size      string `json:"size"`
	AgeMonths int    `json:"age_months"`
	PhotoURL  string `json:"photo_url,omitempty"`
	City      string `json:"city,omitempty"`
	Status    string `json:"status"`
}

type favoriteWithPetResponse struct {
	Pet         petSummary `json:"pet"`
	FavoritedAt time.Time  `json:"favorited_at"`
}

// addFavoriteHandler godoc
// @Summary Guardar mascota en favoritos
// @Description Idempotente: repetir el PUT devuelve el favorito existente.
// @Tags favorites
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} favoriteResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/favorite [put]
func addFavoriteHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		if _, err := petsSvc.GetByID(r.Context(), petID); err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		f, err := svc.Add(r.Context(), claims.UserID, petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, favoriteResponse{
			UserID:    f.UserID,
			PetID:     f.PetID,
			CreatedAt: f.CreatedAt,
		})
	}
}

// removeFavoriteHandler godoc
// @Summary Quitar de favoritos
// @Description Idempotente: quitar algo no guardado responde 204 igual.
// @Tags favorites
// @Param Authorization header string true "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 204 {string} string "sin contenido"
// @Failure 401 {string} string "unauthorized"
// @Router /pets/{petID}/favorite [delete]
func removeFavoriteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Remove(r.Context(), claims.UserID, chi.URLParam(r, "petID")); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// listMyFavoritesHandler godoc
// @Summary Mis favoritos
// @Description Devuelve las mascotas guardadas, más recientes primero.
// @Tags favorites
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {array} favoriteWithPetResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/favorites [get]
func listMyFavoritesHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		favs, err := svc.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]favoriteWithPetResponse, 0, len(favs))
		for _, f := range favs {
			p, err := petsSvc.GetByID(r.Context(), f.PetID)
			if err != nil {
				// tolera favoritos huérfanos (mascota borrada)
				continue
			}
			out = append(out, favoriteWithPetResponse{
				Pet: petSummary{
					ID:        p.ID,
					Name:      p.Name,
					Species:   string(p.Species),
					Breed:     p.Breed,
					Sex:       string(p.Sex),
					Size:      string(p.Size),
					AgeMonths: p.AgeMonths,
					PhotoURL:  p.PhotoURL,
					City:      p.City,
					Status:    string(p.Status),
				},
				FavoritedAt: f.CreatedAt,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// writeJSON se repite por módulo a propósito (ver nota en pets/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
