package pets

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		// Feed público de adopción
		pr.Get("/", listPetsHandler(svc))
		pr.Get("/{petID}", getPetHandler(svc))

		// Publicar requiere cuenta
		pr.Post("/", createPetHandler(svc))

		// Editar: solo quien publicó
		pr.Patch("/{petID}", updatePetHandler(svc))
	})

	// Mis publicaciones
	r.Get("/me/pets", listMyPetsHandler(svc))
}

type createPetRequest struct {
	Name        string `json:"name"`
	Species     string `json:"species"`
	Breed       string `json:"breed"`
	Sex         string `json:"sex"`
	Size        string `json:"size"`
	AgeMonths   int    `json:"age_months"`
	Description string `json:"description"`
	PhotoURL    string `json:"photo_url"`
	City        string `json:"city"`
}

type petResponse struct {
	ID             string    `json:"id"`
	ListedByUserID string    `json:"listed_by_user_id"`
	Name           string    `json:"name"`
	Species        string    `json:"species"`
	Breed          string    `json:"breed"`
	Sex            string    `json:"sex"`
	Size           string    `json:"size"`
	AgeMonths      int       `json:"age_months"`
	Description    string    `json:"description"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	City           string    `json:"city,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string `json:"name"`
	Breed       *string `json:"breed"`
	Sex         *string `json:"sex"`
	Size        *string `json:"size"`
	AgeMonths   *int    `json:"age_months"`
	Description *string `json:"description"`
	City        *string `json:"city"`
	PhotoURL    *string `json:"photo_url"` // null explícito = limpiar foto
	Status      *string `json:"status"`    // available | adopted
}

// createPetHandler godoc
// @Summary Publicar mascota en adopción
// @Tags pets
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param payload body createPetRequest true "datos de la publicación"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 401 {string} string "unauthorized"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:        req.Name,
			Species:     req.Species,
			Breed:       req.Breed,
			Sex:         req.Sex,
			Size:        req.Size,
			AgeMonths:   req.AgeMonths,
			Description: req.Description,
			PhotoURL:    req.PhotoURL,
			City:        req.City,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mascotas en adopción
// @Description Feed público. Por defecto solo `available`; usar status=all para ver todo.
// @Tags pets
// @Produce json
// @Param species query string false "dog | cat"
// @Param sex query string false "male | female | unknown"
// @Param size query string false "small | medium | large"
// @Param city query string false "ciudad"
// @Param status query string false "available | pending | adopted | all"
// @Param limit query int false "máximo de filas (default 50, tope 100)"
// @Param offset query int false "desplazamiento"
// @Success 200 {array} petResponse
// @Failure 400 {string} string "filtro inválido"
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		items, err := svc.List(r.Context(), ListInput{
			Species: q.Get("species"),
			Sex:     q.Get("sex"),
			Size:    q.Get("size"),
			City:    q.Get("city"),
			Status:  q.Get("status"),
			Limit:   limit,
			Offset:  offset,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Perfil de una mascota
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Editar publicación
// @Description PATCH con punteros: campos ausentes no se tocan; photo_url admite null para limpiar. status solo acepta available|adopted (pending es del flujo de adopción).
// @Tags pets
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param payload body updatePetRequest true "campos a modificar"
// @Success 200 {object} petResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")

		// Decodificar a map primero para detectar presencia de photo_url
		// (hay que diferenciar "no enviado" de "photo_url": null).
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// el decode a map se traga campos desconocidos, validarlos a mano
		for k := range raw {
			switch k {
			case "name", "breed", "sex", "size", "age_months", "description", "city", "photo_url", "status":
			default:
				http.Error(w, "unknown field: "+k, http.StatusBadRequest)
				return
			}
		}

		var req updatePetRequest
		{
			b, _ := json.Marshal(raw)
			if err := json.Unmarshal(b, &req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		photo := patchField{}
		if v, exists := raw["photo_url"]; exists {
			photo.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "photo_url must be string or null", http.StatusBadRequest)
					return
				}
				photo.Value = &s
			}
		}

		updated, err := svc.UpdateProfile(r.Context(), petID, claims.UserID, UpdateProfileInput{
			Name:        req.Name,
			Breed:       req.Breed,
			Sex:         req.Sex,
			Size:        req.Size,
			AgeMonths:   req.AgeMonths,
			Description: req.Description,
			City:        req.City,
			PhotoURL:    photo,
			Status:      req.Status,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			case ErrForbidden:
				http.Error(w, "forbidden", http.StatusForbidden)
			case ErrNotFound:
				http.Error(w, "pet not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

// listMyPetsHandler godoc
// @Summary Mis publicaciones
// @Tags pets
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {array} petResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/pets [get]
func listMyPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByLister(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:             p.ID,
		ListedByUserID: p.ListedByUserID,
		Name:           p.Name,
		Species:        string(p.Species),
		Breed:          p.Breed,
		Sex:            string(p.Sex),
		Size:           string(p.Size),
		AgeMonths:      p.AgeMonths,
		Description:    p.Description,
		PhotoURL:       p.PhotoURL,
		City:           p.City,
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
