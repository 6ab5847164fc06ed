package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/middleware"
)

// Middlewares opcionales por endpoint (rate limit de credenciales).
// nil = sin límite (dev/tests).
type RouteOptions struct {
	LoginLimiter    func(http.Handler) http.Handler
	RegisterLimiter func(http.Handler) http.Handler
}

func RegisterRoutes(r chi.Router, svc *Service, opts RouteOptions) {
	r.Route("/auth", func(ar chi.Router) {
		if opts.RegisterLimiter != nil {
			ar.With(opts.RegisterLimiter).Post("/register", registerHandler(svc))
		} else {
			ar.Post("/register", registerHandler(svc))
		}
		if opts.LoginLimiter != nil {
			ar.With(opts.LoginLimiter).Post("/login", loginHandler(svc))
		} else {
			ar.Post("/login", loginHandler(svc))
		}

		ar.Post("/refresh", refreshHandler(svc))
		ar.Post("/logout", logoutHandler(svc))
		ar.Get("/me", meHandler(svc))
	})
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type sessionResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	RefreshToken string       `json:"refresh_token"`
}

// registerHandler godoc
// @Summary Registrar cuenta
// @Description Crea la cuenta y devuelve sesión (auto-login): access token JWT + refresh token opaco.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "email, password (mínimo 8) y display_name opcional"
// @Success 201 {object} sessionResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 409 {string} string "email already registered"
// @Router /auth/register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sess, err := svc.Register(r.Context(), RegisterInput{
			Email:       req.Email,
			Password:    req.Password,
			DisplayName: req.DisplayName,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrEmailTaken):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toSessionResponse(sess))
	}
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "credenciales"
// @Success 200 {object} sessionResponse
// @Failure 401 {string} string "invalid credentials"
// @Failure 423 {string} string "user disabled"
// @Router /auth/login [post]
func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sess, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(sess))
	}
}

// refreshHandler godoc
// @Summary Renovar sesión
// @Description Rota el refresh token: el presentado queda revocado y se emite un par nuevo.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body refreshRequest true "refresh_token vigente"
// @Success 200 {object} sessionResponse
// @Failure 401 {string} string "invalid refresh token"
// @Router /auth/refresh [post]
func refreshHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sess, err := svc.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(sess))
	}
}

// logoutHandler godoc
// @Summary Cerrar sesión
// @Description Revoca el refresh token. Idempotente: repetir el logout no falla.
// @Tags auth
// @Accept json
// @Param payload body refreshRequest true "refresh_token a revocar"
// @Success 204 {string} string "sin contenido"
// @Failure 400 {string} string "invalid input"
// @Router /auth/logout [post]
func logoutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.Logout(r.Context(), req.RefreshToken); err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// meHandler godoc
// @Summary Usuario actual
// @Tags auth
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} userResponse
// @Failure 401 {string} string "unauthorized"
// @Router /auth/me [get]
func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := svc.Me(r.Context(), claims.UserID)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "user not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidRefresh):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrUserDisabled):
		http.Error(w, err.Error(), http.StatusLocked)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toSessionResponse(s Session) sessionResponse {
	return sessionResponse{
		User:         toUserResponse(s.User),
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.ExpiresIn,
		RefreshToken: s.RefreshToken,
	}
}

// writeJSON se repite por módulo a propósito (ver nota en pets/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
