package users

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-adoption-api/internal/platform/cache"
	"pet-adoption-api/internal/platform/token"
	"pet-adoption-api/internal/security/password"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrNotFound           = errors.New("not found")
)

const (
	minPasswordLen = 8
	meCacheTTL     = 30 * time.Second
)

type Service struct {
	repo       Repository
	tokens     RefreshTokenRepository
	issuer     *token.Issuer
	cache      cache.Cache
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService arma el service de cuentas. cache puede ser nil (sin cache de /me).
func NewService(repo Repository, tokens RefreshTokenRepository, issuer *token.Issuer, c cache.Cache, refreshTTL time.Duration) *Service {
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &Service{
		repo:       repo,
		tokens:     tokens,
		issuer:     issuer,
		cache:      c,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Session es el resultado de register/login/refresh: el usuario más
// su par de tokens (access JWT + refresh opaco).
type Session struct {
	User         User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // segundos del access token
}

// Register crea la cuenta y hace auto-login (la app cliente espera
// quedar logueada tras el sign-up).
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, ErrInvalidInput
	}
	if len(in.Password) < minPasswordLen {
		return Session{}, ErrInvalidInput
	}

	phc, err := password.Hash(password.Default, in.Password)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: phc,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return Session{}, err
	}

	return s.issueSession(ctx, u)
}

// Login valida credenciales. Email desconocido y password incorrecto
// devuelven el mismo error (no filtrar cuáles emails existen).
func (s *Service) Login(ctx context.Context, email, plain string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || plain == "" {
		return Session{}, ErrInvalidInput
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if u.DisabledAt != nil {
		return Session{}, ErrUserDisabled
	}
	if !password.Verify(plain, u.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}

	return s.issueSession(ctx, u)
}

// Refresh rota: el token presentado queda revocado y se emite un par nuevo.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (Session, error) {
	rawRefresh = strings.TrimSpace(rawRefresh)
	if rawRefresh == "" {
		return Session{}, ErrInvalidInput
	}

	hash := token.HashRefreshToken(rawRefresh)
	rt, err := s.tokens.GetByHash(ctx, hash)
	if err != nil {
		return Session{}, ErrInvalidRefresh
	}

	now := s.now()
	if !rt.Usable(now) {
		return Session{}, ErrInvalidRefresh
	}

	if err := s.tokens.Revoke(ctx, hash, now); err != nil {
		return Session{}, err
	}

	u, err := s.repo.GetByID(ctx, rt.UserID)
	if err != nil {
		return Session{}, ErrInvalidRefresh
	}
	if u.DisabledAt != nil {
		return Session{}, ErrUserDisabled
	}

	return s.issueSession(ctx, u)
}

// Logout revoca el refresh token. Idempotente: un token ya revocado
// o desconocido no es error (sign-out repetido no debe fallar).
func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	rawRefresh = strings.TrimSpace(rawRefresh)
	if rawRefresh == "" {
		return ErrInvalidInput
	}
	return s.tokens.Revoke(ctx, token.HashRefreshToken(rawRefresh), s.now())
}

// Me devuelve el perfil del usuario autenticado, con un cache corto
// (la app lo consulta en cada carga de pantalla).
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, ErrInvalidInput
	}

	cacheKey := "users:me:" + userID
	if s.cache != nil {
		if b, ok := s.cache.Get(cacheKey); ok {
			var u User
			if err := json.Unmarshal(b, &u); err == nil {
				return u, nil
			}
		}
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, ErrNotFound
	}

	// al cache va sin hash
	u.PasswordHash = ""
	if s.cache != nil {
		if b, err := json.Marshal(u); err == nil {
			s.cache.Set(cacheKey, b, meCacheTTL)
		}
	}
	return u, nil
}

func (s *Service) issueSession(ctx context.Context, u User) (Session, error) {
	access, err := s.issuer.SignAccess(token.AccessClaims{UserID: u.ID, Email: u.Email})
	if err != nil {
		return Session{}, err
	}

	rawRefresh, err := token.NewRefreshToken()
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	rt := RefreshToken{
		TokenHash: token.HashRefreshToken(rawRefresh),
		UserID:    u.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, rt); err != nil {
		return Session{}, err
	}

	u.PasswordHash = ""
	return Session{
		User:         u,
		AccessToken:  access,
		RefreshToken: rawRefresh,
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
	}, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
