package router

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "pet-adoption-api/docs"
	mem "pet-adoption-api/internal/adapters/storage/memory"
	pg "pet-adoption-api/internal/adapters/storage/postgres"
	"pet-adoption-api/internal/domain/adoptions"
	"pet-adoption-api/internal/domain/favorites"
	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/domain/users"
	"pet-adoption-api/internal/metrics"
	"pet-adoption-api/internal/middleware"
	"pet-adoption-api/internal/platform/cache"
	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/platform/token"
	"pet-adoption-api/internal/ports/auth"
	"pet-adoption-api/internal/rate"
	"pet-adoption-api/internal/realtime"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Emisor de access/refresh tokens (requerido para /auth/*).
	Issuer *token.Issuer

	// Cache para /me; puede ser nil.
	Cache cache.Cache

	// Hub local de realtime; si es nil se crea uno.
	Hub *realtime.Hub

	// Notifier saliente (hub, redis, webhooks). Si es nil publica
	// solo al hub local.
	Notifier realtime.Notifier

	RefreshTTL time.Duration

	// Rate limiters para endpoints de credenciales; nil = sin límite.
	LoginLimiter    rate.Limiter
	RegisterLimiter rate.Limiter

	Logger logger.Logger

	Swagger bool
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.HTTPMiddleware)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	if opts.Swagger {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	var (
		userRepo     users.Repository
		tokenRepo    users.RefreshTokenRepository
		petRepo      pets.Repository
		favoriteRepo favorites.Repository
		adoptionRepo adoptions.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn, pg.PoolOptions{})
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		userRepo = pg.NewUsersRepo(db)
		tokenRepo = pg.NewRefreshTokensRepo(db)
		petRepo = pg.NewPetsRepo(db)
		favoriteRepo = pg.NewFavoritesRepo(db)
		adoptionRepo = pg.NewAdoptionsRepo(db)
	} else {
		userRepo = mem.NewUserRepo()
		tokenRepo = mem.NewRefreshTokenRepo()
		petRepo = mem.NewPetRepo()
		favoriteRepo = mem.NewFavoriteRepo()
		adoptionRepo = mem.NewAdoptionRepo()
	}

	hub := opts.Hub
	if hub == nil {
		hub = realtime.NewHub()
	}
	var notifier realtime.Notifier = hub
	if opts.Notifier != nil {
		notifier = opts.Notifier
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo, tokenRepo, opts.Issuer, opts.Cache, opts.RefreshTTL)
	petsSvc := pets.NewService(petRepo, notifier)
	favoritesSvc := favorites.NewService(favoriteRepo, notifier)
	adoptionsSvc := adoptions.NewService(adoptionRepo, petsSvc, notifier)

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc, users.RouteOptions{
		LoginLimiter:    middleware.RateLimit(opts.LoginLimiter, nil),
		RegisterLimiter: middleware.RateLimit(opts.RegisterLimiter, nil),
	})
	pets.RegisterRoutes(r, petsSvc)
	favorites.RegisterRoutes(r, favoritesSvc, petsSvc)
	adoptions.RegisterRoutes(r, adoptionsSvc, petsSvc)
	realtime.RegisterRoutes(r, hub, log)

	return r
}
