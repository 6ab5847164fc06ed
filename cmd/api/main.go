package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	tokenverifier "pet-adoption-api/internal/adapters/auth/token"
	"pet-adoption-api/internal/adapters/notify/redisbroker"
	"pet-adoption-api/internal/adapters/notify/webhook"
	pg "pet-adoption-api/internal/adapters/storage/postgres"
	"pet-adoption-api/internal/config"
	"pet-adoption-api/internal/platform/cache"
	"pet-adoption-api/internal/platform/httpclient"
	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/platform/token"
	"pet-adoption-api/internal/rate"
	"pet-adoption-api/internal/realtime"
	"pet-adoption-api/internal/router"
	migrations "pet-adoption-api/migrations/postgres"
)

// @title Pet Adoption API
// @version 1.0
// @description API de publicaciones de mascotas en adopción: cuentas, favoritos, solicitudes y cambios en tiempo real.
// @BasePath /
func main() {
	// .env solo para dev; en containers las vars vienen del entorno
	_ = godotenv.Load()

	var cfgFile string

	root := &cobra.Command{
		Use:           "pet-adoption-api",
		Short:         "API de adopción de mascotas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", os.Getenv("CONFIG_FILE"), "ruta al YAML de configuración (opcional)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			return migrate(cmd.Context(), cfg)
		},
	}

	root.AddCommand(serveCmd, migrateCmd)

	// sin subcomando => serve (docker CMD simple)
	root.RunE = serveCmd.RunE

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})

	secret := cfg.JWT.Secret
	if secret == "" {
		// dev: secret efímero, las sesiones mueren con el proceso
		secret = ephemeralSecret()
		log.Warn("jwt secret no configurado, usando uno efímero", logger.Fields{"env": cfg.App.Env})
	}

	issuer, err := token.NewIssuer(cfg.JWT.Issuer, secret, cfg.AccessTTL())
	if err != nil {
		return err
	}

	var redisClient *rdb.Client
	if cfg.Cache.Kind == "redis" || cfg.Realtime.Broker == "redis" {
		redisClient = rdb.NewClient(&rdb.Options{
			Addr: cfg.Cache.Redis.Addr,
			DB:   cfg.Cache.Redis.DB,
		})
		defer redisClient.Close()
	}

	var appCache cache.Cache
	if cfg.Cache.Kind == "redis" {
		appCache = cache.NewRedis(redisClient)
	} else {
		appCache = cache.NewMemory(cfg.CacheMemoryTTL())
	}

	sqlDB, err := openStorage(cfg)
	if err != nil {
		return err
	}
	if sqlDB != nil {
		defer sqlDB.Close()
	}

	hub := realtime.NewHub()

	notifiers := realtime.Fanout{}
	var broker *redisbroker.Broker
	if cfg.Realtime.Broker == "redis" {
		broker = redisbroker.New(redisClient, cfg.Realtime.Channel, hub, log)
		notifiers = append(notifiers, broker)
	} else {
		notifiers = append(notifiers, hub)
	}
	if len(cfg.Realtime.WebhookURLs) > 0 {
		notifiers = append(notifiers, webhook.NewDispatcher(cfg.Realtime.WebhookURLs, httpclient.New(5*time.Second), log))
	}

	var loginLimiter, registerLimiter rate.Limiter
	if cfg.Rate.Enabled {
		if redisClient != nil {
			loginLimiter = rate.NewRedisLimiter(redisClient, "rl:login:", cfg.Rate.Login.Limit, cfg.LoginWindow())
			registerLimiter = rate.NewRedisLimiter(redisClient, "rl:register:", cfg.Rate.Register.Limit, cfg.RegisterWindow())
		} else {
			loginLimiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.LoginWindow())
			registerLimiter = rate.NewMemoryLimiter(cfg.Rate.Register.Limit, cfg.RegisterWindow())
		}
	}

	handler := router.NewRouter(router.Options{
		AuthVerifier:    tokenverifier.NewVerifier(issuer),
		DB:              sqlDB,
		Issuer:          issuer,
		Cache:           appCache,
		Hub:             hub,
		Notifier:        notifiers,
		RefreshTTL:      cfg.RefreshTTL(),
		LoginLimiter:    loginLimiter,
		RegisterLimiter: registerLimiter,
		Logger:          log,
		Swagger:         cfg.Swagger.Enabled,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}

	g, gctx := errgroup.WithContext(ctx)

	if broker != nil {
		g.Go(func() error {
			return broker.Run(gctx)
		})
	}

	g.Go(func() error {
		log.Info("starting server", logger.Fields{"addr": cfg.Server.Addr, "env": cfg.App.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func migrate(ctx context.Context, cfg config.Config) error {
	if cfg.Storage.DSN == "" {
		return errors.New("migrate: storage.dsn requerido (o DB_DSN)")
	}

	db, err := pg.Open(cfg.Storage.DSN, poolOptions(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := migrations.Apply(ctx, db)
	if err != nil {
		return err
	}
	fmt.Printf("applied %d migration(s)\n", n)
	return nil
}

func openStorage(cfg config.Config) (db *sql.DB, err error) {
	if cfg.Storage.DSN == "" {
		return nil, nil
	}
	return pg.Open(cfg.Storage.DSN, poolOptions(cfg))
}

func poolOptions(cfg config.Config) pg.PoolOptions {
	return pg.PoolOptions{
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
	}
}

func ephemeralSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
