package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config central del servicio. Se carga desde YAML y luego
// se pisa con env vars (env gana, útil para dev/containers).
type Config struct {
	App struct {
		// dev | staging | prod
		Env  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Server struct {
		Addr         string `yaml:"addr"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	Storage struct {
		// DSN vacío => repos in-memory (modo dev/tests).
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		Issuer     string `yaml:"issuer"`
		Secret     string `yaml:"secret"`
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
		Register struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"register"`
	} `yaml:"rate"`

	Realtime struct {
		// memory | redis
		Broker  string `yaml:"broker"`
		Channel string `yaml:"channel"`
		// URLs que reciben POST por cada cambio (opcional).
		WebhookURLs []string `yaml:"webhook_urls"`
	} `yaml:"realtime"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Swagger struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"swagger"`
}

// Load lee el YAML (si existe) y aplica overrides de env.
// path vacío => solo env + defaults.
func Load(path string) (Config, error) {
	var cfg Config

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr(&c.App.Env, "APP_ENV")
	setStr(&c.App.Name, "APP_NAME")

	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	setStr(&c.Server.Addr, "SERVER_ADDR")

	setStr(&c.Storage.DSN, "DB_DSN")

	setStr(&c.Cache.Kind, "CACHE_KIND")
	setStr(&c.Cache.Redis.Addr, "REDIS_ADDR")
	setInt(&c.Cache.Redis.DB, "REDIS_DB")

	setStr(&c.JWT.Issuer, "JWT_ISSUER")
	setStr(&c.JWT.Secret, "JWT_SECRET")
	setStr(&c.JWT.AccessTTL, "JWT_ACCESS_TTL")
	setStr(&c.JWT.RefreshTTL, "JWT_REFRESH_TTL")

	setBool(&c.Rate.Enabled, "RATE_ENABLED")

	setStr(&c.Realtime.Broker, "REALTIME_BROKER")
	setStr(&c.Realtime.Channel, "REALTIME_CHANNEL")
	if v := strings.TrimSpace(os.Getenv("REALTIME_WEBHOOK_URLS")); v != "" {
		parts := strings.Split(v, ",")
		urls := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				urls = append(urls, p)
			}
		}
		c.Realtime.WebhookURLs = urls
	}

	setStr(&c.Log.Level, "LOG_LEVEL")
	setStr(&c.Log.Format, "LOG_FORMAT")

	setBool(&c.Swagger.Enabled, "SWAGGER_ENABLED")
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "pet-adoption-api"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "pet-adoption-api"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "720h"
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Register.Limit == 0 {
		c.Rate.Register.Limit = 5
	}
	if c.Rate.Register.Window == "" {
		c.Rate.Register.Window = "1m"
	}
	if c.Realtime.Broker == "" {
		c.Realtime.Broker = "memory"
	}
	if c.Realtime.Channel == "" {
		c.Realtime.Channel = "realtime:changes"
	}
}

func (c *Config) validate() error {
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: cache.kind inválido: %q", c.Cache.Kind)
	}
	switch c.Realtime.Broker {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: realtime.broker inválido: %q", c.Realtime.Broker)
	}
	if c.Cache.Kind == "redis" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return fmt.Errorf("config: cache redis requiere redis.addr")
	}
	if c.Realtime.Broker == "redis" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return fmt.Errorf("config: realtime broker redis requiere cache.redis.addr")
	}
	// En prod el secret es obligatorio; en dev se genera uno efímero en main.
	if c.App.Env == "prod" && strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt.secret es obligatorio en prod")
	}
	return nil
}

// AccessTTL parsea jwt.access_ttl con fallback a 15m.
func (c Config) AccessTTL() time.Duration {
	return parseDuration(c.JWT.AccessTTL, 15*time.Minute)
}

// RefreshTTL parsea jwt.refresh_ttl con fallback a 30 días.
func (c Config) RefreshTTL() time.Duration {
	return parseDuration(c.JWT.RefreshTTL, 30*24*time.Hour)
}

func (c Config) ReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 5*time.Second)
}

func (c Config) WriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 10*time.Second)
}

// ConnMaxLifetime parsea storage.postgres.conn_max_lifetime (fallback 30m).
func (c Config) ConnMaxLifetime() time.Duration {
	return parseDuration(c.Storage.Postgres.ConnMaxLifetime, 30*time.Minute)
}

// CacheMemoryTTL parsea cache.memory.default_ttl; 0 => default del cache en memoria.
func (c Config) CacheMemoryTTL() time.Duration {
	return parseDuration(c.Cache.Memory.DefaultTTL, 0)
}

func (c Config) LoginWindow() time.Duration {
	return parseDuration(c.Rate.Login.Window, time.Minute)
}

func (c Config) RegisterWindow() time.Duration {
	return parseDuration(c.Rate.Register.Window, time.Minute)
}

func parseDuration(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
