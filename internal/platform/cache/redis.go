package cache

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Redis implementa Cache sobre un redis compartido.
// Errores de red se tragan: cache miss es siempre una respuesta válida.
type Redis struct {
	c *rdb.Client
}

func NewRedis(client *rdb.Client) *Redis {
	return &Redis{c: client}
}

func (r *Redis) Get(key string) ([]byte, bool) {
	b, err := r.c.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(key string, value []byte, ttl time.Duration) {
	_ = r.c.Set(context.Background(), key, value, ttl).Err()
}

func (r *Redis) Delete(key string) {
	_ = r.c.Del(context.Background(), key).Err()
}
