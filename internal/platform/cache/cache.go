package cache

import "time"

// Cache es un KV con TTL, best-effort. Los callers no deben depender
// de que un Set sobreviva: se usa para acelerar, no como store.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}
