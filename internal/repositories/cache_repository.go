package repositories

import (
	"context"
	"time"
)

// ErrCacheMiss возвращается, когда ключа нет в кэше.
type cacheMissError struct{}

func (cacheMissError) Error() string { return "ключ не найден в кэше" }

var ErrCacheMiss = cacheMissError{}

type CacheRepositoryInterface interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}
