package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"lead-capture/internal/lead/domain"
)

// ListAllCacheKey prefixes the JSON-encoded ListAll result. The listing is stored under
// "<ListAllCacheKey>:<generation>".
const ListAllCacheKey = "service:leads|leads|all"

// GenerationCacheKey is the counter Create increments. A listing is only ever cached under the
// generation read before it was loaded, so a snapshot taken before an insert is never served after it.
const GenerationCacheKey = "service:leads|leads|generation"

// ErrCacheMiss is returned by a ListCache when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// ListCache is the minimal key/value cache used by CachedRepository.
type ListCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
}

// RedisCache implements ListCache with go-redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

// CachedRepository is a cache-aside decorator: ListAll is served from the cache when present and
// Create moves the listing to a new generation. Cache failures are logged and bypassed; they never
// fail a request.
type CachedRepository struct {
	next   Repository
	cache  ListCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRepository wraps next. logger may be nil.
func NewCachedRepository(next Repository, cache ListCache, ttl time.Duration, logger *zap.Logger) *CachedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRepository{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Create persists through the wrapped repository and bumps the listing generation.
func (r *CachedRepository) Create(ctx context.Context, n domain.NewLead) (*domain.Lead, error) {
	l, err := r.next.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	gen, err := r.cache.Incr(ctx, GenerationCacheKey)
	if err != nil {
		r.logger.Warn("lead cache invalidation failed", zap.String("key", GenerationCacheKey), zap.Error(err))
		return l, nil
	}
	// Best effort: the previous generation's entry is unreachable anyway and expires with its TTL.
	if err := r.cache.Del(ctx, listingKey(gen-1)); err != nil {
		r.logger.Debug("lead cache cleanup failed", zap.Error(err))
	}
	return l, nil
}

// ListAll returns the cached listing or loads and caches it.
func (r *CachedRepository) ListAll(ctx context.Context) ([]*domain.Lead, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		r.logger.Warn("lead cache generation unreadable", zap.Error(err))
		return r.next.ListAll(ctx)
	}
	key := listingKey(gen)

	b, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var leads []*domain.Lead
		jerr := json.Unmarshal(b, &leads)
		if jerr == nil {
			if leads == nil {
				leads = []*domain.Lead{}
			}
			return leads, nil
		}
		r.logger.Warn("lead cache entry unreadable", zap.Error(jerr))
	case !errors.Is(err, ErrCacheMiss):
		r.logger.Warn("lead cache get failed", zap.Error(err))
	}

	leads, err := r.next.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(leads)
	if err != nil {
		return leads, nil
	}
	if err := r.cache.Set(ctx, key, payload, r.ttl); err != nil {
		r.logger.Warn("lead cache set failed", zap.Error(err))
	}
	return leads, nil
}

// generation returns the current listing generation; an absent counter is generation 0.
func (r *CachedRepository) generation(ctx context.Context) (int64, error) {
	b, err := r.cache.Get(ctx, GenerationCacheKey)
	if errors.Is(err, ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(b), 10, 64)
}

func listingKey(gen int64) string {
	return ListAllCacheKey + ":" + strconv.FormatInt(gen, 10)
}
