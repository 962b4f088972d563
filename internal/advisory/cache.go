package advisory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"mission-backend/internal/shared/telemetry"
)

const cacheKeyPrefix = "advisory:v1:"

// Cache stores validated advisory results.
type Cache interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Set(ctx context.Context, key string, result Result, ttl time.Duration) error
}

// RedisCache keeps results as JSON strings.
type RedisCache struct {
	Client redis.Cmdable
}

// Get returns the cached result for key.
func (c RedisCache) Get(ctx context.Context, key string) (Result, bool, error) {
	data, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, false, err
	}
	return r, true, nil
}

// Set stores result under key.
func (c RedisCache) Set(ctx context.Context, key string, result Result, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, data, ttl).Err()
}

// CacheKey derives the cache key for a statement. Whitespace and case
// differences in the industry tag do not produce new keys.
func CacheKey(text, industry, provider, model string) string {
	h := sha256.New()
	for _, part := range []string{strings.TrimSpace(text), strings.ToLower(strings.TrimSpace(industry)), provider, model} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// CachingGenerator serves repeated requests from Cache. Cache errors are
// logged and never fail the request.
type CachingGenerator struct {
	Next     Generator
	Cache    Cache
	TTL      time.Duration
	Provider string
	Model    string
}

// Generate implements Generator.
func (g *CachingGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	if g.Cache == nil {
		return g.Next.Generate(ctx, req)
	}
	key := CacheKey(req.Text, req.Industry, g.Provider, g.Model)

	cached, ok, err := g.Cache.Get(ctx, key)
	if err != nil {
		telemetry.Warn("advisory.cache", map[string]any{"op": "get", "error": err.Error()})
	}
	if ok {
		cached.Cached = true
		return cached, nil
	}

	result, err := g.Next.Generate(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if err := g.Cache.Set(ctx, key, result, g.TTL); err != nil {
		telemetry.Warn("advisory.cache", map[string]any{"op": "set", "error": err.Error()})
	}
	return result, nil
}
