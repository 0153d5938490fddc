package generator

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"property-marketplace/utils"
)

const cachePrefix = "description"

// CachedGenerator memoizes descriptions in Redis. Cache failures are logged
// and never fail a generation.
type CachedGenerator struct {
	next   Generator
	client *redis.Client
	ttl    time.Duration
	logger *utils.Logger
}

// NewCachedGenerator wraps next with a Redis cache.
func NewCachedGenerator(next Generator, client *redis.Client, ttl time.Duration, logger *utils.Logger) *CachedGenerator {
	return &CachedGenerator{next: next, client: client, ttl: ttl, logger: logger}
}

// CacheKey derives a stable key from every prompt input.
func CacheKey(req Request) string {
	raw := fmt.Sprintf("%s|%s|%g|%g|%g|%s|%s",
		req.PropertyType, req.Location, req.Bedrooms, req.Bathrooms,
		req.SquareFootage, req.Amenities, req.UniqueFeatures)
	hash := md5.Sum([]byte(raw))
	return cachePrefix + ":" + hex.EncodeToString(hash[:])
}

// Cached reports whether req already has a cached description.
func (g *CachedGenerator) Cached(ctx context.Context, req Request) (string, bool) {
	text, err := g.client.Get(ctx, CacheKey(req)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		g.logger.Warn("[generator] Cache read failed: %v", err)
		return "", false
	}
	return text, true
}

func (g *CachedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if text, ok := g.Cached(ctx, req); ok {
		g.logger.Debug("[generator] Cache hit for %s", CacheKey(req))
		return text, nil
	}

	text, err := g.next.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if err := g.client.Set(ctx, CacheKey(req), text, g.ttl).Err(); err != nil {
		g.logger.Warn("[generator] Cache write failed: %v", err)
	}
	return text, nil
}
