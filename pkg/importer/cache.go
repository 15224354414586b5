package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trialbridge-health/platform/pkg/common/logger"
	"github.com/trialbridge-health/platform/pkg/common/models"
)

// Cache is a read-through Redis cache for raw connector responses, keyed by
// source and term. Any cache failure degrades to a live fetch.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(source, term string) string {
	return fmt.Sprintf("import:%s:%s", source, term)
}

func (c *Cache) Get(ctx context.Context, source, term string) ([]models.ImportCandidate, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(source, term)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.WithError(err).Debug("import cache read failed")
		}
		return nil, false
	}
	var candidates []models.ImportCandidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, false
	}
	return candidates, true
}

func (c *Cache) Put(ctx context.Context, source, term string, candidates []models.ImportCandidate) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(source, term), raw, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).Debug("import cache write failed")
	}
}
