// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// forest.go caches assembled category forests in Valkey, one JSON document
// per owner and generation. The generation counter lives in Valkey so every
// replica sees the same one: Invalidate increments it, and a forest built
// before that is stored under the old generation where no reader looks.
// Errors are logged and treated as misses so a Valkey outage only costs a
// rebuild.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"backoffice/internal/models"
)

const (
	// forestKeyPrefix is the Valkey key prefix for cached forests and
	// their generation counters.
	forestKeyPrefix = "forest:"

	// DefaultForestTTL is how long an assembled forest stays cached.
	DefaultForestTTL = 5 * time.Minute

	// NoGeneration is returned by Get when the counter could not be read.
	// Set ignores it.
	NoGeneration int64 = -1
)

// ForestCache stores assembled forests in Valkey.
type ForestCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewForestCache creates a forest cache backed by the given Valkey client.
func NewForestCache(client redis.Cmdable, ttl time.Duration) *ForestCache {
	if ttl <= 0 {
		ttl = DefaultForestTTL
	}
	return &ForestCache{client: client, ttl: ttl}
}

// ForestKey returns the cache key for an owner's forest at gen.
func ForestKey(ownerID uuid.UUID, gen int64) string {
	return forestKeyPrefix + ownerID.String() + ":" + strconv.FormatInt(gen, 10)
}

// GenerationKey returns the key of an owner's generation counter.
func GenerationKey(ownerID uuid.UUID) string {
	return forestKeyPrefix + "gen:" + ownerID.String()
}

// Get returns the cached forest for ownerID and the generation it was
// looked up under. Pass that generation to Set after a rebuild.
func (fc *ForestCache) Get(ctx context.Context, ownerID uuid.UUID) ([]models.Category, int64, bool) {
	gen, err := fc.client.Get(ctx, GenerationKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		gen, err = 0, nil
	}
	if err != nil {
		slog.Warn("forest cache generation error", "owner_id", ownerID, "error", err)
		return nil, NoGeneration, false
	}

	val, err := fc.client.Get(ctx, ForestKey(ownerID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		slog.Warn("forest cache get error", "owner_id", ownerID, "error", err)
		return nil, gen, false
	}

	var forest []models.Category
	if err := json.Unmarshal(val, &forest); err != nil {
		slog.Warn("forest cache decode error", "owner_id", ownerID, "error", err)
		return nil, gen, false
	}
	if forest == nil {
		forest = []models.Category{}
	}
	slog.Debug("forest cache hit", "owner_id", ownerID, "generation", gen)
	return forest, gen, true
}

// Set stores the forest for ownerID under gen with the configured TTL.
func (fc *ForestCache) Set(ctx context.Context, ownerID uuid.UUID, gen int64, forest []models.Category) {
	if gen == NoGeneration {
		return
	}
	data, err := json.Marshal(forest)
	if err != nil {
		slog.Warn("forest cache encode error", "owner_id", ownerID, "error", err)
		return
	}
	if err := fc.client.Set(ctx, ForestKey(ownerID, gen), data, fc.ttl).Err(); err != nil {
		slog.Warn("forest cache set error", "owner_id", ownerID, "error", err)
	}
}

// Invalidate moves ownerID to a new generation and drops the forest cached
// under the previous one.
func (fc *ForestCache) Invalidate(ctx context.Context, ownerID uuid.UUID) {
	gen, err := fc.client.Incr(ctx, GenerationKey(ownerID)).Result()
	if err != nil {
		slog.Warn("forest cache invalidate error", "owner_id", ownerID, "error", err)
		return
	}
	if err := fc.client.Del(ctx, ForestKey(ownerID, gen-1)).Err(); err != nil {
		slog.Warn("forest cache delete error", "owner_id", ownerID, "error", err)
	}
	slog.Debug("forest cache invalidated", "owner_id", ownerID, "generation", gen)
}

// InvalidateAll removes every cached forest and generation counter by
// scanning for the prefix. Used after seeding or bulk imports, before the
// service takes traffic.
func (fc *ForestCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, next, err := fc.client.Scan(ctx, cursor, forestKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("forest cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := fc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("forest cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("forest cache cleared", "deleted", deleted)
	}
}
