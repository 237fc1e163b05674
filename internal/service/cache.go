package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const ideaCachePrefix = "ideas:"

// IdeaCache memoizes generated idea sets per normalized niche so repeated
// requests for the same niche do not redo the billed generation call.
//
// Read-then-generate-then-write is not atomic across the pipeline: two
// concurrent requests for a brand-new niche may both miss and both generate
// once. That duplicate spend is an accepted tradeoff; the last write wins.
type IdeaCache struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewIdeaCache(rdb redis.Cmdable) *IdeaCache {
	return &IdeaCache{rdb: rdb, now: time.Now}
}

// NormalizeNiche trims whitespace and case-folds; matching is exact after
// normalization.
func NormalizeNiche(niche string) string {
	return strings.ToLower(strings.TrimSpace(niche))
}

type cacheEntry struct {
	Ideas     string    `json:"ideas"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Get returns the cached ideas for a niche, or ok=false on a miss.
func (c *IdeaCache) Get(ctx context.Context, niche string) (string, bool, error) {
	key := ideaCachePrefix + NormalizeNiche(niche)

	val, err := c.rdb.HGet(ctx, key, "ideas").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

// Put fully replaces the entry for a niche. Entries never expire on their own;
// a force-refresh overwrites them.
func (c *IdeaCache) Put(ctx context.Context, niche, ideas string) error {
	key := ideaCachePrefix + NormalizeNiche(niche)

	err := c.rdb.HSet(ctx, key,
		"ideas", ideas,
		"updated_at", c.now().UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	return nil
}
