// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// guide.go caches the rendered HTML body of each guide so repeated views
// skip the markdown conversion. Keys carry a digest of the source text, so a
// render of old text can never be served for new text. Entries are dropped
// whenever the guide is edited.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// guideKeyPrefix is the Valkey key prefix for cached guide bodies.
	guideKeyPrefix = "guide:"

	// DefaultGuideTTL is how long a rendered guide stays cached.
	DefaultGuideTTL = 10 * time.Minute
)

// GuideCache stores rendered guide HTML in Valkey. A nil *GuideCache is
// valid and caches nothing.
type GuideCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuideCache creates a guide cache backed by the given Valkey client.
func NewGuideCache(client *redis.Client, ttl time.Duration) *GuideCache {
	if ttl == 0 {
		ttl = DefaultGuideTTL
	}
	return &GuideCache{client: client, ttl: ttl}
}

// guidePairPrefix is the key prefix shared by every rendering of one
// (platform, action) pair.
func guidePairPrefix(platform, actionKey string) string {
	return guideKeyPrefix + platform + ":" + actionKey + ":"
}

// GuideKey returns the cache key for the rendering of source under a
// (platform, action) pair.
func GuideKey(platform, actionKey, source string) string {
	sum := sha256.Sum256([]byte(source))
	return guidePairPrefix(platform, actionKey) + hex.EncodeToString(sum[:16])
}

// Get retrieves cached HTML rendered from source.
func (gc *GuideCache) Get(ctx context.Context, platform, actionKey, source string) ([]byte, bool) {
	if gc == nil {
		return nil, false
	}
	key := GuideKey(platform, actionKey, source)
	val, err := gc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("guide cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("guide cache hit", "key", key)
	return val, true
}

// Set stores HTML rendered from source with the configured TTL.
func (gc *GuideCache) Set(ctx context.Context, platform, actionKey, source string, html []byte) {
	if gc == nil {
		return
	}
	key := GuideKey(platform, actionKey, source)
	if err := gc.client.Set(ctx, key, html, gc.ttl).Err(); err != nil {
		slog.Warn("guide cache set error", "key", key, "error", err)
	}
}

// Invalidate removes every cached rendering of one guide.
func (gc *GuideCache) Invalidate(ctx context.Context, platform, actionKey string) {
	if gc == nil {
		return
	}
	pattern := escapeGlob(guidePairPrefix(platform, actionKey)) + "*"
	if n := gc.deleteMatching(ctx, pattern); n > 0 {
		slog.Debug("guide cache invalidated", "platform", platform, "action", actionKey, "deleted", n)
	}
}

// InvalidateAll removes every cached guide by scanning for the prefix.
func (gc *GuideCache) InvalidateAll(ctx context.Context) {
	if gc == nil {
		return
	}
	if n := gc.deleteMatching(ctx, guideKeyPrefix+"*"); n > 0 {
		slog.Info("guide cache cleared", "deleted", n)
	}
}

// deleteMatching deletes the keys matching a SCAN pattern and returns how
// many were found.
func (gc *GuideCache) deleteMatching(ctx context.Context, pattern string) int {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := gc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("guide cache scan error", "pattern", pattern, "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := gc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("guide cache bulk delete error", "pattern", pattern, "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			return deleted
		}
	}
}

// escapeGlob quotes the characters SCAN treats as pattern syntax.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)
