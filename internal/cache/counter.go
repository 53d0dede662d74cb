package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// visitsKey holds the total number of home page visits.
const visitsKey = "visits:total"

// VisitCounter is a site-wide hit counter kept in Valkey. A nil
// *VisitCounter counts nothing and reports zero.
type VisitCounter struct {
	client *redis.Client
}

// NewVisitCounter creates a counter backed by the given Valkey client.
func NewVisitCounter(client *redis.Client) *VisitCounter {
	return &VisitCounter{client: client}
}

// Incr records one visit and returns the new total. Errors are logged and
// reported as zero.
func (vc *VisitCounter) Incr(ctx context.Context) int64 {
	if vc == nil {
		return 0
	}
	n, err := vc.client.Incr(ctx, visitsKey).Result()
	if err != nil {
		slog.Warn("visit counter incr error", "error", err)
		return 0
	}
	return n
}

// Total returns the current number of visits.
func (vc *VisitCounter) Total(ctx context.Context) int64 {
	if vc == nil {
		return 0
	}
	n, err := vc.client.Get(ctx, visitsKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		slog.Warn("visit counter get error", "error", err)
		return 0
	}
	return n
}
