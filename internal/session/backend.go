package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ValkeyBackend stores sessions in Valkey.
type ValkeyBackend struct {
	client *redis.Client
}

// NewValkeyBackend wraps a connected Valkey client.
func NewValkeyBackend(client *redis.Client) *ValkeyBackend {
	return &ValkeyBackend{client: client}
}

func (b *ValkeyBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *ValkeyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMissing
	}
	return v, err
}

func (b *ValkeyBackend) Del(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

// MemoryBackend keeps sessions in process memory. Sessions are lost on
// restart and not shared between instances.
type MemoryBackend struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	value   []byte
	expires time.Time
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[key] = memoryItem{
		value:   append([]byte(nil), value...),
		expires: b.now().Add(ttl),
	}
	return nil
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.items[key]
	if !ok {
		return nil, ErrMissing
	}
	if b.now().After(item.expires) {
		delete(b.items, key)
		return nil, ErrMissing
	}
	return append([]byte(nil), item.value...), nil
}

func (b *MemoryBackend) Del(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.items, key)
	b.mu.Unlock()
	return nil
}
