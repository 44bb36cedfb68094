package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgredis "github.com/verdantlabs/leafroom-backend/pkg/redis"
)

// Storage is the durability mirror behind a cart store. Load returns an
// empty slice for a missing key; implementations discard unreadable values
// instead of failing loud.
type Storage interface {
	Load(ctx context.Context, key string) ([]Item, error)
	Save(ctx context.Context, key string, items []Item) error
}

// persistedCart is the versioned wire shape written to storage. Unknown
// versions are treated as corrupt and discarded.
type persistedCart struct {
	Version int    `json:"version"`
	Items   []Item `json:"items"`
}

const persistedCartVersion = 1

type redisStorage struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// NewRedisStorage mirrors carts into redis under a namespaced key per cart.
func NewRedisStorage(client *pkgredis.Client, ttl time.Duration) Storage {
	return &redisStorage{client: client, ttl: ttl}
}

func (r *redisStorage) Load(ctx context.Context, key string) ([]Item, error) {
	raw, err := r.client.Get(ctx, r.client.CartKey(key))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stored persistedCart
	if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored.Version != persistedCartVersion {
		// Fail open: a cart we cannot read is a cart that does not exist.
		_ = r.client.Del(ctx, r.client.CartKey(key))
		return nil, nil
	}
	return stored.Items, nil
}

func (r *redisStorage) Save(ctx context.Context, key string, items []Item) error {
	payload, err := json.Marshal(persistedCart{Version: persistedCartVersion, Items: items})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.client.CartKey(key), payload, r.ttl)
}

type memoryStorage struct {
	mu    sync.Mutex
	carts map[string][]byte
}

// NewMemoryStorage returns a process-local Storage used in tests and dev.
func NewMemoryStorage() Storage {
	return &memoryStorage{carts: map[string][]byte{}}
}

func (m *memoryStorage) Load(_ context.Context, key string) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.carts[key]
	if !ok {
		return nil, nil
	}
	var stored persistedCart
	if err := json.Unmarshal(raw, &stored); err != nil || stored.Version != persistedCartVersion {
		delete(m.carts, key)
		return nil, nil
	}
	return stored.Items, nil
}

func (m *memoryStorage) Save(_ context.Context, key string, items []Item) error {
	payload, err := json.Marshal(persistedCart{Version: persistedCartVersion, Items: items})
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[key] = payload
	return nil
}
