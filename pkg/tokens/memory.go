// pkg/tokens/memory.go
package tokens

import (
	"context"
	"sync"
	"time"
)

type memStore struct {
	mu     sync.RWMutex
	byShop map[string]ShopToken
}

// NewMemoryStore is the dev fallback when no database is configured.
func NewMemoryStore() Store {
	return &memStore{byShop: map[string]ShopToken{}}
}

func (m *memStore) Save(ctx context.Context, t ShopToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.InstalledAt.IsZero() {
		if prev, ok := m.byShop[t.Shop]; ok {
			t.InstalledAt = prev.InstalledAt
		} else {
			t.InstalledAt = time.Now()
		}
	}
	m.byShop[t.Shop] = t
	return nil
}

func (m *memStore) Get(ctx context.Context, shop string) (ShopToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.byShop[shop]; ok {
		return t, nil
	}
	return ShopToken{}, ErrNotFound
}
