package memory

import (
	"fmt"
	"sync"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	wsRepo "github.com/parkyoonha/searchedia-sub001/internal/domain/repositories/workspace"
)

// Cache is a map-backed LocalCache. Nothing survives a restart.
type Cache struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ wsRepo.LocalCache = (*Cache)(nil)

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{values: make(map[string][]byte)}
}

func (c *Cache) Get(key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.values[key]
	if !ok {
		return nil, fmt.Errorf("cache key %q: %w", key, domain.ErrNotFound)
	}
	return append([]byte(nil), value...), nil
}

func (c *Cache) Set(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = append([]byte(nil), value...)
	return nil
}

func (c *Cache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string][]byte)
	return nil
}

// Len returns the number of stored keys
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}
