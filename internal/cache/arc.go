package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

func NewLRU(size int) (*LRU, error) {
	c, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("lru new instance of lru arc cache: %w", err)
	}

	return &LRU{cache: c}, nil
}

var _ Cache = (*LRU)(nil)

type LRU struct {
	cache *lru.ARCCache
}

func (c *LRU) Get(key string) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *LRU) Add(key string, value interface{}) {
	c.cache.Add(key, value)
}

func (c *LRU) Keys() []string {
	raw := c.cache.Keys()
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if s, ok := k.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys
}

func (c *LRU) Delete(key string) {
	c.cache.Remove(key)
}
