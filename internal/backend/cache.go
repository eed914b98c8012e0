package backend

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Cache keeps successful GET bodies for a short time and collapses
// identical concurrent requests into one backend call.
type Cache struct {
	lru   *expirable.LRU[string, []byte]
	group singleflight.Group
}

func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns the cached body for key or loads it once. The load runs on a
// context detached from the caller that started it, so one caller going away
// does not fail the others waiting on the same key. Each caller still stops
// waiting when its own ctx is done.
func (c *Cache) Get(ctx context.Context, key string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if body, ok := c.lru.Get(key); ok {
		return body, nil
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		body, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, body)
		return body, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Purge drops every entry whose key starts with prefix
func (c *Cache) Purge(prefix string) {
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
}

func (c *Cache) Len() int { return c.lru.Len() }
