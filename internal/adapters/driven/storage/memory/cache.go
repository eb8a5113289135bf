package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/medroute/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache is an in-memory implementation of driven.EmbeddingCache.
type EmbeddingCache struct {
	mu      sync.RWMutex
	vectors map[string]map[string][]float32
}

// NewEmbeddingCache creates an empty cache.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{vectors: make(map[string]map[string][]float32)}
}

// Get returns copies of the cached vectors for keys.
func (c *EmbeddingCache) Get(_ context.Context, model string, keys []string) (map[string][]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]float32, len(keys))
	byKey := c.vectors[model]
	for _, k := range keys {
		if v, ok := byKey[k]; ok {
			out[k] = append([]float32(nil), v...)
		}
	}
	return out, nil
}

// Put stores copies of vectors under their keys.
func (c *EmbeddingCache) Put(_ context.Context, model string, vectors map[string][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	byKey, ok := c.vectors[model]
	if !ok {
		byKey = make(map[string][]float32, len(vectors))
		c.vectors[model] = byKey
	}
	for k, v := range vectors {
		byKey[k] = append([]float32(nil), v...)
	}
	return nil
}

// Len returns the number of cached vectors for model.
func (c *EmbeddingCache) Len(model string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors[model])
}
