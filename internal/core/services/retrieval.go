package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
	"github.com/custodia-labs/medroute/internal/logger"
)

// TopicIndex is the retrieval index of one topic: its documents and an
// exact inner-product index over their unit-norm embeddings, aligned by position.
type TopicIndex struct {
	// Key is the topic's source identifier.
	Key string

	// Topic is the topic name.
	Topic string

	// Documents holds the topic's documents in source order.
	Documents []domain.Document

	// Vectors holds one unit-norm embedding per document.
	Vectors [][]float32

	index driven.VectorIndex
}

// NewTopicIndex builds an index over documents and their vectors.
func NewTopicIndex(
	ctx context.Context, key, topic string, docs []domain.Document, vectors [][]float32, index driven.VectorIndex,
) (*TopicIndex, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("topic %s: %d documents but %d vectors", topic, len(docs), len(vectors))
	}
	if len(vectors) > 0 {
		if err := index.Add(ctx, vectors...); err != nil {
			return nil, fmt.Errorf("index topic %s: %w", topic, err)
		}
	}
	return &TopicIndex{
		Key:       key,
		Topic:     topic,
		Documents: docs,
		Vectors:   vectors,
		index:     index,
	}, nil
}

// Len returns the number of indexed documents.
func (t *TopicIndex) Len() int {
	return len(t.Documents)
}

// Search returns up to k documents in descending score order.
// Asking for more documents than the topic holds returns all of them.
// An empty topic returns no hits.
func (t *TopicIndex) Search(ctx context.Context, q []float32, k int) ([]domain.ScoredDocument, error) {
	if err := domain.ValidateK(k); err != nil {
		return nil, err
	}
	if len(t.Documents) == 0 {
		return []domain.ScoredDocument{}, nil
	}

	k = min(k, len(t.Documents))
	hits, err := t.index.Search(ctx, q, k)
	if err != nil {
		return nil, fmt.Errorf("search topic %s: %w", t.Topic, err)
	}

	results := make([]domain.ScoredDocument, 0, k)
	for _, h := range hits {
		if h.Absent() || h.Position >= len(t.Documents) {
			continue
		}
		results = append(results, domain.ScoredDocument{
			Document: t.Documents[h.Position],
			Score:    h.Similarity,
		})
	}
	return results, nil
}

// IndexBuildFunc builds the retrieval index for one key.
type IndexBuildFunc func(ctx context.Context) (*TopicIndex, error)

// IndexCache holds built topic indexes for the lifetime of the process.
//
// GetOrBuild guarantees at most one in-flight build per key: concurrent
// callers for a cold key wait for the single build and share its result,
// even if the caller that started it goes away.
// A failed build is not cached, so the next call retries. There is no
// eviction; the topic set is small and fixed by the router artifact.
type IndexCache struct {
	mu      sync.RWMutex
	entries map[string]*TopicIndex
	group   singleflight.Group
}

// NewIndexCache creates an empty cache.
func NewIndexCache() *IndexCache {
	return &IndexCache{entries: make(map[string]*TopicIndex)}
}

// Get returns the cached index for key, if any.
func (c *IndexCache) Get(key string) (*TopicIndex, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.entries[key]
	return idx, ok
}

// Len returns the number of cached indexes.
func (c *IndexCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrBuild returns the cached index for key, building it with build if absent.
//
// The build runs detached from any single caller's cancellation: a caller
// whose ctx ends stops waiting and gets ctx.Err(), while the build keeps
// going for the remaining callers and the cache.
func (c *IndexCache) GetOrBuild(ctx context.Context, key string, build IndexBuildFunc) (*TopicIndex, error) {
	if idx, ok := c.Get(key); ok {
		return idx, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// A build that finished between Get and DoChan has already stored its result.
		if idx, ok := c.Get(key); ok {
			return idx, nil
		}
		idx, err := build(buildCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = idx
		c.mu.Unlock()
		return idx, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Debug("Index for %s shared with a concurrent build", key)
		}
		return res.Val.(*TopicIndex), nil
	}
}
