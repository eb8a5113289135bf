// Package flat provides an exact inner-product vector index.
//
// Every search scans all stored vectors, so results carry no approximation
// error. Results follow the FAISS flat-index contract: Search always returns
// k hits, padding with driven.AbsentPosition when fewer vectors are stored.
package flat

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores vectors contiguously and scores them by inner product.
type Index struct {
	mu   sync.RWMutex
	dim  int
	data []float32
}

// New creates an empty index for vectors of the given dimension.
func New(dimensions int) (*Index, error) {
	if dimensions < 1 {
		return nil, fmt.Errorf("%w: dimensions must be >= 1, got %d", domain.ErrInvalidParameter, dimensions)
	}
	return &Index{dim: dimensions}, nil
}

// Factory adapts New to driven.VectorIndexFactory.
func Factory(dimensions int) (driven.VectorIndex, error) {
	return New(dimensions)
}

// Add appends vectors. Either all vectors are added or none.
func (x *Index) Add(_ context.Context, vectors ...[]float32) error {
	for i, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, index has %d", domain.ErrDimensionMismatch, i, len(v), x.dim)
		}
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, v := range vectors {
		x.data = append(x.data, v...)
	}
	return nil
}

// Search returns the min(k, Len()) best hits, best first. Equal scores are
// ordered by position. When k exceeds Len() a single absent hit marks the
// end of the candidates.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", domain.ErrInvalidParameter, k)
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", domain.ErrDimensionMismatch, len(query), x.dim)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	n := len(x.data) / x.dim
	top := make(minHeap, 0, min(k, n))
	for pos := 0; pos < n; pos++ {
		if pos%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		hit := driven.VectorHit{
			Position:   pos,
			Similarity: domain.Dot(x.data[pos*x.dim:(pos+1)*x.dim], query),
		}
		switch {
		case len(top) < k:
			heap.Push(&top, hit)
		case better(hit, top[0]):
			top[0] = hit
			heap.Fix(&top, 0)
		}
	}

	hits := make([]driven.VectorHit, len(top), len(top)+1)
	for i := len(top) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(&top).(driven.VectorHit)
	}
	if k > n {
		hits = append(hits, driven.VectorHit{Position: driven.AbsentPosition})
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.data) / x.dim
}

// Dimensions returns the vector size.
func (x *Index) Dimensions() int {
	return x.dim
}

// Close releases the stored vectors.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.data = nil
	return nil
}

// better reports whether a ranks ahead of b.
func better(a, b driven.VectorHit) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	return a.Position < b.Position
}

// minHeap keeps the worst retained hit at the root.
type minHeap []driven.VectorHit

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(v any)        { *h = append(*h, v.(driven.VectorHit)) }
func (h *minHeap) Pop() any {
	old := *h
	v := old[len(old)-1]
	*h = old[:len(old)-1]
	return v
}
