package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medroute/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/medroute/internal/core/domain"
)

func newTestTopicIndex(t *testing.T, vectors ...[]float32) *TopicIndex {
	t.Helper()
	docs := make([]domain.Document, len(vectors))
	for i := range vectors {
		docs[i] = domain.Document{ID: domain.DocumentID("topic", i), Title: "doc"}
	}
	index, err := flat.New(2)
	require.NoError(t, err)
	ti, err := NewTopicIndex(context.Background(), "corpus/topic.json", "topic", docs, vectors, index)
	require.NoError(t, err)
	return ti
}

func TestTopicIndex_Search_Ordering(t *testing.T) {
	ti := newTestTopicIndex(t,
		[]float32{0, 1},
		[]float32{0.6, 0.8},
		[]float32{1, 0},
		[]float32{0.8, 0.6},
	)

	for k := 1; k <= 6; k++ {
		hits, err := ti.Search(context.Background(), []float32{1, 0}, k)
		require.NoError(t, err)
		assert.Len(t, hits, min(k, 4))
		for i := 1; i < len(hits); i++ {
			assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
		}
		for _, h := range hits {
			assert.NotEmpty(t, h.ID)
		}
	}

	hits, err := ti.Search(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, "topic_000002", hits[0].ID)
	assert.Equal(t, "topic_000003", hits[1].ID)
}

func TestTopicIndex_Search_KOverflow(t *testing.T) {
	ti := newTestTopicIndex(t, []float32{1, 0}, []float32{0, 1}, []float32{0.6, 0.8})

	hits, err := ti.Search(context.Background(), []float32{1, 0}, 10)

	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestTopicIndex_Search_MaxIntK(t *testing.T) {
	ti := newTestTopicIndex(t, []float32{1, 0}, []float32{0, 1}, []float32{0.6, 0.8})

	hits, err := ti.Search(context.Background(), []float32{1, 0}, math.MaxInt)

	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "topic_000000", hits[0].ID)
	assert.Equal(t, "topic_000001", hits[2].ID)
}

func TestTopicIndex_Search_EmptyTopic(t *testing.T) {
	ti := newTestTopicIndex(t)

	hits, err := ti.Search(context.Background(), []float32{1, 0}, 5)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTopicIndex_Search_InvalidK(t *testing.T) {
	ti := newTestTopicIndex(t, []float32{1, 0})

	_, err := ti.Search(context.Background(), []float32{1, 0}, 0)

	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestNewTopicIndex_Misaligned(t *testing.T) {
	index, err := flat.New(2)
	require.NoError(t, err)

	_, err = NewTopicIndex(context.Background(), "k", "t", []domain.Document{{ID: "x"}}, nil, index)

	assert.Error(t, err)
}

func TestIndexCache_BuildsOnce(t *testing.T) {
	cache := NewIndexCache()
	var builds atomic.Int32
	build := func(ctx context.Context) (*TopicIndex, error) {
		builds.Add(1)
		return newTestTopicIndex(t, []float32{1, 0}), nil
	}

	first, err := cache.GetOrBuild(context.Background(), "corpus/topic.json", build)
	require.NoError(t, err)
	second, err := cache.GetOrBuild(context.Background(), "corpus/topic.json", build)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestIndexCache_ConcurrentCallersShareOneBuild(t *testing.T) {
	cache := NewIndexCache()
	var builds atomic.Int32
	release := make(chan struct{})
	build := func(ctx context.Context) (*TopicIndex, error) {
		builds.Add(1)
		<-release
		return newTestTopicIndex(t, []float32{1, 0}), nil
	}

	const callers = 8
	results := make([]*TopicIndex, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx, err := cache.GetOrBuild(context.Background(), "cold", build)
			assert.NoError(t, err)
			results[i] = idx
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, idx := range results {
		assert.Same(t, results[0], idx)
	}
}

func TestIndexCache_CancelledCallerDoesNotAbortSharedBuild(t *testing.T) {
	cache := NewIndexCache()
	started := make(chan struct{})
	release := make(chan struct{})
	var builds atomic.Int32
	build := func(ctx context.Context) (*TopicIndex, error) {
		builds.Add(1)
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return newTestTopicIndex(t, []float32{1, 0}), nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := cache.GetOrBuild(ctxA, "cold", build)
		errA <- err
	}()
	<-started

	type result struct {
		idx *TopicIndex
		err error
	}
	resB := make(chan result, 1)
	go func() {
		idx, err := cache.GetOrBuild(context.Background(), "cold", build)
		resB <- result{idx, err}
	}()

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	require.NotNil(t, b.idx)
	assert.Equal(t, int32(1), builds.Load())

	cached, ok := cache.Get("cold")
	require.True(t, ok)
	assert.Same(t, b.idx, cached)
}

func TestIndexCache_ErrorsAreNotCached(t *testing.T) {
	cache := NewIndexCache()
	attempts := 0
	build := func(ctx context.Context) (*TopicIndex, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("transient")
		}
		return newTestTopicIndex(t, []float32{1, 0}), nil
	}

	_, err := cache.GetOrBuild(context.Background(), "k", build)
	require.Error(t, err)
	assert.Zero(t, cache.Len())

	idx, err := cache.GetOrBuild(context.Background(), "k", build)
	require.NoError(t, err)
	assert.NotNil(t, idx)
	assert.Equal(t, 2, attempts)
}

func TestIndexCache_KeysAreIndependent(t *testing.T) {
	cache := NewIndexCache()
	build := func(ctx context.Context) (*TopicIndex, error) {
		return newTestTopicIndex(t, []float32{1, 0}), nil
	}

	a, err := cache.GetOrBuild(context.Background(), "a", build)
	require.NoError(t, err)
	b, err := cache.GetOrBuild(context.Background(), "b", build)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	_, ok := cache.Get("a")
	assert.True(t, ok)
	_, ok = cache.Get("c")
	assert.False(t, ok)
}
