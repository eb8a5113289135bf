package services

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/medroute/internal/core/ports/driven"
)

// Ensure mockEmbedder implements the interface.
var _ driven.EmbeddingService = (*mockEmbedder)(nil)

// mockEmbedder returns fixed vectors for known texts and a deterministic
// positive vector for anything else. It counts calls so tests can assert
// when embedding did or did not happen.
type mockEmbedder struct {
	model   string
	dims    int
	vectors map[string][]float32
	err     error
	delay   time.Duration

	mu         sync.Mutex
	batchCalls int
	texts      int
	active     int
	maxActive  int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{
		model:   "mock-embed",
		dims:    dims,
		vectors: make(map[string][]float32),
	}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	rows, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.texts += len(texts)
	m.active++
	if m.active > m.maxActive {
		m.maxActive = m.active
	}
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.active--
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := m.vectors[t]; ok {
			out[i] = append([]float32(nil), v...)
			continue
		}
		out[i] = pseudoVector(t, m.dims)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return m.dims }
func (m *mockEmbedder) ModelName() string          { return m.model }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

func (m *mockEmbedder) counts() (batches, texts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls, m.texts
}

// pseudoVector derives a strictly positive vector from text.
func pseudoVector(text string, dims int) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()
	v := make([]float32, dims)
	for i := range v {
		state = state*6364136223846793005 + 1442695040888963407
		v[i] = float32(state>>40)/float32(1<<24) + 0.01
	}
	return v
}
